package http

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

// sendBuffer is the per-connection outbound queue length.
const sendBuffer = 64

type client struct {
	id        string
	userID    string
	send      chan []byte
	closeOnce sync.Once
}

// Hub tracks live connections and which room each one is listening to.
// Sends never block; a full queue drops the message for that connection.
// Channels are only closed under the write lock and only written under the
// read lock, so a send can never race a close.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client // room code -> connection id -> client
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
		logger:  logger,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// unregister drops the connection from every room and closes its queue.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	c.closeOnce.Do(func() { close(c.send) })
}

// Subscribe routes room broadcasts for code to connID.
// Subscribe adds connID to the room's broadcast set. It reports whether the
// connection was newly added.
func (h *Hub) Subscribe(code, connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	members := h.rooms[code]
	if members == nil {
		members = make(map[string]*client)
		h.rooms[code] = members
	}
	if _, exists := members[connID]; exists {
		return false
	}
	members[connID] = c
	return true
}

func (h *Hub) Unsubscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[code]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Send queues an event for a single connection.
func (h *Hub) Send(connID, eventType string, payload any) {
	msg, ok := h.encode(eventType, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.enqueue(c, msg)
	}
}

// Broadcast queues an event for every connection subscribed to code, except
// the ones listed in skip.
func (h *Hub) Broadcast(code, eventType string, payload any, skip ...string) {
	msg, ok := h.encode(eventType, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.rooms[code] {
		if slices.Contains(skip, id) {
			continue
		}
		h.enqueue(c, msg)
	}
}

// CloseRoom tells the released connections the room is gone and drops the
// room's subscriptions. Connections stay open and may join another room.
func (h *Hub) CloseRoom(code string, released []string, reason string) {
	payload := roomClosedPayload{Code: code, Reason: reason}
	for _, connID := range released {
		h.Send(connID, eventRoomClosed, payload)
	}
	h.mu.Lock()
	delete(h.rooms, code)
	h.mu.Unlock()
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("send queue full, dropping message", "conn", c.id, "user", c.userID)
	}
}

func (h *Hub) encode(eventType string, payload any) ([]byte, bool) {
	msg, err := json.Marshal(outboundMessage{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error("encode event", "type", eventType, "error", err)
		return nil, false
	}
	return msg, true
}
