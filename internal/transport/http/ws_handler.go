package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/idgen"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var (
	errUnsupportedMessage = errors.New("unsupported message type")
	errNotInRoom          = errors.New("connection is not in a room")
	errNotHost            = errors.New("only the host can do that")
	errInvalidPayload     = errors.New("invalid payload")
)

type WSHandler struct {
	coordinator *app.Coordinator
	quizzes     app.QuizRepository
	hub         *Hub
	validate    *validator.Validate
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(coordinator *app.Coordinator, quizzes app.QuizRepository, hub *Hub, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		quizzes:     quizzes,
		hub:         hub,
		validate:    newValidator(),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection until the peer goes
// away. A disconnect is treated as leaving the current room.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	c := &client{
		id:     idgen.NewConnectionID(),
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
	h.hub.register(c)
	h.logger.Info("connection opened", "conn", c.id, "user", userID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, c)
	}()

	h.readPump(r.Context(), conn, c)

	h.leave(c)
	h.hub.unregister(c.id)
	<-writerDone
	conn.Close()
	h.logger.Info("connection closed", "conn", c.id, "user", userID)
}

// ServeStats reports registry counters and the number of open sockets.
func (h *WSHandler) ServeStats(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		domain.Stats
		Sockets int `json:"sockets"`
	}{
		Stats:   h.coordinator.GetStats(),
		Sockets: h.hub.Len(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("write stats", "error", err)
	}
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, c *client) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws read error", "conn", c.id, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.Send(c.id, eventError, errorPayload{Message: "malformed message"})
			continue
		}
		if err := h.dispatch(ctx, c, msg); err != nil {
			h.logger.Debug("request rejected", "conn", c.id, "type", msg.Type, "error", err)
			h.hub.Send(c.id, eventError, errorPayload{Message: err.Error(), Request: msg.Type})
		}
	}
}

// writePump owns all writes to conn. It exits when the hub closes the queue
// or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("ws write error", "conn", c.id, "error", err)
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, c *client, msg inboundMessage) error {
	switch msg.Type {
	case msgCreateRoom:
		return h.createRoom(ctx, c, msg.Payload)
	case msgJoinRoom:
		return h.joinRoom(c, msg.Payload)
	case msgLeaveRoom:
		if !h.leave(c) {
			return errNotInRoom
		}
		return nil
	case msgStartGame:
		return h.startGame(c)
	case msgNextQuestion:
		return h.nextQuestion(c)
	case msgSubmitAnswer:
		return h.submitAnswer(c, msg.Payload)
	case msgGetLeaderboard:
		return h.getLeaderboard(c)
	default:
		return errUnsupportedMessage
	}
}

func (h *WSHandler) createRoom(ctx context.Context, c *client, raw json.RawMessage) error {
	var p createRoomPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}
	quiz, err := h.quizzes.GetQuiz(ctx, p.QuizID)
	if err != nil {
		return err
	}
	room, err := h.coordinator.CreateRoom(c.id, domain.Profile{UserID: c.userID, Name: p.Name, Avatar: p.Avatar}, p.QuizID, quiz)
	if err != nil {
		return err
	}
	h.hub.Subscribe(room.Code, c.id)
	h.hub.Send(c.id, eventRoomCreated, roomCreatedPayload{Room: room.PublicView()})
	return nil
}

func (h *WSHandler) joinRoom(c *client, raw json.RawMessage) error {
	var p joinRoomPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}
	code := strings.ToUpper(p.Code)
	// Subscribe first so a StartGame racing the join still reaches us.
	added := h.hub.Subscribe(code, c.id)
	res, err := h.coordinator.JoinRoom(code, c.id, domain.Profile{UserID: c.userID, Name: p.Name, Avatar: p.Avatar})
	if err != nil {
		if added {
			h.hub.Unsubscribe(code, c.id)
		}
		return err
	}
	h.hub.Send(c.id, eventJoined, res)

	joined := playerJoinedPayload{Count: len(res.Room.Players)}
	for _, lp := range res.Room.Players {
		if lp.ID == res.PlayerID {
			joined.Player = lp
		}
	}
	h.hub.Broadcast(code, eventPlayerJoined, joined, c.id)
	return nil
}

// leave removes c from its room and notifies whoever remains. It reports
// whether the connection was in a room.
func (h *WSHandler) leave(c *client) bool {
	dep, ok := h.coordinator.LeaveRoom(c.id)
	if !ok {
		return false
	}
	if dep.HostLeft {
		h.hub.CloseRoom(dep.RoomCode, dep.Released, "host left")
		return true
	}
	h.hub.Unsubscribe(dep.RoomCode, c.id)
	left := playerLeftPayload{PlayerID: dep.PlayerID, Name: dep.Name}
	h.hub.Broadcast(dep.RoomCode, eventPlayerLeft, left)
	h.hub.Send(c.id, eventPlayerLeft, left)
	return true
}

func (h *WSHandler) startGame(c *client) error {
	entry, err := h.hostEntry(c)
	if err != nil {
		return err
	}
	state, err := h.coordinator.StartGame(entry.RoomCode)
	if err != nil {
		return err
	}
	return h.publishQuestion(state)
}

func (h *WSHandler) nextQuestion(c *client) error {
	entry, err := h.hostEntry(c)
	if err != nil {
		return err
	}
	state, err := h.coordinator.AdvanceQuestion(entry.RoomCode)
	if err != nil {
		return err
	}
	return h.publishQuestion(state)
}

func (h *WSHandler) publishQuestion(state domain.QuestionState) error {
	if state.Finished {
		lb, err := h.coordinator.GetLeaderboard(state.RoomCode)
		if err != nil {
			return err
		}
		h.hub.Broadcast(state.RoomCode, eventGameFinished, gameFinishedPayload{Leaderboard: lb})
		return nil
	}
	h.hub.Broadcast(state.RoomCode, eventQuestion, questionPayload{Question: *state.Question, StartedAt: state.StartedAt})
	return nil
}

func (h *WSHandler) submitAnswer(c *client, raw json.RawMessage) error {
	var p submitAnswerPayload
	if err := h.decode(raw, &p); err != nil {
		return err
	}
	entry, ok := h.coordinator.GetPlayerDirectoryEntry(c.id)
	if !ok {
		return errNotInRoom
	}
	res, err := h.coordinator.SubmitAnswer(entry.RoomCode, entry.PlayerID, *p.QuestionIndex, p.Answer)
	if err != nil {
		return err
	}
	h.hub.Send(c.id, eventAnswerResult, res)
	if host, ok := h.coordinator.RoomHost(entry.RoomCode); ok {
		h.hub.Send(host.ConnectionID, eventAnswerReceived, answerReceivedPayload{
			PlayerID:      entry.PlayerID,
			Name:          res.PlayerName,
			QuestionIndex: res.QuestionIndex,
			Correct:       res.Correct,
			Points:        res.Points,
		})
	}
	return nil
}

func (h *WSHandler) getLeaderboard(c *client) error {
	entry, ok := h.coordinator.GetPlayerDirectoryEntry(c.id)
	if !ok {
		return errNotInRoom
	}
	lb, err := h.coordinator.GetLeaderboard(entry.RoomCode)
	if err != nil {
		return err
	}
	h.hub.Send(c.id, eventLeaderboard, lb)
	return nil
}

// hostEntry authorizes host-only actions against the directory.
func (h *WSHandler) hostEntry(c *client) (domain.DirectoryEntry, error) {
	entry, ok := h.coordinator.GetPlayerDirectoryEntry(c.id)
	if !ok {
		return domain.DirectoryEntry{}, errNotInRoom
	}
	if !entry.IsHost {
		return domain.DirectoryEntry{}, errNotHost
	}
	return entry, nil
}

// newValidator registers the domain checks payload tags refer to.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("roomcode", func(fl validator.FieldLevel) bool {
		return idgen.IsRoomCode(strings.ToUpper(fl.Field().String()))
	})
	return v
}

func (h *WSHandler) decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return nil
}
