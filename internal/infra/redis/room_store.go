package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-room-service/internal/app"
)

// RoomStore is a Redis-aware implementation of app.RoomStore.
// Notes:
//   - Rooms live in a local map; game state never leaves the process.
//   - Redis holds a liveness marker per room (value: host user id) for
//     operational tooling. It is not a shared room directory.
//   - Add and Delete never touch the network. Markers are written and
//     removed by Touch, so they lag the local map by up to one sweep.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	rooms   map[string]*app.Room
	removed map[string]struct{}
}

func NewRoomStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RoomStore {
	return &RoomStore{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		rooms:   make(map[string]*app.Room),
		removed: make(map[string]struct{}),
	}
}

func (s *RoomStore) Add(room *app.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code()]; exists {
		return false
	}
	s.rooms[room.Code()] = room
	delete(s.removed, room.Code())
	return true
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, existed := s.rooms[code]; !existed {
		return
	}
	delete(s.rooms, code)
	s.removed[code] = struct{}{}
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *RoomStore) List() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	return out
}

// Touch reconciles Redis with the local map: every live room gets its marker
// written with a fresh TTL and markers of deleted rooms are removed. Failed
// deletes are retried on the next call.
func (s *RoomStore) Touch(ctx context.Context) error {
	s.mu.Lock()
	live := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		live = append(live, room)
	}
	removed := s.removed
	s.removed = make(map[string]struct{})
	s.mu.Unlock()

	if len(live) == 0 && len(removed) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, room := range live {
		pipe.Set(ctx, s.key(room.Code()), room.Host().UserID, s.ttl)
	}
	for code := range removed {
		pipe.Del(ctx, s.key(code))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.requeue(removed)
		return err
	}
	s.logger.Debug("room markers flushed", "live", len(live), "removed", len(removed))
	return nil
}

func (s *RoomStore) requeue(removed map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range removed {
		if _, live := s.rooms[code]; live {
			continue
		}
		s.removed[code] = struct{}{}
	}
}

func (s *RoomStore) key(code string) string {
	return "quiz:room:" + code
}
