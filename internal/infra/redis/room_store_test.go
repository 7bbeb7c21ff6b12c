package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

func TestRoomStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewRoomStore(newClient(mr), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	room := app.NewRoom("ABC123", "quiz-1", sampleQuiz(), domain.Host{ConnectionID: "c1", UserID: "u1"}, time.Now())

	if !store.Add(room) {
		t.Fatalf("expected room added")
	}
	if mr.Exists("quiz:room:ABC123") {
		t.Fatalf("expected marker to wait for the next touch")
	}
	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if got, _ := mr.Get("quiz:room:ABC123"); got != "u1" {
		t.Fatalf("expected host id in marker, got %q", got)
	}
	if store.Add(app.NewRoom("ABC123", "quiz-1", sampleQuiz(), domain.Host{}, time.Now())) {
		t.Fatalf("expected duplicate code rejected")
	}

	mr.FastForward(30 * time.Second)
	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("quiz:room:ABC123"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed to 1m, got %v", ttl)
	}

	store.Delete("ABC123")
	if _, ok := store.Get("ABC123"); ok {
		t.Fatalf("expected room removed locally")
	}
	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if mr.Exists("quiz:room:ABC123") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestRoomStoreWorksWithoutRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewRoomStore(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !store.Add(app.NewRoom("ZZZ999", "quiz-1", sampleQuiz(), domain.Host{}, time.Now())) {
		t.Fatalf("expected local add to succeed")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one room, got %d", store.Len())
	}
	store.Delete("ZZZ999")
	if store.Len() != 0 {
		t.Fatalf("expected room removed, got %d", store.Len())
	}
	if err := store.Touch(context.Background()); err == nil {
		t.Fatalf("expected touch to report the unreachable server")
	}
}

func TestRoomStoreAddDeleteSkipNetwork(t *testing.T) {
	// Nothing listens on this address; a dial would block for DialTimeout.
	client := redis.NewClient(&redis.Options{
		Addr:        "10.255.255.1:6379",
		DialTimeout: 2 * time.Second,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := NewRoomStore(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	start := time.Now()
	for _, code := range []string{"AAA111", "BBB222", "CCC333"} {
		if !store.Add(app.NewRoom(code, "quiz-1", sampleQuiz(), domain.Host{UserID: "u1"}, time.Now())) {
			t.Fatalf("expected %s added", code)
		}
		store.Delete(code)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected add and delete to stay local, took %v", elapsed)
	}
}

func TestRoomStoreRetriesFailedDeletes(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewRoomStore(newClient(mr), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	store.Add(app.NewRoom("ABC123", "quiz-1", sampleQuiz(), domain.Host{UserID: "u1"}, time.Now()))
	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}

	store.Delete("ABC123")
	mr.SetError("ERR injected")
	if err := store.Touch(ctx); err == nil {
		t.Fatalf("expected touch to fail while redis errors")
	}
	mr.SetError("")
	if !mr.Exists("quiz:room:ABC123") {
		t.Fatalf("expected marker to survive the failed flush")
	}
	if err := store.Touch(ctx); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if mr.Exists("quiz:room:ABC123") {
		t.Fatalf("expected retried delete to remove the marker")
	}
}
