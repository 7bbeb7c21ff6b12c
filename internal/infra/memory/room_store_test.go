package memory

import (
	"testing"
	"time"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()
	room := app.NewRoom("ABC123", "quiz-1", sampleQuiz(), domain.Host{ConnectionID: "c1"}, time.Now())

	if !store.Add(room) {
		t.Fatalf("expected room added")
	}
	if store.Add(app.NewRoom("ABC123", "quiz-1", sampleQuiz(), domain.Host{}, time.Now())) {
		t.Fatalf("expected duplicate code rejected")
	}
	if got, ok := store.Get("ABC123"); !ok || got != room {
		t.Fatalf("expected room present")
	}
	if store.Len() != 1 || len(store.List()) != 1 {
		t.Fatalf("expected one room, got len=%d", store.Len())
	}

	store.Delete("ABC123")
	if _, ok := store.Get("ABC123"); ok {
		t.Fatalf("expected room removed")
	}
	store.Delete("ABC123")
}
