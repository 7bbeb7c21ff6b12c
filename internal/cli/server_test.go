package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-room-service/internal/app"
	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	transport "quiz-room-service/internal/transport/http"
)

func TestQuizLoaderFallsBackToSample(t *testing.T) {
	loader, err := quizLoader(config.Config{}, nil)
	require.NoError(t, err)

	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Len(t, quiz.Questions, 2)
}

func TestQuizLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	data := []byte(`quizzes:
  - id: capitals
    title: Capitals
    questions:
      - id: q1
        prompt: Capital of Japan?
        options:
          - {id: "0", text: Tokyo}
          - {id: "1", text: Osaka}
        correct: 0
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var cfg config.Config
	cfg.Quiz.File = path
	loader, err := quizLoader(cfg, nil)
	require.NoError(t, err)

	quiz, err := loader.LoadQuiz(context.Background(), "capitals")
	require.NoError(t, err)
	assert.Equal(t, domain.Answer("0"), quiz.Questions[0].Correct)

	_, err = loader.LoadQuiz(context.Background(), "quiz-1")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestRoomReaperSweep(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	coordinator := app.NewCoordinator(memory.NewRoomStore(), app.WithClock(func() time.Time { return now }))
	room, err := coordinator.CreateRoom("host-conn", domain.Profile{Name: "Host"}, "quiz-1", sampleQuizzes()["quiz-1"])
	require.NoError(t, err)

	touched := 0
	reaper := roomReaper{
		coordinator: coordinator,
		hub:         transport.NewHub(logger),
		touch: func(context.Context) error {
			touched++
			return errors.New("redis down")
		},
		idleTTL: time.Minute,
		logger:  logger,
	}

	reaper.sweep(context.Background())
	assert.True(t, coordinator.RoomExists(room.Code))

	now = now.Add(2 * time.Minute)
	reaper.sweep(context.Background())
	assert.False(t, coordinator.RoomExists(room.Code))
	assert.Equal(t, 2, touched)
}

func TestRoomReaperNonPositiveDurations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	coordinator := app.NewCoordinator(memory.NewRoomStore(), app.WithClock(func() time.Time { return now }))
	room, err := coordinator.CreateRoom("host-conn", domain.Profile{Name: "Host"}, "quiz-1", sampleQuizzes()["quiz-1"])
	require.NoError(t, err)

	reaper := roomReaper{
		coordinator: coordinator,
		hub:         transport.NewHub(logger),
		idleTTL:     config.TTLDuration("0s", defaultIdleTTL),
		interval:    config.TTLDuration("-1m", defaultReapInterval),
		logger:      logger,
	}
	assert.Equal(t, defaultIdleTTL, reaper.idleTTL)
	assert.Equal(t, defaultReapInterval, reaper.interval)

	// zero values reach the reaper when it is built without config
	reaper.idleTTL, reaper.interval = 0, 0
	now = now.Add(time.Minute)
	reaper.sweep(context.Background())
	assert.True(t, coordinator.RoomExists(room.Code), "zero idle ttl must not close active rooms")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { reaper.run(ctx) })
}
