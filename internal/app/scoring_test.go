package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"quiz-room-service/internal/domain"
)

func TestScoreAnswer(t *testing.T) {
	standard := domain.Question{}
	custom := domain.Question{Points: 500, TimeLimitSeconds: 10}

	tests := []struct {
		name     string
		question domain.Question
		correct  bool
		elapsed  int
		want     int
	}{
		{name: "instant", question: standard, correct: true, elapsed: 0, want: 1500},
		{name: "half window", question: standard, correct: true, elapsed: 15, want: 1250},
		{name: "one second", question: standard, correct: true, elapsed: 1, want: 1483},
		{name: "at limit", question: standard, correct: true, elapsed: 30, want: 1000},
		{name: "late", question: standard, correct: true, elapsed: 120, want: 1000},
		{name: "negative elapsed clamps", question: standard, correct: true, elapsed: -5, want: 1500},
		{name: "incorrect", question: standard, correct: false, elapsed: 0, want: 0},
		{name: "custom instant", question: custom, correct: true, elapsed: 0, want: 750},
		{name: "custom partial", question: custom, correct: true, elapsed: 3, want: 675},
		{name: "custom late", question: custom, correct: true, elapsed: 11, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreAnswer(tt.question, tt.correct, tt.elapsed))
		})
	}
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, elapsedSeconds(start, start))
	assert.Equal(t, 0, elapsedSeconds(start, start.Add(999*time.Millisecond)))
	assert.Equal(t, 14, elapsedSeconds(start, start.Add(14900*time.Millisecond)))
	assert.Equal(t, 0, elapsedSeconds(start, start.Add(-time.Minute)))
}
