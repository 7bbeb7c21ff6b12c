package app_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-room-service/internal/domain"
)

func TestConcurrentSameNameJoin(t *testing.T) {
	c, _ := newTestCoordinator(t)
	room := createRoom(t, c)

	const workers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		taken     atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.JoinRoom(room.Code, fmt.Sprintf("conn-%d", i), domain.Profile{Name: "Alice"})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrNameTaken):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), taken.Load())
	snap, _ := c.GetRoom(room.Code)
	assert.Len(t, snap.Players, 1)
	assert.Equal(t, 2, c.GetStats().Connections)
}

func TestConcurrentJoinAndClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		c, _ := newTestCoordinator(t)
		room := createRoom(t, c)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := c.JoinRoom(room.Code, fmt.Sprintf("conn-%d", i), domain.Profile{Name: fmt.Sprintf("p%d", i)})
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrRoomNotFound)
				}
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.CloseRoom(room.Code)
		}()
		wg.Wait()

		// Joins that lost the race bind nothing, joins that won were released.
		assert.Equal(t, 0, c.GetStats().Connections, "round %d", round)
		assert.False(t, c.RoomExists(room.Code))
	}
}

func TestConcurrentAnswersAndAdvance(t *testing.T) {
	c, _ := newTestCoordinator(t)
	room := createRoom(t, c)

	const players = 12
	ids := make([]string, players)
	for i := range ids {
		ids[i] = join(t, c, room.Code, fmt.Sprintf("conn-%d", i), fmt.Sprintf("p%d", i))
	}
	_, err := c.StartGame(room.Code)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for q := 0; q < len(sampleQuiz().Questions); q++ {
				_, err := c.SubmitAnswer(room.Code, id, q, "1")
				if err != nil && !errors.Is(err, domain.ErrWrongQuestion) && !errors.Is(err, domain.ErrNotPlaying) {
					t.Errorf("unexpected error: %v", err)
				}
				_, _ = c.GetLeaderboard(room.Code)
			}
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < len(sampleQuiz().Questions); i++ {
			_, _ = c.AdvanceQuestion(room.Code)
		}
	}()
	wg.Wait()

	snap, ok := c.GetRoom(room.Code)
	require.True(t, ok)
	assert.Equal(t, domain.StatusFinished, snap.Status)
	seen := make(map[string]bool)
	for _, a := range snap.Answers {
		key := fmt.Sprintf("%s/%d", a.PlayerID, a.QuestionIndex)
		assert.False(t, seen[key], "duplicate answer %s", key)
		seen[key] = true
	}
	for _, id := range ids {
		total := 0
		for _, a := range snap.Answers {
			if a.PlayerID == id {
				total += a.Points
			}
		}
		assert.Equal(t, total, snap.Scores[id])
	}
}
