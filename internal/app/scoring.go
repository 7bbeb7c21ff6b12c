package app

import (
	"math"
	"time"

	"quiz-room-service/internal/domain"
)

// maxTimeBonus is the bonus fraction of an instant correct answer.
const maxTimeBonus = 0.5

// ScoreAnswer returns the points for one submission. Correct answers earn
// the base points plus a bonus that decays linearly from 50% at zero elapsed
// seconds to nothing at the time limit; late answers still earn the base.
func ScoreAnswer(q domain.Question, correct bool, elapsedSeconds int) int {
	if !correct {
		return 0
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	base := float64(q.BasePoints())
	bonus := math.Max(0, 1-float64(elapsedSeconds)/float64(q.TimeLimit())) * maxTimeBonus
	return int(math.Round(base * (1 + bonus)))
}

// elapsedSeconds is the whole number of seconds between start and now.
func elapsedSeconds(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
