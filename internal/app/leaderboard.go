package app

import (
	"sort"
	"time"

	"quiz-room-service/internal/domain"
)

// leaderboardLocked ranks current players by score, highest first. Equal
// scores keep join order.
func (r *Room) leaderboardLocked(now time.Time) domain.Leaderboard {
	correct := make(map[string]int, len(r.order))
	for _, event := range r.answers {
		if event.Correct {
			correct[event.PlayerID]++
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:       p.ID,
			Name:           p.Name,
			Avatar:         p.Avatar,
			Score:          r.scores[id],
			CorrectAnswers: correct[id],
		})
	}
	rankEntries(entries)

	return domain.Leaderboard{
		RoomCode:  r.code,
		Status:    r.status,
		Entries:   entries,
		UpdatedAt: now,
	}
}

func rankEntries(entries []domain.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
