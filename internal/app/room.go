package app

import (
	"strings"
	"sync"
	"time"

	"quiz-room-service/internal/domain"
)

// Room is one live game session.
//
// The quiz snapshot, code and host are fixed at construction and read
// without locking. Everything else is guarded by mu; a room is closed under
// mu before it leaves the store so late joins cannot bind to it.
type Room struct {
	code      string
	quizID    string
	quiz      domain.Quiz
	host      domain.Host
	createdAt time.Time

	mu                sync.RWMutex
	closed            bool
	status            domain.RoomStatus
	players           map[string]*domain.Player
	order             []string // player ids in join order
	scores            map[string]int
	answers           map[answerKey]domain.AnswerEvent
	answerLog         []answerKey
	current           int
	questionStartedAt time.Time
	lastActivity      time.Time
}

type answerKey struct {
	playerID string
	question int
}

// NewRoom builds a waiting room. The quiz is deep-copied so later edits to
// the source never reach a running game.
func NewRoom(code, quizID string, quiz domain.Quiz, host domain.Host, now time.Time) *Room {
	return &Room{
		code:         code,
		quizID:       quizID,
		quiz:         cloneQuiz(quiz),
		host:         host,
		createdAt:    now,
		status:       domain.StatusWaiting,
		players:      make(map[string]*domain.Player),
		scores:       make(map[string]int),
		answers:      make(map[answerKey]domain.AnswerEvent),
		current:      -1,
		lastActivity: now,
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Host() domain.Host {
	return r.host
}

// Snapshot returns a deep copy of the room state.
func (r *Room) Snapshot() domain.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() domain.RoomSnapshot {
	players := make([]domain.Player, 0, len(r.order))
	scores := make(map[string]int, len(r.scores))
	for _, id := range r.order {
		players = append(players, *r.players[id])
		scores[id] = r.scores[id]
	}
	answers := make([]domain.AnswerEvent, 0, len(r.answerLog))
	for _, key := range r.answerLog {
		answers = append(answers, r.answers[key])
	}
	return domain.RoomSnapshot{
		Code:                 r.code,
		QuizID:               r.quizID,
		Quiz:                 r.quiz,
		Host:                 r.host,
		Status:               r.status,
		Players:              players,
		Scores:               scores,
		Answers:              answers,
		CurrentQuestionIndex: r.current,
		QuestionStartedAt:    r.questionStartedAt,
		CreatedAt:            r.createdAt,
		LastActivity:         r.lastActivity,
	}
}

func (r *Room) publicViewLocked() domain.PublicRoomView {
	return r.snapshotLocked().PublicView()
}

func (r *Room) nameTakenLocked(name string) bool {
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *Room) addPlayerLocked(player *domain.Player) {
	r.players[player.ID] = player
	r.order = append(r.order, player.ID)
	r.scores[player.ID] = 0
}

// removePlayerLocked drops the player and its score. Answers stay so the
// recorded history of the game is unchanged.
func (r *Room) removePlayerLocked(playerID string) {
	delete(r.players, playerID)
	delete(r.scores, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// connectionsLocked lists the host connection followed by every player's.
func (r *Room) connectionsLocked() []string {
	conns := make([]string, 0, len(r.order)+1)
	conns = append(conns, r.host.ConnectionID)
	for _, id := range r.order {
		conns = append(conns, r.players[id].ConnectionID)
	}
	return conns
}

// activateLocked makes the question at index current, stamping its start
// time, or finishes the room once the quiz is exhausted.
func (r *Room) activateLocked(index int, now time.Time) domain.QuestionState {
	r.current = index
	r.questionStartedAt = now
	r.lastActivity = now
	if r.current >= len(r.quiz.Questions) {
		r.status = domain.StatusFinished
	}
	return r.questionStateLocked()
}

func (r *Room) questionStateLocked() domain.QuestionState {
	state := domain.QuestionState{
		RoomCode:      r.code,
		Finished:      r.status == domain.StatusFinished,
		QuestionIndex: r.current,
		StartedAt:     r.questionStartedAt,
	}
	if !state.Finished {
		if view, ok := r.quiz.View(r.current); ok {
			state.Question = &view
		}
	}
	return state
}

func cloneQuiz(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		options := make([]domain.Option, len(q.Options))
		copy(options, q.Options)
		q.Options = options
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}
