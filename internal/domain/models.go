package domain

import "time"

const (
	// DefaultPoints is the base value of a question that does not set one.
	DefaultPoints = 1000
	// DefaultTimeLimitSeconds is the scoring window of a question that does not set one.
	DefaultTimeLimitSeconds = 30
)

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Option is a display choice for a question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models one quiz question. Correct holds the canonical answer
// (typically an option id or index).
type Question struct {
	ID               string   `json:"id" yaml:"id"`
	Prompt           string   `json:"prompt" yaml:"prompt"`
	Image            string   `json:"image,omitempty" yaml:"image,omitempty"`
	Options          []Option `json:"options" yaml:"options"`
	Correct          Answer   `json:"correct" yaml:"correct"`
	Points           int      `json:"points,omitempty" yaml:"points,omitempty"`                     // defaults to DefaultPoints
	TimeLimitSeconds int      `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds,omitempty"` // defaults to DefaultTimeLimitSeconds
}

// BasePoints returns the question's point value with the default applied.
func (q Question) BasePoints() int {
	if q.Points <= 0 {
		return DefaultPoints
	}
	return q.Points
}

// TimeLimit returns the question's scoring window in seconds with the default applied.
func (q Question) TimeLimit() int {
	if q.TimeLimitSeconds <= 0 {
		return DefaultTimeLimitSeconds
	}
	return q.TimeLimitSeconds
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Image     string     `json:"image,omitempty" yaml:"image,omitempty"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionView is the client-safe form of a question: no correct answer.
type QuestionView struct {
	Index            int      `json:"index"`
	Total            int      `json:"total"`
	ID               string   `json:"id"`
	Prompt           string   `json:"prompt"`
	Image            string   `json:"image,omitempty"`
	Options          []Option `json:"options"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// View redacts the question at index for delivery to players.
func (q Quiz) View(index int) (QuestionView, bool) {
	if index < 0 || index >= len(q.Questions) {
		return QuestionView{}, false
	}
	question := q.Questions[index]
	options := make([]Option, len(question.Options))
	copy(options, question.Options)
	return QuestionView{
		Index:            index,
		Total:            len(q.Questions),
		ID:               question.ID,
		Prompt:           question.Prompt,
		Image:            question.Image,
		Options:          options,
		Points:           question.BasePoints(),
		TimeLimitSeconds: question.TimeLimit(),
	}, true
}

// Profile is what a connection presents when creating or joining a room.
type Profile struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Host records the creator of a room. The host is never a scored player.
type Host struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
}

// Player is a scored participant of a room.
type Player struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"-"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// AnswerEvent is the immutable record of one scored submission.
type AnswerEvent struct {
	PlayerID       string    `json:"playerId"`
	QuestionIndex  int       `json:"questionIndex"`
	Answer         Answer    `json:"answer"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	Correct        bool      `json:"correct"`
	Points         int       `json:"points"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// DirectoryEntry binds a live connection to its room and role.
type DirectoryEntry struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId,omitempty"`
	IsHost   bool   `json:"isHost"`
}

// RoomSnapshot is a deep copy of a room's state at one point in time.
type RoomSnapshot struct {
	Code                 string         `json:"code"`
	QuizID               string         `json:"quizId"`
	Quiz                 Quiz           `json:"-"`
	Host                 Host           `json:"host"`
	Status               RoomStatus     `json:"status"`
	Players              []Player       `json:"players"` // join order
	Scores               map[string]int `json:"scores"`
	Answers              []AnswerEvent  `json:"answers"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	QuestionStartedAt    time.Time      `json:"questionStartedAt"`
	CreatedAt            time.Time      `json:"createdAt"`
	LastActivity         time.Time      `json:"lastActivity"`
}

// LobbyPlayer is the public listing of a player in a room.
type LobbyPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PublicRoomView is the redacted room view handed to joining players.
type PublicRoomView struct {
	Code          string        `json:"code"`
	QuizID        string        `json:"quizId"`
	Title         string        `json:"title"`
	Image         string        `json:"image,omitempty"`
	QuestionCount int           `json:"questionCount"`
	Status        RoomStatus    `json:"status"`
	HostName      string        `json:"hostName"`
	HostAvatar    string        `json:"hostAvatar,omitempty"`
	Players       []LobbyPlayer `json:"players"`
}

// PublicView redacts the snapshot to what players may see in the lobby.
func (s RoomSnapshot) PublicView() PublicRoomView {
	lobby := make([]LobbyPlayer, 0, len(s.Players))
	for _, p := range s.Players {
		lobby = append(lobby, LobbyPlayer{ID: p.ID, Name: p.Name, Avatar: p.Avatar})
	}
	return PublicRoomView{
		Code:          s.Code,
		QuizID:        s.QuizID,
		Title:         s.Quiz.Title,
		Image:         s.Quiz.Image,
		QuestionCount: len(s.Quiz.Questions),
		Status:        s.Status,
		HostName:      s.Host.Name,
		HostAvatar:    s.Host.Avatar,
		Players:       lobby,
	}
}

// JoinResult is returned to a connection that joined a room.
type JoinResult struct {
	PlayerID string         `json:"playerId"`
	Room     PublicRoomView `json:"room"`
}

// Departure describes the effect of a connection leaving its room.
type Departure struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`
	HostLeft bool   `json:"hostLeft"`
	// Released lists every connection unbound by a host departure.
	Released []string `json:"-"`
}

// QuestionState reports the active question after a start or advance.
type QuestionState struct {
	RoomCode      string        `json:"roomCode"`
	Finished      bool          `json:"finished"`
	QuestionIndex int           `json:"questionIndex"`
	Question      *QuestionView `json:"question,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	QuestionIndex  int    `json:"questionIndex"`
	Correct        bool   `json:"correct"`
	Points         int    `json:"points"`
	TotalScore     int    `json:"totalScore"`
	CorrectAnswer  Answer `json:"correctAnswer"`
	ElapsedSeconds int    `json:"elapsedSeconds"`

	// PlayerName feeds the host notification; players already know it.
	PlayerName string `json:"-"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	PlayerID       string `json:"playerId"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar,omitempty"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// Leaderboard captures the ordered scoreboard for a room.
type Leaderboard struct {
	RoomCode  string             `json:"roomCode"`
	Status    RoomStatus         `json:"status"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Stats is a best-effort point-in-time count over the registry.
type Stats struct {
	TotalRooms   int `json:"totalRooms"`
	TotalPlayers int `json:"totalPlayers"`
	ActiveRooms  int `json:"activeRooms"`
	Connections  int `json:"connections"`
}

// ClosedRoom reports a room removed by the idle reaper.
type ClosedRoom struct {
	Code        string   `json:"code"`
	Connections []string `json:"-"`
}
