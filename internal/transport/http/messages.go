package http

import (
	"encoding/json"
	"time"

	"quiz-room-service/internal/domain"
)

// Inbound message types.
const (
	msgCreateRoom     = "createRoom"
	msgJoinRoom       = "joinRoom"
	msgLeaveRoom      = "leaveRoom"
	msgStartGame      = "startGame"
	msgNextQuestion   = "nextQuestion"
	msgSubmitAnswer   = "submitAnswer"
	msgGetLeaderboard = "getLeaderboard"
)

// Outbound event types.
const (
	eventRoomCreated    = "roomCreated"
	eventJoined         = "joined"
	eventPlayerJoined   = "playerJoined"
	eventPlayerLeft     = "playerLeft"
	eventQuestion       = "question"
	eventAnswerResult   = "answerResult"
	eventAnswerReceived = "answerReceived"
	eventLeaderboard    = "leaderboard"
	eventGameFinished   = "gameFinished"
	eventRoomClosed     = "roomClosed"
	eventError          = "error"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type createRoomPayload struct {
	QuizID string `json:"quizId" validate:"required,max=64"`
	Name   string `json:"name" validate:"required,max=64"`
	Avatar string `json:"avatar" validate:"omitempty,max=256"`
}

type joinRoomPayload struct {
	Code   string `json:"code" validate:"required,roomcode"`
	Name   string `json:"name" validate:"required"`
	Avatar string `json:"avatar" validate:"omitempty,max=256"`
}

type submitAnswerPayload struct {
	QuestionIndex *int          `json:"questionIndex" validate:"required,min=0"`
	Answer        domain.Answer `json:"answer"`
}

type roomCreatedPayload struct {
	Room domain.PublicRoomView `json:"room"`
}

type playerJoinedPayload struct {
	Player domain.LobbyPlayer `json:"player"`
	Count  int                `json:"count"`
}

type playerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type questionPayload struct {
	Question  domain.QuestionView `json:"question"`
	StartedAt time.Time           `json:"startedAt"`
}

type answerReceivedPayload struct {
	PlayerID      string `json:"playerId"`
	Name          string `json:"name"`
	QuestionIndex int    `json:"questionIndex"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
}

type gameFinishedPayload struct {
	Leaderboard domain.Leaderboard `json:"leaderboard"`
}

type roomClosedPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type errorPayload struct {
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}
