package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no active room has the given code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrGameAlreadyStarted is returned when a room has left the waiting state.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrNoPlayers is returned when a game is started with an empty lobby.
	ErrNoPlayers = errors.New("room has no players")
	// ErrNameTaken is returned when a display name is already used in the room.
	ErrNameTaken = errors.New("name already taken in room")
	// ErrInvalidName indicates an empty or oversized display name.
	ErrInvalidName = errors.New("invalid player name")
	// ErrNotPlaying is returned when an action requires a game in progress.
	ErrNotPlaying = errors.New("game is not in progress")
	// ErrWrongQuestion is returned for submissions against a stale or future question.
	ErrWrongQuestion = errors.New("question is not the active question")
	// ErrAlreadyAnswered is returned when a player resubmits for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted for this question")
	// ErrInvalidAnswer indicates an empty or oversized answer.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrPlayerNotFound is returned when the player is not part of the room.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrAlreadyInRoom is returned when a connection is already bound to a room.
	ErrAlreadyInRoom = errors.New("connection already bound to a room")
	// ErrCapacityExceeded is returned when no free room code could be allocated.
	ErrCapacityExceeded = errors.New("room capacity exceeded")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)
