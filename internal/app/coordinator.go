package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/idgen"
)

// maxCodeAttempts bounds room code generation before giving up.
const maxCodeAttempts = 16

// RoomStore abstracts where active rooms are held (in-memory, Redis-aware, etc).
type RoomStore interface {
	// Add inserts room unless its code is taken and reports whether it did.
	Add(room *Room) bool
	Get(code string) (*Room, bool)
	Delete(code string)
	Len() int
	List() []*Room
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Coordinator owns every active room and the player directory. All room
// mutation passes through it. Operations never block on I/O other than the
// injected RoomStore.
type Coordinator struct {
	rooms       RoomStore
	directory   *Directory
	logger      *slog.Logger
	now         func() time.Time
	newCode     func() (string, error)
	newPlayerID func() string
	maxRooms    int
}

type Option func(*Coordinator)

// WithClock replaces time.Now; used for deterministic scoring in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMaxRooms caps the number of concurrently active rooms. Zero keeps the
// default of half the code space.
func WithMaxRooms(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxRooms = n
		}
	}
}

// WithCodeGenerator replaces the room code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(c *Coordinator) { c.newCode = gen }
}

func NewCoordinator(rooms RoomStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		rooms:       rooms,
		directory:   NewDirectory(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		newCode:     idgen.NewRoomCode,
		newPlayerID: idgen.NewPlayerID,
		maxRooms:    int(idgen.CodeSpace / 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoom allocates a code and opens a waiting room hosted by hostConnID.
func (c *Coordinator) CreateRoom(hostConnID string, profile domain.Profile, quizID string, quiz domain.Quiz) (domain.RoomSnapshot, error) {
	if _, bound := c.directory.Lookup(hostConnID); bound {
		return domain.RoomSnapshot{}, domain.ErrAlreadyInRoom
	}
	name, err := validateName(profile.Name)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if c.rooms.Len() >= c.maxRooms {
		return domain.RoomSnapshot{}, domain.ErrCapacityExceeded
	}

	host := domain.Host{
		ConnectionID: hostConnID,
		UserID:       profile.UserID,
		Name:         name,
		Avatar:       profile.Avatar,
	}
	now := c.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return domain.RoomSnapshot{}, fmt.Errorf("generate room code: %w", err)
		}
		room := NewRoom(code, quizID, quiz, host, now)
		if !c.rooms.Add(room) {
			continue
		}
		if !c.directory.Bind(hostConnID, domain.DirectoryEntry{RoomCode: code, IsHost: true}) {
			c.CloseRoom(code)
			return domain.RoomSnapshot{}, domain.ErrAlreadyInRoom
		}
		c.logger.Info("room created",
			"room", code,
			"quiz", quizID,
			"host", host.UserID,
			"questions", len(quiz.Questions))
		return room.Snapshot(), nil
	}
	c.logger.Warn("room code space exhausted", "attempts", maxCodeAttempts, "rooms", c.rooms.Len())
	return domain.RoomSnapshot{}, domain.ErrCapacityExceeded
}

// JoinRoom admits connID to a waiting room under a case-insensitively unique name.
func (c *Coordinator) JoinRoom(code, connID string, profile domain.Profile) (domain.JoinResult, error) {
	name, err := validateName(profile.Name)
	if err != nil {
		return domain.JoinResult{}, err
	}
	room, ok := c.rooms.Get(code)
	if !ok {
		return domain.JoinResult{}, domain.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.closed {
		return domain.JoinResult{}, domain.ErrRoomNotFound
	}
	if room.status != domain.StatusWaiting {
		return domain.JoinResult{}, domain.ErrGameAlreadyStarted
	}
	if room.nameTakenLocked(name) {
		return domain.JoinResult{}, domain.ErrNameTaken
	}

	now := c.now()
	player := &domain.Player{
		ID:           c.newPlayerID(),
		ConnectionID: connID,
		Name:         name,
		Avatar:       profile.Avatar,
		JoinedAt:     now,
	}
	if !c.directory.Bind(connID, domain.DirectoryEntry{RoomCode: code, PlayerID: player.ID}) {
		return domain.JoinResult{}, domain.ErrAlreadyInRoom
	}
	room.addPlayerLocked(player)
	room.lastActivity = now

	c.logger.Info("player joined", "room", code, "player", player.ID, "name", name)
	return domain.JoinResult{PlayerID: player.ID, Room: room.publicViewLocked()}, nil
}

// LeaveRoom resolves connID through the directory. A host departure closes
// the whole room. Unknown connections report false.
func (c *Coordinator) LeaveRoom(connID string) (domain.Departure, bool) {
	entry, ok := c.directory.Lookup(connID)
	if !ok {
		return domain.Departure{}, false
	}
	if entry.IsHost {
		released := c.CloseRoom(entry.RoomCode)
		c.logger.Info("host left", "room", entry.RoomCode)
		return domain.Departure{RoomCode: entry.RoomCode, HostLeft: true, Released: released}, true
	}

	departure := domain.Departure{RoomCode: entry.RoomCode, PlayerID: entry.PlayerID}
	room, ok := c.rooms.Get(entry.RoomCode)
	if !ok {
		c.directory.UnbindRoom(connID, entry.RoomCode)
		return departure, true
	}

	room.mu.Lock()
	if player, ok := room.players[entry.PlayerID]; ok && player.ConnectionID == connID {
		departure.Name = player.Name
		room.removePlayerLocked(player.ID)
		room.lastActivity = c.now()
	}
	c.directory.UnbindRoom(connID, entry.RoomCode)
	room.mu.Unlock()

	c.logger.Info("player left", "room", entry.RoomCode, "player", entry.PlayerID)
	return departure, true
}

// CloseRoom removes the room and every directory entry pointing at it and
// returns the connections that were bound. Closing an absent room does nothing.
func (c *Coordinator) CloseRoom(code string) []string {
	room, ok := c.rooms.Get(code)
	if !ok {
		return nil
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil
	}
	room.closed = true
	conns := room.connectionsLocked()
	released := conns[:0]
	for _, conn := range conns {
		if c.directory.UnbindRoom(conn, code) {
			released = append(released, conn)
		}
	}
	room.mu.Unlock()

	c.rooms.Delete(code)
	c.logger.Info("room closed", "room", code, "connections", len(released))
	return released
}

func (c *Coordinator) RoomExists(code string) bool {
	_, ok := c.GetRoom(code)
	return ok
}

func (c *Coordinator) GetRoom(code string) (domain.RoomSnapshot, bool) {
	room, ok := c.rooms.Get(code)
	if !ok {
		return domain.RoomSnapshot{}, false
	}
	room.mu.RLock()
	defer room.mu.RUnlock()
	if room.closed {
		return domain.RoomSnapshot{}, false
	}
	return room.snapshotLocked(), true
}

// RoomHost returns the host of an open room without copying its state.
func (c *Coordinator) RoomHost(code string) (domain.Host, bool) {
	room, ok := c.rooms.Get(code)
	if !ok {
		return domain.Host{}, false
	}
	return room.Host(), true
}

func (c *Coordinator) GetPlayerDirectoryEntry(connID string) (domain.DirectoryEntry, bool) {
	return c.directory.Lookup(connID)
}

// StartGame moves a waiting room with at least one player to its first question.
func (c *Coordinator) StartGame(code string) (domain.QuestionState, error) {
	room, err := c.lockRoom(code)
	if err != nil {
		return domain.QuestionState{}, err
	}
	defer room.mu.Unlock()

	if room.status != domain.StatusWaiting {
		return domain.QuestionState{}, domain.ErrGameAlreadyStarted
	}
	if len(room.players) == 0 {
		return domain.QuestionState{}, domain.ErrNoPlayers
	}
	room.status = domain.StatusPlaying
	state := room.activateLocked(0, c.now())
	c.logger.Info("game started", "room", code, "players", len(room.players))
	return state, nil
}

// AdvanceQuestion activates the next question, finishing the room once the
// quiz is exhausted. Host authorization is the caller's responsibility.
func (c *Coordinator) AdvanceQuestion(code string) (domain.QuestionState, error) {
	room, err := c.lockRoom(code)
	if err != nil {
		return domain.QuestionState{}, err
	}
	defer room.mu.Unlock()

	switch room.status {
	case domain.StatusWaiting:
		return domain.QuestionState{}, domain.ErrNotPlaying
	case domain.StatusFinished:
		return room.questionStateLocked(), nil
	}
	state := room.activateLocked(room.current+1, c.now())
	if state.Finished {
		c.logger.Info("game finished", "room", code)
	}
	return state, nil
}

// SubmitAnswer scores playerID's answer to the active question. Only the
// first submission per question counts.
func (c *Coordinator) SubmitAnswer(code, playerID string, questionIndex int, answer domain.Answer) (domain.AnswerResult, error) {
	room, err := c.lockRoom(code)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	defer room.mu.Unlock()

	if room.status != domain.StatusPlaying {
		return domain.AnswerResult{}, domain.ErrNotPlaying
	}
	if questionIndex != room.current {
		return domain.AnswerResult{}, domain.ErrWrongQuestion
	}
	player, ok := room.players[playerID]
	if !ok {
		return domain.AnswerResult{}, domain.ErrPlayerNotFound
	}
	normalized, err := validateAnswer(answer)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	key := answerKey{playerID: playerID, question: questionIndex}
	if _, dup := room.answers[key]; dup {
		return domain.AnswerResult{}, domain.ErrAlreadyAnswered
	}

	now := c.now()
	question := room.quiz.Questions[questionIndex]
	elapsed := elapsedSeconds(room.questionStartedAt, now)
	correct := question.Correct.Matches(normalized)
	points := ScoreAnswer(question, correct, elapsed)

	room.scores[playerID] += points
	room.answers[key] = domain.AnswerEvent{
		PlayerID:       playerID,
		QuestionIndex:  questionIndex,
		Answer:         normalized,
		ElapsedSeconds: elapsed,
		Correct:        correct,
		Points:         points,
		SubmittedAt:    now,
	}
	room.answerLog = append(room.answerLog, key)
	room.lastActivity = now

	c.logger.Debug("answer scored",
		"room", code,
		"player", playerID,
		"question", questionIndex,
		"correct", correct,
		"points", points,
		"elapsed", elapsed)
	return domain.AnswerResult{
		QuestionIndex:  questionIndex,
		Correct:        correct,
		Points:         points,
		TotalScore:     room.scores[playerID],
		CorrectAnswer:  question.Correct,
		ElapsedSeconds: elapsed,
		PlayerName:     player.Name,
	}, nil
}

// GetLeaderboard is a read-only projection, valid in every room state.
func (c *Coordinator) GetLeaderboard(code string) (domain.Leaderboard, error) {
	room, ok := c.rooms.Get(code)
	if !ok {
		return domain.Leaderboard{}, domain.ErrRoomNotFound
	}
	room.mu.RLock()
	defer room.mu.RUnlock()
	if room.closed {
		return domain.Leaderboard{}, domain.ErrRoomNotFound
	}
	return room.leaderboardLocked(c.now()), nil
}

// GetStats is a best-effort snapshot; rooms are counted one lock at a time.
func (c *Coordinator) GetStats() domain.Stats {
	stats := domain.Stats{Connections: c.directory.Len()}
	for _, room := range c.rooms.List() {
		room.mu.RLock()
		if !room.closed {
			stats.TotalRooms++
			stats.TotalPlayers += len(room.players)
			if room.status == domain.StatusPlaying {
				stats.ActiveRooms++
			}
		}
		room.mu.RUnlock()
	}
	return stats
}

// ExpireIdle closes rooms with no activity for at least maxIdle.
func (c *Coordinator) ExpireIdle(maxIdle time.Duration) []domain.ClosedRoom {
	now := c.now()
	var closed []domain.ClosedRoom
	for _, room := range c.rooms.List() {
		room.mu.RLock()
		idle := !room.closed && now.Sub(room.lastActivity) >= maxIdle
		room.mu.RUnlock()
		if !idle {
			continue
		}
		conns := c.CloseRoom(room.code)
		if conns == nil {
			continue
		}
		closed = append(closed, domain.ClosedRoom{Code: room.code, Connections: conns})
		c.logger.Info("idle room expired", "room", room.code, "idle_for", maxIdle)
	}
	return closed
}

// lockRoom returns the open room locked for writing.
func (c *Coordinator) lockRoom(code string) (*Room, error) {
	room, ok := c.rooms.Get(code)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}
