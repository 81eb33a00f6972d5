// internal/match/engine.go
package match

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/deck"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
	"github.com/jason-s-yu/memorama/internal/turntimer"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle state of a match.
type Phase int

const (
	WaitingToStart Phase = iota
	InProgress
	Finished
)

func (p Phase) String() string {
	switch p {
	case WaitingToStart:
		return "waiting_to_start"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// TurnPhase is the per-turn sub-state while a match is in progress.
type TurnPhase int

const (
	NoCardRevealed TurnPhase = iota
	OneCardRevealed
	EvaluatingPair
)

func (p TurnPhase) String() string {
	switch p {
	case NoCardRevealed:
		return "no_card_revealed"
	case OneCardRevealed:
		return "one_card_revealed"
	case EvaluatingPair:
		return "evaluating_pair"
	}
	return "unknown"
}

// Publisher accepts pushes for ordered delivery to the lobby. Enqueue must
// not block, it is called with the engine lock held.
type Publisher interface {
	Enqueue(actions ...notify.Action)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRand sets the randomness source used for the deck and starting player.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger.WithField("match", e.ID.String())
		}
	}
}

// WithLobbyCode tags results and logs with the owning lobby.
func WithLobbyCode(code string) Option {
	return func(e *Engine) { e.lobbyCode = code }
}

// WithOnFinished registers a hook called once, outside the engine lock, when
// the board is cleared.
func WithOnFinished(fn func(models.MatchResult)) Option {
	return func(e *Engine) { e.onFinished = fn }
}

// Engine is the state machine of one match. All mutable state is guarded by
// mu; pushes are enqueued to the Publisher while the lock is held and
// delivered elsewhere.
type Engine struct {
	ID uuid.UUID

	lobbyCode    string
	settings     Settings
	players      []models.Player
	turnDuration time.Duration
	revealDelay  time.Duration

	mu           sync.Mutex
	phase        Phase
	cards        []models.Card
	scores       []int
	current      int
	revealed     int
	evaluating   bool
	matchedPairs int
	winner       int
	draw         bool
	startedAt    time.Time
	closed       bool

	// pending resolves a mismatch after revealDelay; pendingSeq retires
	// callbacks that lost the race with Close.
	pending    *time.Timer
	pendingSeq uint64

	timer      *turntimer.Timer
	rng        *rand.Rand
	out        Publisher
	log        *logrus.Entry
	onFinished func(models.MatchResult)
}

// New builds an engine for a frozen roster. Settings are normalized here.
func New(players []models.Player, settings Settings, out Publisher, opts ...Option) *Engine {
	settings = settings.Normalize()
	e := &Engine{
		ID:           uuid.New(),
		settings:     settings,
		players:      append([]models.Player(nil), players...),
		turnDuration: settings.TurnDuration(),
		revealDelay:  RevealDelay,
		revealed:     -1,
		winner:       -1,
		out:          out,
	}
	e.log = logrus.StandardLogger().WithField("match", e.ID.String())
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.lobbyCode != "" {
		e.log = e.log.WithField("lobby", e.lobbyCode)
	}
	e.timer = turntimer.New(e.onTimeout)
	return e
}

// Settings returns the normalized settings the match runs with.
func (e *Engine) Settings() Settings { return e.settings }

// Players returns the roster captured at construction.
func (e *Engine) Players() []models.Player {
	return append([]models.Player(nil), e.players...)
}

// Start deals the board and begins the first turn. Only the first call has
// any effect; it reports whether the match was started.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.phase != WaitingToStart || len(e.players) == 0 {
		return false
	}

	e.cards = deck.Generate(e.settings.CardCount, e.rng)
	e.scores = make([]int, len(e.players))
	e.current = e.rng.Intn(len(e.players))
	e.revealed = -1
	e.phase = InProgress
	e.startedAt = time.Now()

	board := e.boardLocked()
	e.publish(func(h notify.ClientHandle) error { return h.MatchStarted(board) })
	for _, p := range e.players {
		e.publish(func(h notify.ClientHandle) error { return h.ScoreChanged(p, 0) })
	}

	e.log.WithFields(logrus.Fields{
		"players": len(e.players),
		"cards":   e.settings.CardCount,
		"turnSec": e.settings.TurnSeconds,
	}).Info("match started")

	e.beginTurnLocked()
	return true
}

// HandleFlip turns over a card for playerID. Requests that are out of turn,
// out of range, on a matched card, on the already revealed card, or arrive
// while a pair is being evaluated are ignored. It reports whether the flip
// was accepted.
func (e *Engine) HandleFlip(playerID string, index int) bool {
	e.mu.Lock()
	result, accepted := e.flipLocked(playerID, index)
	e.mu.Unlock()

	if result != nil && e.onFinished != nil {
		e.onFinished(*result)
	}
	return accepted
}

func (e *Engine) flipLocked(playerID string, index int) (*models.MatchResult, bool) {
	if e.closed || e.phase != InProgress || e.evaluating {
		return nil, false
	}
	if e.players[e.current].ID != playerID {
		e.log.WithField("player", playerID).Debug("flip out of turn ignored")
		return nil, false
	}
	if index < 0 || index >= len(e.cards) || e.cards[index].Matched || index == e.revealed {
		e.log.WithFields(logrus.Fields{"player": playerID, "index": index}).Debug("flip on unavailable card ignored")
		return nil, false
	}

	face := e.cards[index].FaceID
	e.publish(func(h notify.ClientHandle) error { return h.CardRevealed(index, face) })

	if e.revealed < 0 {
		e.revealed = index
		return nil, true
	}

	first := e.revealed
	e.revealed = -1
	e.evaluating = true
	e.timer.Stop()

	if e.cards[first].PairID != e.cards[index].PairID {
		e.scheduleMismatchLocked(first, index)
		return nil, true
	}

	e.cards[first].Matched = true
	e.cards[index].Matched = true
	e.matchedPairs++
	e.scores[e.current]++

	player, score := e.players[e.current], e.scores[e.current]
	e.publish(
		func(h notify.ClientHandle) error { return h.CardsMatched(first, index) },
		func(h notify.ClientHandle) error { return h.ScoreChanged(player, score) },
	)
	e.evaluating = false

	if e.matchedPairs*2 == len(e.cards) {
		return e.finishLocked(), true
	}
	// a match keeps the turn
	e.beginTurnLocked()
	return nil, true
}

func (e *Engine) scheduleMismatchLocked(first, second int) {
	e.pendingSeq++
	seq := e.pendingSeq
	e.pending = time.AfterFunc(e.revealDelay, func() {
		e.resolveMismatch(seq, first, second)
	})
}

func (e *Engine) resolveMismatch(seq uint64, first, second int) {
	defer e.recoverCallback("mismatch resolution")
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.phase != InProgress || !e.evaluating || seq != e.pendingSeq {
		return
	}
	e.pending = nil
	e.publish(func(h notify.ClientHandle) error { return h.CardsHidden(first, second) })
	e.advanceLocked()
	e.beginTurnLocked()
}

// onTimeout runs on the timer goroutine.
func (e *Engine) onTimeout(gen uint64) {
	defer e.recoverCallback("turn timer")
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.phase != InProgress || !e.timer.Current(gen) {
		return
	}
	// the evaluation finishes the turn itself
	if e.evaluating {
		return
	}

	if idx := e.revealed; idx >= 0 {
		e.publish(func(h notify.ClientHandle) error { return h.CardsHidden(idx, idx) })
		e.revealed = -1
	}
	e.log.WithField("player", e.players[e.current].ID).Debug("turn timed out")
	e.advanceLocked()
	e.beginTurnLocked()
}

func (e *Engine) recoverCallback(where string) {
	if r := recover(); r != nil {
		e.log.WithFields(logrus.Fields{"panic": r, "where": where}).Error("recovered from panic in match callback")
	}
}

// advanceLocked passes the turn to the next player in roster order.
func (e *Engine) advanceLocked() {
	e.current = (e.current + 1) % len(e.players)
}

func (e *Engine) beginTurnLocked() {
	e.revealed = -1
	e.evaluating = false
	player, secs := e.players[e.current], e.settings.TurnSeconds
	e.publish(func(h notify.ClientHandle) error { return h.TurnChanged(player, secs) })
	e.timer.Start(e.turnDuration)
}

// finishLocked ends the match. Ties go to the first max scorer in roster
// order and are flagged as a draw.
func (e *Engine) finishLocked() *models.MatchResult {
	e.phase = Finished
	e.timer.Dispose()

	best := 0
	for i, s := range e.scores {
		if s > e.scores[best] {
			best = i
		}
	}
	tied := 0
	for _, s := range e.scores {
		if s == e.scores[best] {
			tied++
		}
	}
	e.winner = best
	e.draw = tied > 1

	winner, draw, scores := e.players[best], e.draw, e.scoreListLocked()
	e.publish(func(h notify.ClientHandle) error { return h.MatchFinished(winner, draw, scores) })

	e.log.WithFields(logrus.Fields{
		"winner": winner.ID,
		"draw":   draw,
	}).Info("match finished")

	return &models.MatchResult{
		MatchID:    e.ID,
		LobbyCode:  e.lobbyCode,
		Players:    append([]models.Player(nil), e.players...),
		Scores:     scores,
		Winner:     winner,
		Draw:       draw,
		CardCount:  len(e.cards),
		StartedAt:  e.startedAt,
		FinishedAt: time.Now(),
	}
}

// Close tears the match down: the timer is disposed and a pending mismatch
// resolution is cancelled. Later calls into the engine are no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.timer.Dispose()
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.pendingSeq++
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) publish(actions ...notify.Action) {
	if e.out != nil {
		e.out.Enqueue(actions...)
	}
}

func (e *Engine) boardLocked() []models.BoardSlot {
	board := make([]models.BoardSlot, len(e.cards))
	for i, c := range e.cards {
		board[i] = models.BoardSlot{Position: c.Position, Matched: c.Matched}
	}
	return board
}

func (e *Engine) scoreListLocked() []models.Score {
	scores := make([]models.Score, len(e.players))
	for i, p := range e.players {
		scores[i] = models.Score{Player: p, Points: e.scores[i]}
	}
	return scores
}
