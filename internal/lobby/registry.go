// internal/lobby/registry.go
package lobby

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/identity"
	"github.com/jason-s-yu/memorama/internal/match"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
	"github.com/jason-s-yu/memorama/internal/results"
	"github.com/sirupsen/logrus"
)

// MaxChatLength caps chat messages in runes.
const MaxChatLength = 280

// recordTimeout bounds a single hand-off to the results sink.
const recordTimeout = 5 * time.Second

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,8}$`)

// NormalizeCode trims and upper-cases a lobby code and reports whether the
// result is valid.
func NormalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, codePattern.MatchString(code)
}

// Registry maps lobby codes to lobbies and sessions to the lobby they are in.
// Lock order is r.mu then Lobby.mu; neither is held while calling into a
// match engine.
type Registry struct {
	mu       sync.Mutex
	lobbies  map[string]*Lobby
	sessions map[string]string // session id -> lobby code

	notifier  *notify.Notifier
	identity  identity.Resolver
	recorder  results.Recorder
	logger    *logrus.Logger
	matchOpts []match.Option

	recording sync.WaitGroup
}

// Option customizes a Registry.
type Option func(*Registry)

func WithNotifier(n *notify.Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

func WithIdentity(res identity.Resolver) Option {
	return func(r *Registry) { r.identity = res }
}

func WithRecorder(rec results.Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMatchOptions appends options applied to every engine the registry
// builds.
func WithMatchOptions(opts ...match.Option) Option {
	return func(r *Registry) { r.matchOpts = append(r.matchOpts, opts...) }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		lobbies:  make(map[string]*Lobby),
		sessions: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logrus.StandardLogger()
	}
	if r.notifier == nil {
		r.notifier = notify.New(r.logger, notify.DefaultWorkers)
	}
	return r
}

// TryJoin adds m to the lobby with the given code, creating the lobby on
// first join. It fails for invalid codes, sessions that are already in a
// lobby, and full lobbies.
func (r *Registry) TryJoin(code string, m *Member) bool {
	code, ok := NormalizeCode(code)
	if !ok || m == nil || m.SessionID == "" {
		return false
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	log := r.logger.WithFields(logrus.Fields{"lobby": code, "session": m.SessionID})

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, in := r.sessions[m.SessionID]; in {
		log.Debug("join rejected: session already in a lobby")
		return false
	}

	lob, exists := r.lobbies[code]
	if !exists {
		lob = newLobby(code, r.notifier, func(rc notify.Recipient) { r.evict(code, rc) })
	}

	lob.mu.Lock()
	defer lob.mu.Unlock()

	if len(lob.members) >= MaxMembers {
		log.Debug("join rejected: lobby full")
		return false
	}
	lob.members = append(lob.members, m)
	if !exists {
		r.lobbies[code] = lob
		log.Info("lobby created")
	}
	r.sessions[m.SessionID] = code
	lob.broadcastRosterUnsafe(joinNotice(m.Name))

	log.WithFields(logrus.Fields{"name": m.Name, "guest": m.Guest, "members": len(lob.members)}).Info("member joined")
	return true
}

// Remove takes the session out of its lobby. The last member out destroys
// the lobby along with its match. It returns the removed member and the
// code it left, or false when the session was not registered.
func (r *Registry) Remove(sessionID string) (*Member, string, bool) {
	return r.remove(sessionID, "")
}

// remove only acts when the session is in onlyCode, unless onlyCode is empty.
func (r *Registry) remove(sessionID, onlyCode string) (*Member, string, bool) {
	r.mu.Lock()
	code, ok := r.sessions[sessionID]
	if !ok || (onlyCode != "" && code != onlyCode) {
		r.mu.Unlock()
		return nil, "", false
	}
	delete(r.sessions, sessionID)
	lob := r.lobbies[code]

	lob.mu.Lock()
	var m *Member
	if i := lob.indexUnsafe(sessionID); i >= 0 {
		m = lob.members[i]
		lob.members = append(lob.members[:i], lob.members[i+1:]...)
	}

	var engine *match.Engine
	empty := len(lob.members) == 0
	if empty {
		lob.closed = true
		engine, lob.engine = lob.engine, nil
		delete(r.lobbies, code)
	} else if m != nil {
		lob.broadcastRosterUnsafe(leaveNotice(m.Name))
	}
	remaining := len(lob.members)
	lob.mu.Unlock()
	r.mu.Unlock()

	log := r.logger.WithFields(logrus.Fields{"lobby": code, "session": sessionID})
	log.WithField("members", remaining).Info("member left")
	if empty {
		if engine != nil {
			engine.Close()
		}
		lob.outbox.Close()
		log.Info("lobby destroyed")
	}
	return m, code, m != nil
}

// evict drops a member whose push channel broke. Reports from a lobby the
// session has since left are ignored.
func (r *Registry) evict(code string, rc notify.Recipient) {
	m, _, ok := r.remove(rc.SessionID, code)
	if !ok {
		return
	}
	r.logger.WithFields(logrus.Fields{"lobby": code, "session": rc.SessionID}).Warn("evicted unreachable member")
	if m.Handle != nil {
		m.Handle.Close()
	}
}

// TryStartMatch builds a match from the caller's current lobby roster and
// starts it. It fails when the caller is not in a lobby or the lobby
// already has a live match.
func (r *Registry) TryStartMatch(sessionID string, settings match.Settings) bool {
	r.mu.Lock()
	code, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	lob := r.lobbies[code]
	lob.mu.Lock()
	r.mu.Unlock()

	if lob.closed || lob.engine != nil {
		lob.mu.Unlock()
		r.logger.WithFields(logrus.Fields{"lobby": code, "session": sessionID}).Debug("start rejected: match already exists")
		return false
	}

	players := make([]models.Player, len(lob.members))
	for i, m := range lob.members {
		players[i] = m.Player()
	}

	var engine *match.Engine
	opts := append([]match.Option{}, r.matchOpts...)
	opts = append(opts,
		match.WithLogger(r.logger),
		match.WithLobbyCode(code),
		match.WithOnFinished(func(res models.MatchResult) { r.onFinished(lob, engine, res) }),
	)
	engine = match.New(players, settings, lob, opts...)
	lob.engine = engine
	lob.mu.Unlock()

	return engine.Start()
}

// onFinished detaches a finished match so the lobby can host another one,
// then ships the result.
func (r *Registry) onFinished(lob *Lobby, engine *match.Engine, res models.MatchResult) {
	lob.mu.Lock()
	if lob.engine == engine {
		lob.engine = nil
	}
	lob.mu.Unlock()
	engine.Close()

	if r.recorder == nil {
		return
	}
	r.recording.Add(1)
	go func() {
		defer r.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.recorder.Record(ctx, res); err != nil {
			r.logger.WithFields(logrus.Fields{
				"lobby": res.LobbyCode,
				"match": res.MatchID.String(),
				"error": err,
			}).Error("failed to record match result")
		}
	}()
}

// Flip routes a card flip to the caller's match.
func (r *Registry) Flip(sessionID string, index int) bool {
	engine := r.GetMatchEngine(sessionID)
	if engine == nil {
		return false
	}
	return engine.HandleFlip(sessionID, index)
}

// SendChat trims text, drops it when empty, caps it at MaxChatLength and
// pushes it to the sender's lobby.
func (r *Registry) SendChat(sessionID, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		text = string([]rune(text)[:MaxChatLength])
	}

	lob := r.GetLobby(sessionID)
	if lob == nil {
		return false
	}
	lob.mu.Lock()
	defer lob.mu.Unlock()
	i := lob.indexUnsafe(sessionID)
	if i < 0 || lob.closed {
		return false
	}
	sender := lob.members[i].Name
	lob.outbox.Enqueue(func(h notify.ClientHandle) error { return h.ChatMessage(sender, text, false) })
	return true
}

// GetLobby returns the session's lobby, or nil.
func (r *Registry) GetLobby(sessionID string) *Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	return r.lobbies[code]
}

// GetMatchEngine returns the live match of the session's lobby, or nil.
func (r *Registry) GetMatchEngine(sessionID string) *match.Engine {
	lob := r.GetLobby(sessionID)
	if lob == nil {
		return nil
	}
	return lob.Engine()
}

// GetPlayerID returns the registered user id behind a session. It is nil
// for guests and unknown sessions.
func (r *Registry) GetPlayerID(sessionID string) *uuid.UUID {
	lob := r.GetLobby(sessionID)
	if lob == nil {
		return nil
	}
	lob.mu.Lock()
	defer lob.mu.Unlock()
	if i := lob.indexUnsafe(sessionID); i >= 0 {
		return lob.members[i].UserID
	}
	return nil
}

// Lookup returns the lobby with the given code, or nil.
func (r *Registry) Lookup(code string) *Lobby {
	code, ok := NormalizeCode(code)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lobbies[code]
}

// Count returns the number of live lobbies.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}

// Close tears down every lobby and waits for pending result hand-offs or
// ctx, whichever comes first.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	lobbies := make([]*Lobby, 0, len(r.lobbies))
	for code, lob := range r.lobbies {
		lobbies = append(lobbies, lob)
		delete(r.lobbies, code)
	}
	r.sessions = make(map[string]string)
	r.mu.Unlock()

	for _, lob := range lobbies {
		lob.mu.Lock()
		lob.closed = true
		engine := lob.engine
		lob.engine = nil
		lob.mu.Unlock()
		if engine != nil {
			engine.Close()
		}
		lob.outbox.Close()
	}

	done := make(chan struct{})
	go func() {
		r.recording.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("shutdown before all match results were recorded")
	}
}
