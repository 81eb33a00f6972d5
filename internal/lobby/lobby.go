// internal/lobby/lobby.go
package lobby

import (
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/memorama/internal/match"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
)

// MaxMembers is the lobby capacity.
const MaxMembers = 4

// Lobby is a waiting room identified by a short code. Members are kept in
// join order; the first one is the host.
type Lobby struct {
	Code      string
	CreatedAt time.Time

	mu      sync.Mutex
	members []*Member
	engine  *match.Engine
	closed  bool

	outbox *notify.Outbox
}

func newLobby(code string, n *notify.Notifier, onUnreachable func(notify.Recipient)) *Lobby {
	l := &Lobby{
		Code:      code,
		CreatedAt: time.Now(),
	}
	l.outbox = notify.NewOutbox(n, l.recipients, onUnreachable)
	return l
}

// Enqueue queues pushes for every current member, in order. It satisfies
// match.Publisher so the engine publishes straight into the lobby.
func (l *Lobby) Enqueue(actions ...notify.Action) {
	l.outbox.Enqueue(actions...)
}

// Flush waits until every queued push has been delivered.
func (l *Lobby) Flush() {
	l.outbox.Flush()
}

func (l *Lobby) recipients() []notify.Recipient {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]notify.Recipient, len(l.members))
	for i, m := range l.members {
		out[i] = notify.Recipient{SessionID: m.SessionID, Handle: m.Handle}
	}
	return out
}

// Roster returns the members in join order with the host flagged.
func (l *Lobby) Roster() []models.RosterEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rosterUnsafe()
}

func (l *Lobby) rosterUnsafe() []models.RosterEntry {
	roster := make([]models.RosterEntry, len(l.members))
	for i, m := range l.members {
		roster[i] = models.RosterEntry{Player: m.Player(), IsHost: i == 0, JoinedAt: m.JoinedAt}
	}
	return roster
}

// Size returns the member count.
func (l *Lobby) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

// Engine returns the live match, or nil.
func (l *Lobby) Engine() *match.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine
}

// Closed reports whether the lobby was torn down.
func (l *Lobby) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Lobby) indexUnsafe(sessionID string) int {
	for i, m := range l.members {
		if m.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// broadcastRosterUnsafe queues the roster followed by a system notice.
// Assumes the lock is held.
func (l *Lobby) broadcastRosterUnsafe(notice string) {
	roster := l.rosterUnsafe()
	l.outbox.Enqueue(
		func(h notify.ClientHandle) error { return h.RosterUpdated(roster) },
		func(h notify.ClientHandle) error { return h.ChatMessage("", notice, true) },
	)
}

func joinNotice(name string) string  { return fmt.Sprintf("%s joined the lobby", name) }
func leaveNotice(name string) string { return fmt.Sprintf("%s left the lobby", name) }
