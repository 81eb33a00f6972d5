// internal/notify/client.go
package notify

import (
	"errors"

	"github.com/jason-s-yu/memorama/internal/models"
)

// ErrUnreachable is returned by a ClientHandle whose push channel is broken.
var ErrUnreachable = errors.New("notify: client unreachable")

// ClientHandle is the server-push capability of one connected client. Each
// method delivers one event and returns an error when the push channel is
// broken. Implementations must not block for long; the transport adapter
// owns buffering.
type ClientHandle interface {
	ChatMessage(sender, text string, isSystemNotice bool) error
	RosterUpdated(members []models.RosterEntry) error
	MatchStarted(board []models.BoardSlot) error
	TurnChanged(player models.Player, turnSeconds int) error
	CardRevealed(index int, faceID string) error
	CardsHidden(first, second int) error
	CardsMatched(first, second int) error
	ScoreChanged(player models.Player, score int) error
	MatchFinished(winner models.Player, draw bool, scores []models.Score) error

	// Close releases the transport. Called once the member is evicted.
	Close()
}

// Recipient is a client handle addressed by the session that owns it.
type Recipient struct {
	SessionID string
	Handle    ClientHandle
}

// Action delivers one event to one client.
type Action func(ClientHandle) error
