// internal/lobby/member.go
package lobby

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
)

// Member is one connected participant. SessionID is tied to the transport
// connection; UserID is nil for guests.
type Member struct {
	SessionID string
	UserID    *uuid.UUID
	Name      string
	Guest     bool
	JoinedAt  time.Time
	Handle    notify.ClientHandle
}

// Player is the member as seen by a match. The session id doubles as the
// in-match player id so guests can play too.
func (m *Member) Player() models.Player {
	return models.Player{
		ID:     m.SessionID,
		Name:   m.Name,
		UserID: m.UserID,
		Guest:  m.Guest,
	}
}
