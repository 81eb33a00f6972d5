// internal/lobby/service.go
package lobby

import (
	"context"
	"time"

	"github.com/jason-s-yu/memorama/internal/identity"
	"github.com/jason-s-yu/memorama/internal/notify"
	"github.com/sirupsen/logrus"
)

// JoinRequest is what a client sends to enter a lobby.
type JoinRequest struct {
	Token     string `json:"token"`
	Code      string `json:"code"`
	Guest     bool   `json:"guest"`
	GuestName string `json:"guestName,omitempty"`
}

// Join resolves the caller's identity and adds them to the requested lobby.
// Registered users need a token that resolves to a user with a display
// name; guests only need a session. Any failure is reported as false.
func (r *Registry) Join(ctx context.Context, req JoinRequest, sessionID string, handle notify.ClientHandle) bool {
	log := r.logger.WithFields(logrus.Fields{"session": sessionID, "lobby": req.Code})

	if _, ok := NormalizeCode(req.Code); !ok {
		log.Debug("join rejected: invalid code")
		return false
	}

	m := &Member{
		SessionID: sessionID,
		Guest:     req.Guest,
		JoinedAt:  time.Now(),
		Handle:    handle,
	}

	if req.Guest {
		m.Name = identity.GuestName(req.GuestName, sessionID)
	} else {
		if r.identity == nil {
			log.Warn("join rejected: no identity resolver configured")
			return false
		}
		userID, err := r.identity.ResolveUserID(ctx, req.Token)
		if err != nil {
			log.WithField("error", err).Info("join rejected: token not resolved")
			return false
		}
		name, err := r.identity.ResolveDisplayName(ctx, userID)
		if err != nil {
			log.WithFields(logrus.Fields{"user": userID.String(), "error": err}).Info("join rejected: display name not resolved")
			return false
		}
		m.UserID = &userID
		m.Name = name
	}

	return r.TryJoin(req.Code, m)
}
