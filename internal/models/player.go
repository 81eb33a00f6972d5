package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a participant in a match. ID is the session-scoped participant
// id; UserID is nil for guests.
type Player struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	UserID *uuid.UUID `json:"userId,omitempty"`
	Guest  bool       `json:"guest"`
}

// RosterEntry is one line of the lobby roster pushed to clients.
type RosterEntry struct {
	Player
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Score pairs a player with their points.
type Score struct {
	Player Player `json:"player"`
	Points int    `json:"points"`
}
