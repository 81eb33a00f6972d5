package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult is handed to the statistics collaborator once a match finishes.
type MatchResult struct {
	MatchID    uuid.UUID `json:"matchId"`
	LobbyCode  string    `json:"lobbyCode"`
	Players    []Player  `json:"players"`
	Scores     []Score   `json:"scores"`
	Winner     Player    `json:"winner"`
	Draw       bool      `json:"draw"`
	CardCount  int       `json:"cardCount"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
