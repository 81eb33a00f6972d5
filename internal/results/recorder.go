// Package results hands finished matches to the statistics service. The
// service itself lives elsewhere; this side only serializes and ships.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/sirupsen/logrus"
)

// Recorder persists or forwards one finished match.
type Recorder interface {
	Record(ctx context.Context, result models.MatchResult) error
}

// Record is the wire form of a finished match, shared by every sink.
type Record struct {
	MatchID    uuid.UUID     `json:"match_id"`
	LobbyCode  string        `json:"lobby_code"`
	CardCount  int           `json:"card_count"`
	Winner     PlayerRecord  `json:"winner"`
	Draw       bool          `json:"draw"`
	Scores     []ScoreRecord `json:"scores"`
	StartedAt  int64         `json:"started_at"`
	FinishedAt int64         `json:"finished_at"`
	DurationMS int64         `json:"duration_ms"`
}

// PlayerRecord identifies a participant. UserID is empty for guests.
type PlayerRecord struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name"`
	Guest  bool       `json:"guest"`
}

type ScoreRecord struct {
	PlayerRecord
	Points int `json:"points"`
}

func playerRecord(p models.Player) PlayerRecord {
	return PlayerRecord{UserID: p.UserID, Name: p.Name, Guest: p.Guest}
}

// NewRecord converts a match result into its wire form.
func NewRecord(r models.MatchResult) Record {
	scores := make([]ScoreRecord, len(r.Scores))
	for i, s := range r.Scores {
		scores[i] = ScoreRecord{PlayerRecord: playerRecord(s.Player), Points: s.Points}
	}
	return Record{
		MatchID:    r.MatchID,
		LobbyCode:  r.LobbyCode,
		CardCount:  r.CardCount,
		Winner:     playerRecord(r.Winner),
		Draw:       r.Draw,
		Scores:     scores,
		StartedAt:  r.StartedAt.Unix(),
		FinishedAt: r.FinishedAt.Unix(),
		DurationMS: r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}

func encode(r models.MatchResult) ([]byte, error) {
	data, err := json.Marshal(NewRecord(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match result %s: %w", r.MatchID, err)
	}
	return data, nil
}

// LogRecorder writes results to the log. Used when no sink is configured.
type LogRecorder struct {
	logger *logrus.Logger
}

func NewLogRecorder(logger *logrus.Logger) *LogRecorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogRecorder{logger: logger}
}

func (l *LogRecorder) Record(_ context.Context, r models.MatchResult) error {
	rec := NewRecord(r)
	l.logger.WithFields(logrus.Fields{
		"match":    rec.MatchID.String(),
		"lobby":    rec.LobbyCode,
		"winner":   rec.Winner.Name,
		"draw":     rec.Draw,
		"cards":    rec.CardCount,
		"duration": time.Duration(rec.DurationMS) * time.Millisecond,
	}).Info("match result recorded")
	return nil
}
