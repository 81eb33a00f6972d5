// internal/match/settings.go
package match

import "time"

// Bounds for match settings. Out-of-range values are clamped and invalid
// values replaced by the defaults, never rejected.
const (
	MinCardCount     = 4
	MaxCardCount     = 40
	DefaultCardCount = 16

	MinTurnSeconds     = 5
	MaxTurnSeconds     = 120
	DefaultTurnSeconds = 20
)

// RevealDelay is how long both cards of a mismatch stay face up.
const RevealDelay = time.Second

// Settings configures a match. It is frozen once the match starts.
type Settings struct {
	CardCount   int `json:"cardCount"`
	TurnSeconds int `json:"turnSeconds"`
}

// DefaultSettings returns the settings used when a host sends none.
func DefaultSettings() Settings {
	return Settings{CardCount: DefaultCardCount, TurnSeconds: DefaultTurnSeconds}
}

// Normalize returns s with every field inside its valid range.
func (s Settings) Normalize() Settings {
	switch {
	case s.CardCount <= 0 || s.CardCount%2 != 0:
		s.CardCount = DefaultCardCount
	case s.CardCount < MinCardCount:
		s.CardCount = MinCardCount
	case s.CardCount > MaxCardCount:
		s.CardCount = MaxCardCount
	}

	switch {
	case s.TurnSeconds <= 0:
		s.TurnSeconds = DefaultTurnSeconds
	case s.TurnSeconds < MinTurnSeconds:
		s.TurnSeconds = MinTurnSeconds
	case s.TurnSeconds > MaxTurnSeconds:
		s.TurnSeconds = MaxTurnSeconds
	}
	return s
}

// TurnDuration is the turn length as a duration.
func (s Settings) TurnDuration() time.Duration {
	return time.Duration(s.TurnSeconds) * time.Second
}
