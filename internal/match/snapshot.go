package match

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/models"
)

// State is an immutable copy of an engine's state.
type State struct {
	ID            uuid.UUID
	Phase         Phase
	Turn          TurnPhase
	Settings      Settings
	Players       []models.Player
	CurrentPlayer models.Player
	Scores        map[string]int
	Cards         []models.Card
	Revealed      int // -1 when no card is face up
	Evaluating    bool
	Winner        *models.Player
	Draw          bool
	Closed        bool
}

// Snapshot copies the current state under the engine lock.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		ID:         e.ID,
		Phase:      e.phase,
		Turn:       e.turnPhaseLocked(),
		Settings:   e.settings,
		Players:    append([]models.Player(nil), e.players...),
		Scores:     make(map[string]int, len(e.players)),
		Cards:      append([]models.Card(nil), e.cards...),
		Revealed:   e.revealed,
		Evaluating: e.evaluating,
		Draw:       e.draw,
		Closed:     e.closed,
	}
	if e.phase != WaitingToStart {
		st.CurrentPlayer = e.players[e.current]
		for i, p := range e.players {
			st.Scores[p.ID] = e.scores[i]
		}
	}
	if e.winner >= 0 {
		w := e.players[e.winner]
		st.Winner = &w
	}
	return st
}

func (e *Engine) turnPhaseLocked() TurnPhase {
	switch {
	case e.evaluating:
		return EvaluatingPair
	case e.revealed >= 0:
		return OneCardRevealed
	}
	return NoCardRevealed
}
