// internal/handlers/client.go
package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
)

// wsClient is the push handle of one websocket connection. Pushes go onto
// a buffered channel drained by the write pump; a full or closed channel
// is reported as notify.ErrUnreachable.
type wsClient struct {
	sessionID string
	out       chan map[string]interface{}
	cancel    context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newWSClient(sessionID string, buffer int, cancel context.CancelFunc) *wsClient {
	return &wsClient{
		sessionID: sessionID,
		out:       make(chan map[string]interface{}, buffer),
		cancel:    cancel,
	}
}

// Write pushes a message onto the out channel without blocking.
func (c *wsClient) Write(msg map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("session %s closed: %w", c.sessionID, notify.ErrUnreachable)
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return fmt.Errorf("session %s out channel full, dropped %v: %w", c.sessionID, msg["type"], notify.ErrUnreachable)
	}
}

// WriteError is a convenience to send an error object.
func (c *wsClient) WriteError(msg string) {
	_ = c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// Close stops the connection. Safe to call more than once.
func (c *wsClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *wsClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *wsClient) ChatMessage(sender, text string, isSystemNotice bool) error {
	return c.Write(map[string]interface{}{
		"type":   "chat_message",
		"sender": sender,
		"text":   text,
		"system": isSystemNotice,
	})
}

func (c *wsClient) RosterUpdated(members []models.RosterEntry) error {
	return c.Write(map[string]interface{}{"type": "roster_updated", "members": members})
}

func (c *wsClient) MatchStarted(board []models.BoardSlot) error {
	return c.Write(map[string]interface{}{"type": "match_started", "board": board})
}

func (c *wsClient) TurnChanged(player models.Player, turnSeconds int) error {
	return c.Write(map[string]interface{}{
		"type":        "turn_changed",
		"player":      player,
		"turnSeconds": turnSeconds,
	})
}

func (c *wsClient) CardRevealed(index int, faceID string) error {
	return c.Write(map[string]interface{}{"type": "card_revealed", "index": index, "faceId": faceID})
}

func (c *wsClient) CardsHidden(first, second int) error {
	return c.Write(map[string]interface{}{"type": "cards_hidden", "first": first, "second": second})
}

func (c *wsClient) CardsMatched(first, second int) error {
	return c.Write(map[string]interface{}{"type": "cards_matched", "first": first, "second": second})
}

func (c *wsClient) ScoreChanged(player models.Player, score int) error {
	return c.Write(map[string]interface{}{"type": "score_changed", "player": player, "score": score})
}

func (c *wsClient) MatchFinished(winner models.Player, draw bool, scores []models.Score) error {
	return c.Write(map[string]interface{}{
		"type":   "match_finished",
		"winner": winner,
		"draw":   draw,
		"scores": scores,
	})
}

var _ notify.ClientHandle = (*wsClient)(nil)
