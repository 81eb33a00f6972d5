// Package notifytest provides a recording ClientHandle for tests.
package notifytest

import (
	"fmt"
	"sync"

	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/jason-s-yu/memorama/internal/notify"
)

// Event is one recorded push.
type Event struct {
	Kind string

	Sender  string
	Text    string
	System  bool
	Roster  []models.RosterEntry
	Board   []models.BoardSlot
	Player  models.Player
	Seconds int
	Index   int
	Second  int
	FaceID  string
	Score   int
	Draw    bool
	Scores  []models.Score
}

// Client records every push it receives. Setting Fail makes every push
// return notify.ErrUnreachable.
type Client struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

// NewClient returns an empty recording client.
func NewClient() *Client { return &Client{} }

// SetFail toggles delivery failure.
func (c *Client) SetFail(fail bool) {
	c.mu.Lock()
	c.fail = fail
	c.mu.Unlock()
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns a copy of everything received so far.
func (c *Client) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Kinds returns the recorded event kinds in order.
func (c *Client) Kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

// Last returns the most recent event of the given kind.
func (c *Client) Last(kind string) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Kind == kind {
			return c.events[i], true
		}
	}
	return Event{}, false
}

// Count returns how many events of the given kind were received.
func (c *Client) Count(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops recorded events.
func (c *Client) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}

func (c *Client) record(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return fmt.Errorf("%s: %w", e.Kind, notify.ErrUnreachable)
	}
	c.events = append(c.events, e)
	return nil
}

func (c *Client) ChatMessage(sender, text string, system bool) error {
	return c.record(Event{Kind: "chat_message", Sender: sender, Text: text, System: system})
}

func (c *Client) RosterUpdated(members []models.RosterEntry) error {
	return c.record(Event{Kind: "roster_updated", Roster: members})
}

func (c *Client) MatchStarted(board []models.BoardSlot) error {
	return c.record(Event{Kind: "match_started", Board: board})
}

func (c *Client) TurnChanged(player models.Player, turnSeconds int) error {
	return c.record(Event{Kind: "turn_changed", Player: player, Seconds: turnSeconds})
}

func (c *Client) CardRevealed(index int, faceID string) error {
	return c.record(Event{Kind: "card_revealed", Index: index, FaceID: faceID})
}

func (c *Client) CardsHidden(first, second int) error {
	return c.record(Event{Kind: "cards_hidden", Index: first, Second: second})
}

func (c *Client) CardsMatched(first, second int) error {
	return c.record(Event{Kind: "cards_matched", Index: first, Second: second})
}

func (c *Client) ScoreChanged(player models.Player, score int) error {
	return c.record(Event{Kind: "score_changed", Player: player, Score: score})
}

func (c *Client) MatchFinished(winner models.Player, draw bool, scores []models.Score) error {
	return c.record(Event{Kind: "match_finished", Player: winner, Draw: draw, Scores: scores})
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

var _ notify.ClientHandle = (*Client)(nil)
