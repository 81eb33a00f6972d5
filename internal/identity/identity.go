// Package identity resolves who a joining client is: an auth token maps to a
// user id, and a user id maps to a display name. Guests skip both.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is missing, malformed or expired.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrUnknownUser is returned when no display name exists for a user id.
	ErrUnknownUser = errors.New("identity: unknown user")
)

// MaxNameLength caps display names in runes.
const MaxNameLength = 24

// Resolver is the identity collaborator consumed by the lobby registry.
type Resolver interface {
	ResolveUserID(ctx context.Context, token string) (uuid.UUID, error)
	ResolveDisplayName(ctx context.Context, id uuid.UUID) (string, error)
}

// TokenVerifier turns a signed token into the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// NameSource looks up the display name of a registered user.
type NameSource interface {
	DisplayName(ctx context.Context, id uuid.UUID) (string, error)
}

// Composite is a Resolver built from a token verifier and a name source.
type Composite struct {
	tokens TokenVerifier
	names  NameSource
}

// New returns a Composite resolver.
func New(tokens TokenVerifier, names NameSource) *Composite {
	return &Composite{tokens: tokens, names: names}
}

// ResolveUserID verifies token. Every failure wraps ErrInvalidToken.
func (c *Composite) ResolveUserID(_ context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" || c.tokens == nil {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := c.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// ResolveDisplayName returns the user's name, trimmed and capped to
// MaxNameLength. A blank name counts as unknown.
func (c *Composite) ResolveDisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	if c.names == nil {
		return "", ErrUnknownUser
	}
	name, err := c.names.DisplayName(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve display name for %s: %w", id, err)
	}
	name = clip(strings.TrimSpace(name))
	if name == "" {
		return "", ErrUnknownUser
	}
	return name, nil
}

// GuestName returns the requested guest name, or a generated one derived
// from the session id when the request is blank.
func GuestName(requested, sessionID string) string {
	if name := clip(strings.TrimSpace(requested)); name != "" {
		return name
	}
	suffix := strings.ReplaceAll(sessionID, "-", "")
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return "Guest_" + strings.ToUpper(suffix)
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= MaxNameLength {
		return s
	}
	return string([]rune(s)[:MaxNameLength])
}

var _ Resolver = (*Composite)(nil)
