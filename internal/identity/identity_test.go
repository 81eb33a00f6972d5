package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens map[string]uuid.UUID

func (s stubTokens) Verify(token string) (uuid.UUID, error) {
	id, ok := s[token]
	if !ok {
		return uuid.Nil, errors.New("signature mismatch")
	}
	return id, nil
}

type stubNames map[uuid.UUID]string

func (s stubNames) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	name, ok := s[id]
	if !ok {
		return "", ErrUnknownUser
	}
	return name, nil
}

func TestResolveUserID(t *testing.T) {
	alice := uuid.New()
	r := New(stubTokens{"good": alice}, nil)
	ctx := context.Background()

	id, err := r.ResolveUserID(ctx, " good ")
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = r.ResolveUserID(ctx, "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = r.ResolveUserID(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = New(nil, nil).ResolveUserID(ctx, "good")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveDisplayName(t *testing.T) {
	alice, bob, blank := uuid.New(), uuid.New(), uuid.New()
	r := New(nil, stubNames{
		alice: "  alice ",
		bob:   strings.Repeat("b", 40),
		blank: "   ",
	})
	ctx := context.Background()

	name, err := r.ResolveDisplayName(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	name, err = r.ResolveDisplayName(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, name, MaxNameLength)

	_, err = r.ResolveDisplayName(ctx, blank)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = r.ResolveDisplayName(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestGuestName(t *testing.T) {
	assert.Equal(t, "Zed", GuestName("  Zed ", "abcd-1234"))
	assert.Equal(t, "Guest_ABCD", GuestName("", "abcd-1234"))
	assert.Equal(t, "Guest_AB", GuestName(" ", "ab"))
	assert.Equal(t, MaxNameLength, len([]rune(GuestName(strings.Repeat("é", 50), "x"))))
}
