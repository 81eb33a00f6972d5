package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/memorama/internal/identity"
)

// Querier is the subset of pgxpool.Pool used for lookups.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Users reads the user table owned by the account service.
type Users struct {
	db Querier
}

func NewUsers(db Querier) *Users {
	return &Users{db: db}
}

// DisplayName returns the username for id. Unknown ids map to
// identity.ErrUnknownUser.
func (u *Users) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	q := `SELECT username FROM users WHERE id=$1`
	err := u.db.QueryRow(ctx, q, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", identity.ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("failed to get username for %s: %w", id, err)
	}
	return name, nil
}

var _ identity.NameSource = (*Users)(nil)
