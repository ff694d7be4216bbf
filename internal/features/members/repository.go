// Package members: repository.go owns every query against the users table.
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gasbot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the member for a Telegram user, creating the row with
// a zero balance on first sight. The stored display name is refreshed to
// whatever Telegram reports now; the preferred name and balance are never
// touched here.
func (r *Repository) GetOrCreate(ctx context.Context, userID int64, displayName string) (*Member, error) {
	query := `
		INSERT INTO users (user_id, display_name, balance_owed)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    updated_at = NOW()
		RETURNING id, user_id, display_name, preferred_name, balance_owed, created_at, updated_at
	`
	var m Member
	err := r.db.QueryRow(ctx, query, userID, displayName).Scan(
		&m.ID, &m.UserID, &m.DisplayName, &m.PreferredName,
		&m.BalanceOwed, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get-or-create user %d: %w", userID, err)
	}
	return &m, nil
}

// GetByUserID returns common.ErrUserNotFound when the user has no record.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `
		SELECT id, user_id, display_name, preferred_name, balance_owed, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	var m Member
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.DisplayName, &m.PreferredName,
		&m.BalanceOwed, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("reading user %d: %w", userID, err)
	}
	return &m, nil
}

// Exists reports whether the user has a record.
func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking user %d: %w", userID, err)
	}
	return exists, nil
}

// SetPreferredName stores the name the member wants on the balance board.
func (r *Repository) SetPreferredName(ctx context.Context, userID int64, name string) error {
	query := `UPDATE users SET preferred_name = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, name)
	if err != nil {
		return fmt.Errorf("setting preferred name for %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}
