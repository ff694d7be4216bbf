// Package locations: repository.go owns the locations table.
package locations

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

// Upsert stores the shortcut, overwriting any existing entry with the same
// name. The caller supplies the already-doubled round-trip distance.
func (r *Repository) Upsert(ctx context.Context, loc *Location) error {
	query := `
		INSERT INTO locations (name, label, round_trip_miles)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET label = EXCLUDED.label,
		    round_trip_miles = EXCLUDED.round_trip_miles,
		    updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, loc.Name, loc.Label, loc.RoundTripMiles); err != nil {
		return fmt.Errorf("upserting location %q: %w", loc.Name, err)
	}
	return nil
}

// GetByName resolves a shortcut; common.ErrLocationNotFound when absent.
func (r *Repository) GetByName(ctx context.Context, name string) (*Location, error) {
	query := `
		SELECT id, name, label, round_trip_miles, created_at, updated_at
		FROM locations
		WHERE name = LOWER($1)
	`
	var l Location
	err := r.db.QueryRow(ctx, query, name).Scan(
		&l.ID, &l.Name, &l.Label, &l.RoundTripMiles, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrLocationNotFound
		}
		return nil, fmt.Errorf("reading location %q: %w", name, err)
	}
	return &l, nil
}

// List returns all shortcuts ordered by name, for /help.
func (r *Repository) List(ctx context.Context) ([]*Location, error) {
	query := `
		SELECT id, name, label, round_trip_miles, created_at, updated_at
		FROM locations
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Label, &l.RoundTripMiles, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading locations: %w", err)
	}
	return out, nil
}
