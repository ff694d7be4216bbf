// Package garage: repository.go owns the cars and gas_prices tables.
package garage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"gasbot/internal/common"
	"gasbot/internal/config"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ReconcileFleet makes the cars table match the configured fleet exactly:
// cars not in the config are deleted, the rest are upserted with the
// configured mpg. Runs in one transaction at startup.
func (r *Repository) ReconcileFleet(ctx context.Context, fleet []config.CarSpec) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning fleet reconcile: %w", err)
	}
	defer tx.Rollback(ctx)

	names := make([]string, 0, len(fleet))
	for _, car := range fleet {
		names = append(names, car.Name)
	}

	// Drop cars that fell out of the configuration. Their drive history
	// survives; the FK on drives is not cascading deletes of events.
	if _, err := tx.Exec(ctx,
		`DELETE FROM cars WHERE NOT (name = ANY($1))`, names,
	); err != nil {
		return fmt.Errorf("removing retired cars: %w", err)
	}

	for _, car := range fleet {
		if _, err := tx.Exec(ctx, `
			INSERT INTO cars (name, mpg) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE
			SET mpg = EXCLUDED.mpg, updated_at = NOW()
		`, car.Name, car.MPG); err != nil {
			return fmt.Errorf("upserting car %q: %w", car.Name, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByName resolves a car by name, case-insensitively.
// Returns common.ErrCarNotFound for unknown names.
func (r *Repository) GetByName(ctx context.Context, name string) (*Car, error) {
	query := `
		SELECT id, name, mpg, COALESCE(notes, ''), created_at, updated_at
		FROM cars
		WHERE LOWER(name) = LOWER($1)
	`
	var c Car
	err := r.db.QueryRow(ctx, query, name).Scan(
		&c.ID, &c.Name, &c.MPG, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCarNotFound
		}
		return nil, fmt.Errorf("reading car %q: %w", name, err)
	}
	return &c, nil
}

// List returns the fleet ordered by name.
func (r *Repository) List(ctx context.Context) ([]*Car, error) {
	query := `
		SELECT id, name, mpg, COALESCE(notes, ''), created_at, updated_at
		FROM cars
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing cars: %w", err)
	}
	defer rows.Close()

	var out []*Car
	for rows.Next() {
		var c Car
		if err := rows.Scan(&c.ID, &c.Name, &c.MPG, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning car: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cars: %w", err)
	}
	return out, nil
}

// SetNotes attaches free-text notes to a car.
func (r *Repository) SetNotes(ctx context.Context, name, notes string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cars SET notes = $2, updated_at = NOW() WHERE LOWER(name) = LOWER($1)`,
		name, notes,
	)
	if err != nil {
		return fmt.Errorf("setting notes for %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCarNotFound
	}
	return nil
}

// CurrentPrice returns the most recently recorded gas price, or pgx.ErrNoRows
// wrapped when no price has ever been set (the service falls back to the
// configured default).
func (r *Repository) CurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT price FROM gas_prices ORDER BY id DESC LIMIT 1`
	var price decimal.Decimal
	err := r.db.QueryRow(ctx, query).Scan(&price)
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

// RecordPrice appends a new current gas price. Last write wins.
func (r *Repository) RecordPrice(ctx context.Context, price decimal.Decimal, setBy *int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO gas_prices (price, set_by) VALUES ($1, $2)`,
		price, setBy,
	)
	if err != nil {
		return fmt.Errorf("recording gas price: %w", err)
	}
	return nil
}
