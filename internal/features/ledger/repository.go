// The event insert and the balance update always share one database
// transaction, and the balance increment runs inside the UPDATE itself so
// two handlers recording at the same time cannot lose each other's delta.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository provides the ledger's database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new ledger repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RecordDrive inserts the drive event and charges the driver in one
// transaction. Returns the driver's new balance.
func (r *Repository) RecordDrive(ctx context.Context, ev *DriveEvent) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("beginning drive transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO drives (user_id, car_id, miles, cost, near_empty, location)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ev.UserID, ev.CarID, ev.Miles, ev.Cost, ev.NearEmpty, ev.Location)
	if err != nil {
		return decimal.Zero, fmt.Errorf("inserting drive event: %w", err)
	}

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET balance_owed = balance_owed + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance_owed
	`, ev.UserID, ev.Cost).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("charging drive cost: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("committing drive: %w", err)
	}
	return balance, nil
}

// RecordFill inserts the fill event and credits the payer in one
// transaction. The balance has no floor: paying more than is owed leaves a
// negative balance (a credit). Returns the payer's new balance.
func (r *Repository) RecordFill(ctx context.Context, ev *FillEvent) (decimal.Decimal, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("beginning fill transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO fills (user_id, car_id, payer_id, amount, price_per_gallon)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.UserID, ev.CarID, ev.PayerID, ev.Amount, ev.PricePerGallon)
	if err != nil {
		return decimal.Zero, fmt.Errorf("inserting fill event: %w", err)
	}

	var balance decimal.Decimal
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET balance_owed = balance_owed - $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING balance_owed
	`, ev.PayerID, ev.Amount).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("crediting payer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("committing fill: %w", err)
	}
	return balance, nil
}

// ListBalances returns every member with their balance and lifetime miles,
// in insertion order. Display ordering is applied later by the formatter.
func (r *Repository) ListBalances(ctx context.Context) ([]*BalanceEntry, error) {
	query := `
		SELECT u.user_id,
		       COALESCE(NULLIF(u.preferred_name, ''), u.display_name),
		       u.balance_owed,
		       COALESCE(SUM(d.miles), 0),
		       u.created_at
		FROM users u
		LEFT JOIN drives d ON d.user_id = u.user_id
		GROUP BY u.user_id, u.preferred_name, u.display_name, u.balance_owed, u.created_at
		ORDER BY u.created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing balances: %w", err)
	}
	defer rows.Close()

	var out []*BalanceEntry
	for rows.Next() {
		var e BalanceEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.BalanceOwed, &e.TotalMiles, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning balance row: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading balance rows: %w", err)
	}
	return out, nil
}

// ZeroAllBalances settles the group: every known user's balance becomes 0.
// Drive and fill history is retained. Returns how many rows were reset.
func (r *Repository) ZeroAllBalances(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET balance_owed = 0, updated_at = NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("settling balances: %w", err)
	}
	return tag.RowsAffected(), nil
}
