// Package ledger is the balance engine: it converts drives into dollar
// costs, applies fill-up payments, and keeps the signed running balance per
// member. models.go describes the event rows and snapshot entries.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriveEvent is one recorded drive. Immutable once written; the cost is
// computed at record time with the gas price in effect at that moment and
// is never recomputed.
type DriveEvent struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	CarID     int64           `db:"car_id"`
	Miles     decimal.Decimal `db:"miles"`
	Cost      decimal.Decimal `db:"cost"`
	NearEmpty bool            `db:"near_empty"`
	Location  *string         `db:"location"` // Shortcut label when logged via /driveto
	CreatedAt time.Time       `db:"created_at"`
}

// FillEvent is one recorded fill-up payment. Crediting the payer may push
// their balance negative; that is a pre-payment, not an error.
type FillEvent struct {
	ID             int64            `db:"id"`
	UserID         int64            `db:"user_id"`  // Who ran the command
	CarID          *int64           `db:"car_id"`   // Which car was filled (nil if unknown)
	PayerID        int64            `db:"payer_id"` // Whose balance is credited
	Amount         decimal.Decimal  `db:"amount"`
	PricePerGallon *decimal.Decimal `db:"price_per_gallon"` // Set when the fill also updated the price
	CreatedAt      time.Time        `db:"created_at"`
}

// BalanceEntry is one row of the group snapshot.
type BalanceEntry struct {
	UserID      int64
	Name        string // Preferred name when set, otherwise display name
	BalanceOwed decimal.Decimal
	TotalMiles  decimal.Decimal
	CreatedAt   time.Time // Used for fallback ordering
}

// DriveResult is what RecordDrive hands back for display.
type DriveResult struct {
	Car        string
	Miles      decimal.Decimal
	Cost       decimal.Decimal
	NewBalance decimal.Decimal
	Location   string // Empty unless logged via a shortcut
}

// FillResult is what RecordFill hands back for display.
type FillResult struct {
	Car        string
	Amount     decimal.Decimal
	PayerID    int64
	PayerName  string
	NewBalance decimal.Decimal
}
