// Package garage manages the shared car fleet and the current gas price.
// The fleet is configuration-controlled: the cars table is reconciled to
// exactly the configured set at startup. models.go describes the rows.
package garage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Car is one shared vehicle.
type Car struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"` // Unique, e.g. "Subaru"
	MPG       decimal.Decimal `db:"mpg"`  // Miles per gallon, positive
	Notes     string          `db:"notes"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// GasPrice is one recorded price per gallon. The table is append-only;
// the current price is simply the most recent row.
type GasPrice struct {
	ID        int64           `db:"id"`
	Price     decimal.Decimal `db:"price"`
	SetBy     *int64          `db:"set_by"` // Telegram user ID, nil for system defaults
	CreatedAt time.Time       `db:"created_at"`
}
