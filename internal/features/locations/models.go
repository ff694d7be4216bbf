// Package locations manages named distance shortcuts: "/driveto pnc"
// resolves to a stored round-trip mileage so frequent drives need no
// number. models.go describes the rows.
package locations

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is one named shortcut. The stored distance is the full round
// trip: double the one-way distance supplied when the shortcut was added.
type Location struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"` // Unique, lowercased command token ("pnc")
	Label          string          `db:"label"` // Human name ("PNC")
	RoundTripMiles decimal.Decimal `db:"round_trip_miles"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}
