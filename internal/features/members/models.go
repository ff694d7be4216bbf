// Package members manages the people sharing the cars: registration,
// display names, and the signed running balance each person owes the group.
// models.go describes the structures backing the users table.
package members

import (
	"time"

	"github.com/shopspring/decimal"
)

// Member is one person in the group.
// Created lazily on first interaction with a zero balance; never deleted.
type Member struct {
	ID            int64           `db:"id"`             // Auto-increment row ID
	UserID        int64           `db:"user_id"`        // Telegram user ID (unique)
	DisplayName   string          `db:"display_name"`   // Latest Telegram display name
	PreferredName *string         `db:"preferred_name"` // Name chosen via /setname (nil until set)
	BalanceOwed   decimal.Decimal `db:"balance_owed"`   // Positive = owes the group, negative = credit
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Name returns the name to show in chat: the preferred name when the
// member has set one, otherwise the Telegram display name.
func (m *Member) Name() string {
	if m.PreferredName != nil && *m.PreferredName != "" {
		return *m.PreferredName
	}
	return m.DisplayName
}
