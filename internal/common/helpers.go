// Package common contains small formatting utilities used across the bot:
// dollar amounts, mileage strings, timestamps.
package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney renders a dollar amount with two decimals and a leading sign
// placement that reads naturally in chat.
//
// Examples:
//
//	FormatMoney(decimal.NewFromFloat(6.6))    → "$6.60"
//	FormatMoney(decimal.NewFromFloat(-13.4))  → "-$13.40"
func FormatMoney(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatMiles renders a mileage value without a trailing ".0".
//
// Examples:
//
//	FormatMiles(decimal.NewFromFloat(8))    → "8"
//	FormatMiles(decimal.NewFromFloat(15.5)) → "15.5"
func FormatMiles(miles decimal.Decimal) string {
	s := miles.StringFixed(1)
	s = strings.TrimSuffix(s, ".0")
	return s
}

// FormatDateTime renders a timestamp as "01/02/2006 15:04" in the given
// zone. Used for event history displays.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("01/02/2006 15:04")
}

// Pluralize appends "s" for counts other than one. English-only on purpose.
func Pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
