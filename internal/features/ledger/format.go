// Package ledger: format.go renders the balance board and the one-line
// drive/fill announcements posted to the gas chat.
package ledger

import (
	"fmt"
	"strings"

	"gasbot/internal/common"
)

// FormatBoard renders the group balance board as a monospace block.
//
//	--- Balances ---
//	Abbas: $6.60
//	Sajjad: -$13.40
func FormatBoard(entries []*BalanceEntry) string {
	var sb strings.Builder
	sb.WriteString("```\n--- Balances ---\n")

	if len(entries) == 0 {
		sb.WriteString("No user balances found.\n")
	}
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s: %s\n", e.Name, common.FormatMoney(e.BalanceOwed)))
	}

	sb.WriteString("```")
	return sb.String()
}

// FormatDriveAnnouncement renders the line posted after a drive is logged.
func FormatDriveAnnouncement(who string, res *DriveResult) string {
	if res.Location != "" {
		return fmt.Sprintf("*%s* drove to *%s* in the *%s*: *%s*",
			who, res.Location, res.Car, common.FormatMoney(res.Cost))
	}
	return fmt.Sprintf("*%s* drove *%s miles* in the *%s*: *%s*",
		who, common.FormatMiles(res.Miles), res.Car, common.FormatMoney(res.Cost))
}

// FormatFillAnnouncement renders the line posted after a fill is logged.
func FormatFillAnnouncement(res *FillResult) string {
	return fmt.Sprintf("*%s* filled the *%s* and paid *%s*",
		res.PayerName, res.Car, common.FormatMoney(res.Amount))
}
