package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gasbot/internal/features/ledger"
)

func TestFormatBoard(t *testing.T) {
	entries := []*ledger.BalanceEntry{
		{UserID: 100, Name: "Abbas", BalanceOwed: dec("6.60")},
		{UserID: 200, Name: "Sajjad", BalanceOwed: dec("-13.40")},
		{UserID: 300, Name: "Mahdi", BalanceOwed: dec("0")},
	}

	got := ledger.FormatBoard(entries)

	assert.Contains(t, got, "--- Balances ---")
	assert.Contains(t, got, "Abbas: $6.60")
	assert.Contains(t, got, "Sajjad: -$13.40")
	assert.Contains(t, got, "Mahdi: $0.00")
}

func TestFormatBoard_Empty(t *testing.T) {
	got := ledger.FormatBoard(nil)
	assert.Contains(t, got, "No user balances found.")
}

func TestFormatDriveAnnouncement(t *testing.T) {
	res := &ledger.DriveResult{Car: "Subaru", Miles: dec("12.5"), Cost: dec("2.06")}
	got := ledger.FormatDriveAnnouncement("Abbas", res)
	assert.Equal(t, "*Abbas* drove *12.5 miles* in the *Subaru*: *$2.06*", got)
}

func TestFormatDriveAnnouncement_WithLocation(t *testing.T) {
	res := &ledger.DriveResult{Car: "Subaru", Miles: dec("2"), Cost: dec("0.33"), Location: "PNC"}
	got := ledger.FormatDriveAnnouncement("Abbas", res)
	assert.Equal(t, "*Abbas* drove to *PNC* in the *Subaru*: *$0.33*", got)
}

func TestFormatFillAnnouncement(t *testing.T) {
	res := &ledger.FillResult{Car: "Mercedes", Amount: dec("45.50"), PayerName: "Sajjad"}
	got := ledger.FormatFillAnnouncement(res)
	assert.Equal(t, "*Sajjad* filled the *Mercedes* and paid *$45.50*", got)
}
