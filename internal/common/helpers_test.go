package common_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gasbot/internal/common"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"6.6", "$6.60"},
		{"-13.4", "-$13.40"},
		{"0", "$0.00"},
		{"0.005", "$0.01"},
		{"1234.5", "$1234.50"},
	}
	for _, c := range cases {
		got := common.FormatMoney(decimal.RequireFromString(c.in))
		assert.Equal(t, c.want, got, "FormatMoney(%s)", c.in)
	}
}

func TestFormatMiles(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"8", "8"},
		{"15.5", "15.5"},
		{"0", "0"},
		{"12.0", "12"},
	}
	for _, c := range cases {
		got := common.FormatMiles(decimal.RequireFromString(c.in))
		assert.Equal(t, c.want, got, "FormatMiles(%s)", c.in)
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "03/05/2026 14:30", common.FormatDateTime(ts, time.UTC))
	assert.Equal(t, "03/05/2026 14:30", common.FormatDateTime(ts, nil), "nil zone falls back to UTC")

	chicago, err := time.LoadLocation("America/Chicago")
	if err == nil {
		assert.Equal(t, "03/05/2026 08:30", common.FormatDateTime(ts, chicago))
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 user", common.Pluralize(1, "user"))
	assert.Equal(t, "2 users", common.Pluralize(2, "user"))
	assert.Equal(t, "0 users", common.Pluralize(0, "user"))
}
