package config_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gasbot/internal/config"
)

func TestParseFleet(t *testing.T) {
	fleet, err := config.ParseFleet("Subaru:20,Mercedes:17.5")
	require.NoError(t, err)
	require.Len(t, fleet, 2)

	assert.Equal(t, "Subaru", fleet[0].Name)
	assert.True(t, fleet[0].MPG.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Mercedes", fleet[1].Name)
	assert.True(t, fleet[1].MPG.Equal(decimal.RequireFromString("17.5")))
}

func TestParseFleet_TrimsWhitespace(t *testing.T) {
	fleet, err := config.ParseFleet(" Subaru : 20 , Mercedes : 17 ")
	require.NoError(t, err)
	require.Len(t, fleet, 2)
	assert.Equal(t, "Subaru", fleet[0].Name)
}

func TestParseFleet_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"missing mpg", "Subaru"},
		{"bad mpg", "Subaru:fast"},
		{"zero mpg", "Subaru:0"},
		{"negative mpg", "Subaru:-5"},
		{"empty name", ":20"},
		{"duplicate name", "Subaru:20,subaru:17"},
		{"only commas", ",,,"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := config.ParseFleet(c.in)
			assert.Error(t, err)
		})
	}
}

func TestParseFleet_Empty(t *testing.T) {
	fleet, err := config.ParseFleet("")
	require.NoError(t, err)
	assert.Nil(t, fleet)
}
