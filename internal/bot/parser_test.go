package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("/drive 12.5 empty")
	require.True(t, ok)
	assert.Equal(t, "drive", cmd)
	assert.Equal(t, []string{"12.5", "empty"}, args)
}

func TestParseCommand_BangPrefix(t *testing.T) {
	p := NewCommandParser()

	cmd, _, ok := p.ParseCommand("!balance")
	require.True(t, ok)
	assert.Equal(t, "balance", cmd)
}

func TestParseCommand_StripsBotMention(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("/filled@GasBot 45.50")
	require.True(t, ok)
	assert.Equal(t, "filled", cmd)
	assert.Equal(t, []string{"45.50"}, args)
}

func TestParseCommand_Lowercases(t *testing.T) {
	p := NewCommandParser()

	cmd, _, ok := p.ParseCommand("/Settle")
	require.True(t, ok)
	assert.Equal(t, "settle", cmd)
}

func TestParseCommand_NotACommand(t *testing.T) {
	p := NewCommandParser()

	for _, text := range []string{"hello there", "", "   ", "/", "drive 12"} {
		_, _, ok := p.ParseCommand(text)
		assert.False(t, ok, "%q should not parse as a command", text)
	}
}

func TestParseMilesCommand(t *testing.T) {
	cases := []struct {
		in    string
		miles string
		ok    bool
	}{
		{"12", "12", true},
		{"12.5", "12.5", true},
		{"0", "0", true},
		{"0.7", "0.7", true},
		{"drive", "", false},
		{"12mi", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		miles, ok := ParseMilesCommand(c.in)
		assert.Equal(t, c.ok, ok, "ParseMilesCommand(%q)", c.in)
		if c.ok {
			assert.True(t, miles.Equal(decimal.RequireFromString(c.miles)))
		}
	}
}
