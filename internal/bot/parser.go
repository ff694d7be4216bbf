// Package bot: parser.go turns message text into a command and arguments.
// Besides named commands ("/drive 12.5"), a bare numeric command ("/12",
// "/12.5") is recognized as a drive of that many miles, so the old habit of
// typing the mileage as the command keeps working without a handler per
// number.
package bot

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CommandParser parses slash commands.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser creates the parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!"},
	}
}

// ParseCommand splits text into command and args. The command is
// lowercased and any "@BotName" suffix is dropped. Returns false when the
// text is not a command.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	// "/drive@GasBot 12" → "drive"
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}

// ParseMilesCommand reports whether cmd is a bare mileage ("12", "12.5")
// and returns the distance. Negative numbers never match because the
// leading "-" breaks the command prefix anyway.
func ParseMilesCommand(cmd string) (decimal.Decimal, bool) {
	if cmd == "" {
		return decimal.Zero, false
	}
	for _, r := range cmd {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, false
		}
	}
	miles, err := decimal.NewFromString(cmd)
	if err != nil {
		return decimal.Zero, false
	}
	return miles, true
}
