package websocket

import (
	"fmt"
	"strings"
)

// Mode selects which frame kinds a Task decodes. It is fixed at connect time.
type Mode uint8

const (
	ModeBoth       Mode = iota // Decode text and binary frames
	ModeBinaryOnly             // Decode binary frames, drop text frames
	ModeTextOnly               // Decode text frames, drop binary frames
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBoth:
		return "both"
	case ModeBinaryOnly:
		return "binary"
	case ModeTextOnly:
		return "text"
	default:
		return "unknown"
	}
}

func (m Mode) valid() bool {
	return m <= ModeTextOnly
}

// ParseMode parses a configuration name ("both", "binary", "text").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return ModeBoth, nil
	case "binary", "binary-only":
		return ModeBinaryOnly, nil
	case "text", "text-only":
		return ModeTextOnly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
