package codec

import (
	"fmt"
	"strings"
)

// Format converts application values to payload representations and back.
type Format interface {
	// Name returns the configuration name of the format (e.g. "json").
	Name() string

	// Text stores v as a text payload.
	Text(v any) Text

	// Binary stores v as a binary payload.
	Binary(v any) Binary

	// FromText restores a text payload into v, which must be a pointer.
	FromText(t Text, v any) error

	// FromBinary restores a binary payload into v, which must be a pointer.
	FromBinary(b Binary, v any) error
}

// Restore decodes m into v using f, following the decode path recorded in
// the message. Decode errors carried by m are returned unchanged.
func Restore(f Format, m Message, v any) error {
	switch m.Kind {
	case KindText:
		return f.FromText(m.Text, v)
	case KindBinary:
		return f.FromBinary(m.Binary, v)
	default:
		return m.Err()
	}
}

// Callback adapts a typed callback into a message sink. Every message
// invokes fn exactly once, with either the restored value or an error.
func Callback[T any](f Format, fn func(T, error)) func(Message) {
	return func(m Message) {
		var v T
		if err := Restore(f, m, &v); err != nil {
			var zero T
			fn(zero, err)
			return
		}
		fn(v, nil)
	}
}

// FormatByName resolves a format from its configuration name.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON, nil
	case "compact":
		return Compact, nil
	default:
		return nil, fmt.Errorf("codec: unknown format %q", name)
	}
}
