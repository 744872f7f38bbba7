package codec

import (
	"errors"
	"fmt"
)

// CompactMarshaler is implemented by values that can write themselves in
// the compact binary format.
type CompactMarshaler interface {
	MarshalCompact(e *Encoder)
}

// CompactUnmarshaler is implemented by values that can read themselves from
// the compact binary format.
type CompactUnmarshaler interface {
	UnmarshalCompact(d *Decoder) error
}

// ErrTrailingBytes is returned when a compact payload has unread bytes after
// the value was restored.
var ErrTrailingBytes = errors.New("codec: trailing bytes after compact value")

// Compact is a binary-only format built on varint and length-prefixed
// fields. It cannot be stored as text.
var Compact Format = compactFormat{}

type compactFormat struct{}

func (compactFormat) Name() string { return "compact" }

func (compactFormat) Text(v any) Text {
	return TextErr(ErrCantEncodeBinaryAsText)
}

func (compactFormat) Binary(v any) Binary {
	m, ok := v.(CompactMarshaler)
	if !ok {
		return BinaryErr(fmt.Errorf("codec: %T does not implement CompactMarshaler", v))
	}
	e := NewEncoder()
	m.MarshalCompact(e)
	return BinaryOf(e.Bytes())
}

func (compactFormat) FromText(t Text, v any) error {
	if t.Err != nil {
		return t.Err
	}
	return ErrReceivedTextForBinary
}

func (compactFormat) FromBinary(b Binary, v any) error {
	if b.Err != nil {
		return b.Err
	}
	u, ok := v.(CompactUnmarshaler)
	if !ok {
		return fmt.Errorf("codec: %T does not implement CompactUnmarshaler", v)
	}
	d := NewDecoder(b.Value)
	if err := u.UnmarshalCompact(d); err != nil {
		return err
	}
	if !d.EOF() {
		return ErrTrailingBytes
	}
	return nil
}
