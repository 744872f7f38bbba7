package codec

import "fmt"

// Kind identifies a payload representation and the frame type carrying it.
type Kind uint8

const (
	KindText   Kind = 0x01 // UTF-8 text frame
	KindBinary Kind = 0x02 // Binary frame
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Text is a value stored as, or restored from, a text payload.
// Exactly one of Value and Err is meaningful: when Err is non-nil the
// payload could not be produced and Value must be ignored.
type Text struct {
	Value string
	Err   error
}

// TextOf returns a successful text representation.
func TextOf(s string) Text {
	return Text{Value: s}
}

// TextErr returns a failed text representation.
func TextErr(err error) Text {
	return Text{Err: err}
}

// OK reports whether the representation holds a payload.
func (t Text) OK() bool {
	return t.Err == nil
}

// Binary is a value stored as, or restored from, a binary payload.
type Binary struct {
	Value []byte
	Err   error
}

// BinaryOf returns a successful binary representation.
func BinaryOf(b []byte) Binary {
	return Binary{Value: b}
}

// BinaryErr returns a failed binary representation.
func BinaryErr(err error) Binary {
	return Binary{Err: err}
}

// OK reports whether the representation holds a payload.
func (b Binary) OK() bool {
	return b.Err == nil
}

// Message is a decoded inbound payload. Kind names the decode path that
// produced it; only the matching field (Text or Binary) is populated.
type Message struct {
	Kind   Kind
	Text   Text
	Binary Binary
}

// TextMessage wraps a text decode result.
func TextMessage(t Text) Message {
	return Message{Kind: KindText, Text: t}
}

// BinaryMessage wraps a binary decode result.
func BinaryMessage(b Binary) Message {
	return Message{Kind: KindBinary, Binary: b}
}

// Err returns the decode error carried by the message, if any.
func (m Message) Err() error {
	switch m.Kind {
	case KindText:
		return m.Text.Err
	case KindBinary:
		return m.Binary.Err
	default:
		return fmt.Errorf("codec: message of unknown kind %d", m.Kind)
	}
}

// Bytes returns the payload as bytes regardless of the decode path.
func (m Message) Bytes() ([]byte, error) {
	if err := m.Err(); err != nil {
		return nil, err
	}
	if m.Kind == KindText {
		return []byte(m.Text.Value), nil
	}
	return m.Binary.Value, nil
}

// String implements fmt.Stringer for logging.
func (m Message) String() string {
	if err := m.Err(); err != nil {
		return fmt.Sprintf("%s(error: %v)", m.Kind, err)
	}
	if m.Kind == KindText {
		return fmt.Sprintf("text(%d bytes)", len(m.Text.Value))
	}
	return fmt.Sprintf("binary(%d bytes)", len(m.Binary.Value))
}
