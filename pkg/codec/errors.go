package codec

// FormatError is a per-message conversion failure between a payload
// representation and a format. It never affects the connection itself.
type FormatError struct {
	msg string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return e.msg
}

var (
	// ErrReceivedTextForBinary is reported when a text payload reaches a
	// path that only accepts binary, e.g. a text frame on a connection
	// speaking a binary format.
	ErrReceivedTextForBinary = &FormatError{msg: "codec: received text for a binary format"}

	// ErrReceivedBinaryForText is reported when a binary payload reaches a
	// path that only accepts text.
	ErrReceivedBinaryForText = &FormatError{msg: "codec: received binary for a text format"}

	// ErrCantEncodeBinaryAsText is reported when a binary-only format is
	// asked to produce a text payload.
	ErrCantEncodeBinaryAsText = &FormatError{msg: "codec: trying to encode a binary format as text"}
)
