package websocket

import (
	"io"

	"github.com/vango-dev/wstask/pkg/codec"
)

// DecodeText decodes f on the text path. Frames that do not carry a string
// yield codec.ErrReceivedBinaryForText.
func DecodeText(f RawFrame) codec.Text {
	if !f.IsText() {
		return codec.TextErr(codec.ErrReceivedBinaryForText)
	}
	return codec.TextOf(string(f.Data))
}

// DecodeBinary decodes f on the binary path into an owned byte slice. Text
// frames yield codec.ErrReceivedTextForBinary.
func DecodeBinary(f RawFrame) codec.Binary {
	if f.IsText() {
		return codec.BinaryErr(codec.ErrReceivedTextForBinary)
	}
	if f.Blob != nil {
		b, err := io.ReadAll(f.Blob)
		if err != nil {
			return codec.BinaryErr(err)
		}
		return codec.BinaryOf(b)
	}
	b := make([]byte, len(f.Data))
	copy(b, f.Data)
	return codec.BinaryOf(b)
}

// Decode applies mode to f. It returns false when the mode drops the frame.
func Decode(mode Mode, f RawFrame) (codec.Message, bool) {
	switch mode {
	case ModeBoth:
		if f.IsText() {
			return codec.TextMessage(DecodeText(f)), true
		}
		return codec.BinaryMessage(DecodeBinary(f)), true
	case ModeBinaryOnly:
		if f.IsText() {
			return codec.Message{}, false
		}
		return codec.BinaryMessage(DecodeBinary(f)), true
	case ModeTextOnly:
		if !f.IsText() {
			return codec.Message{}, false
		}
		return codec.TextMessage(DecodeText(f)), true
	default:
		return codec.Message{}, false
	}
}

// Dispatch decodes f according to mode and invokes onMessage at most once.
// It reports whether onMessage was invoked.
func Dispatch(mode Mode, f RawFrame, onMessage MessageFunc) bool {
	m, ok := Decode(mode, f)
	if !ok {
		return false
	}
	if onMessage != nil {
		onMessage(m)
	}
	return true
}
