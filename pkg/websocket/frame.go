package websocket

import (
	"io"

	"github.com/vango-dev/wstask/pkg/codec"
)

// BinaryType controls how a socket hands binary frames to listeners.
type BinaryType uint8

const (
	// BinaryTypeBlob delivers binary payloads as a reader in RawFrame.Blob.
	BinaryTypeBlob BinaryType = iota

	// BinaryTypeArrayBuffer delivers binary payloads as bytes in RawFrame.Data.
	BinaryTypeArrayBuffer
)

// String returns the string representation of the binary type.
func (b BinaryType) String() string {
	if b == BinaryTypeArrayBuffer {
		return "arraybuffer"
	}
	return "blob"
}

// RawFrame is one inbound frame as received from the transport.
// It is consumed synchronously by the dispatcher.
type RawFrame struct {
	Kind codec.Kind
	Data []byte
	Blob io.Reader
}

// TextFrame returns a text RawFrame.
func TextFrame(s string) RawFrame {
	return RawFrame{Kind: codec.KindText, Data: []byte(s)}
}

// BinaryFrame returns a binary RawFrame.
func BinaryFrame(b []byte) RawFrame {
	return RawFrame{Kind: codec.KindBinary, Data: b}
}

// IsText reports whether the frame carries a string.
func (f RawFrame) IsText() bool {
	return f.Kind == codec.KindText
}
