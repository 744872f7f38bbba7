package websocket

import (
	"net/url"
	"strings"
)

// ReadyState mirrors the state of a browser WebSocket.
type ReadyState int32

const (
	StateConnecting ReadyState = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns the string representation of the ready state.
func (s ReadyState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Active reports whether closing a socket in this state is meaningful.
func (s ReadyState) Active() bool {
	return s == StateConnecting || s == StateOpen
}

// EventType names a socket event.
type EventType string

const (
	EventOpen    EventType = "open"
	EventClose   EventType = "close"
	EventError   EventType = "error"
	EventMessage EventType = "message"
)

// Event is delivered to listeners registered on a Socket.
type Event struct {
	Type EventType

	// Frame is set for EventMessage.
	Frame RawFrame

	// Err describes the failure for EventError, and for an abnormal EventClose.
	Err error

	// Code and Reason are the close frame contents for EventClose.
	Code   int
	Reason string

	// WasClean reports whether the close handshake completed.
	WasClean bool
}

// Socket is the transport a Task drives. Implementations deliver events to
// their listeners in transport order and never before Start is called.
type Socket interface {
	// URL returns the resolved socket URL.
	URL() string

	// ReadyState returns the current connection state.
	ReadyState() ReadyState

	// SetBinaryType selects how binary frames are delivered.
	SetBinaryType(BinaryType)

	// AddEventListener registers fn for events of type typ.
	AddEventListener(typ EventType, fn func(Event)) *Listener

	// Start begins connecting and delivering events. It is idempotent.
	Start()

	// SendText sends a text frame. It fails unless the socket is open.
	SendText(s string) error

	// SendBinary sends a binary frame. It fails unless the socket is open.
	SendBinary(b []byte) error

	// Close requests a close. It does nothing unless the socket is
	// connecting or open.
	Close() error
}

// SocketFactory creates a Socket for rawURL. It must fail synchronously only
// when the socket cannot be created at all.
type SocketFactory func(rawURL string, cfg *SocketConfig) (Socket, error)

// ParseURL validates rawURL the way a browser WebSocket constructor does:
// the scheme must be ws or wss (http and https are mapped to them), there
// must be a host, and there must be no fragment.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newCreationError(rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		u.Scheme = strings.ToLower(u.Scheme)
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, newCreationError(rawURL, ErrInvalidScheme)
	}

	if u.Host == "" {
		return nil, newCreationError(rawURL, ErrMissingHost)
	}
	if u.Fragment != "" || strings.Contains(rawURL, "#") {
		return nil, newCreationError(rawURL, ErrURLFragment)
	}
	return u, nil
}
