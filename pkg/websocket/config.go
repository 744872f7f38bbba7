package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// SocketConfig holds transport configuration for NetSocket.
type SocketConfig struct {
	// HandshakeTimeout bounds the opening handshake.
	// Default: 15 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write. Zero means no timeout.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// CloseGracePeriod is how long to wait for the peer's close frame after
	// sending ours before the connection is dropped. Zero or negative uses
	// the default.
	// Default: 1 second.
	CloseGracePeriod time.Duration

	// MaxMessageSize is the largest inbound message accepted.
	// Default: 32MB. Zero means no limit.
	MaxMessageSize int64

	// EnableCompression negotiates per-message deflate.
	EnableCompression bool

	// Header is sent with the opening handshake.
	Header http.Header

	// Subprotocols are offered during the handshake.
	Subprotocols []string

	// Dialer overrides the dialer template. Its HandshakeTimeout,
	// Subprotocols and EnableCompression are replaced by the fields above.
	Dialer *websocket.Dialer

	// Logger receives transport diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultSocketConfig returns a SocketConfig with sensible defaults.
func DefaultSocketConfig() *SocketConfig {
	return &SocketConfig{
		HandshakeTimeout: 15 * time.Second,
		WriteTimeout:     10 * time.Second,
		CloseGracePeriod: time.Second,
		MaxMessageSize:   32 << 20,
	}
}

// Clone returns a copy of the config.
func (c *SocketConfig) Clone() *SocketConfig {
	if c == nil {
		return DefaultSocketConfig()
	}
	clone := *c
	if c.Header != nil {
		clone.Header = c.Header.Clone()
	}
	if c.Subprotocols != nil {
		clone.Subprotocols = append([]string(nil), c.Subprotocols...)
	}
	return &clone
}

func (c *SocketConfig) dialer() *websocket.Dialer {
	var d websocket.Dialer
	if c.Dialer != nil {
		d = *c.Dialer
	} else {
		d = *websocket.DefaultDialer
	}
	d.HandshakeTimeout = c.HandshakeTimeout
	d.EnableCompression = c.EnableCompression
	if len(c.Subprotocols) > 0 {
		d.Subprotocols = append([]string(nil), c.Subprotocols...)
	}
	return &d
}

func (c *SocketConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
