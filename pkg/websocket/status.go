package websocket

import (
	"log/slog"

	"github.com/vango-dev/wstask/pkg/codec"
	"go.opentelemetry.io/otel/trace"
)

// Status is a connection-level event reported to the owner of a Task.
type Status uint8

const (
	StatusOpened Status = iota // The handshake completed
	StatusClosed               // The connection closed
	StatusError                // The transport failed or rejected a send
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOpened:
		return "opened"
	case StatusClosed:
		return "closed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusFunc receives status events.
type StatusFunc func(Status)

// MessageFunc receives decoded inbound messages.
type MessageFunc func(codec.Message)

// notifier is the status sink shared by a task and its listeners. It is
// read-only after construction.
type notifier struct {
	sink    StatusFunc
	logger  *slog.Logger
	metrics *Metrics
	span    trace.Span
}

func (n *notifier) emit(s Status) {
	n.logger.Debug("status", "status", s.String())
	n.metrics.status(s)
	recordStatus(n.span, s)
	if n.sink != nil {
		n.sink(s)
	}
}
