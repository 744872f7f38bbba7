package websocket

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation name used for the default tracer.
const tracerName = "github.com/vango-dev/wstask/pkg/websocket"

// Option configures Connect.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	factory      SocketFactory
	socketConfig *SocketConfig
}

func defaultOptions() options {
	return options{
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		factory: dialSocket,
	}
}

// WithLogger sets the logger for the task and its socket.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records task activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer used for the task span.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithSocketFactory replaces the transport. Tests use it to inject a
// scripted socket.
func WithSocketFactory(factory SocketFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithSocketConfig sets the transport configuration passed to the factory.
func WithSocketConfig(cfg *SocketConfig) Option {
	return func(o *options) {
		o.socketConfig = cfg
	}
}
