package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/wstask/pkg/codec"
)

// MetricsConfig configures the Prometheus metrics for tasks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "wstask").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "wstask",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by tasks. A nil *Metrics
// records nothing.
type Metrics struct {
	tasksActive    prometheus.Gauge
	tasksTotal     prometheus.Counter
	connectErrors  prometheus.Counter
	statusEvents   *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	sendErrors     *prometheus.CounterVec
	sendsSkipped   *prometheus.CounterVec
}

// NewMetrics registers the task collectors. It panics if they are already
// registered with the chosen registry.
//
// Metrics collected:
//   - wstask_tasks_active: Gauge of open tasks
//   - wstask_tasks_total: Counter of tasks created
//   - wstask_connect_errors_total: Counter of socket creation failures
//   - wstask_status_events_total: Counter of status events by status
//   - wstask_frames_received_total: Counter of inbound frames by kind
//   - wstask_frames_dropped_total: Counter of frames dropped by the mode
//   - wstask_decode_errors_total: Counter of per-message decode failures
//   - wstask_frames_sent_total: Counter of outbound frames by kind
//   - wstask_send_errors_total: Counter of sends rejected by the transport
//   - wstask_sends_skipped_total: Counter of sends skipped on encode failure
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{"kind"})
	}

	return &Metrics{
		tasksActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_active",
			Help:        "Number of WebSocket tasks not yet closed",
			ConstLabels: config.ConstLabels,
		}),
		tasksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_total",
			Help:        "Total number of WebSocket tasks created",
			ConstLabels: config.ConstLabels,
		}),
		connectErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connect_errors_total",
			Help:        "Total number of sockets that could not be created",
			ConstLabels: config.ConstLabels,
		}),
		statusEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "status_events_total",
			Help:        "Total status events reported to owners",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),
		framesReceived: counterVec("frames_received_total", "Total inbound frames by kind"),
		framesDropped:  counterVec("frames_dropped_total", "Total inbound frames dropped by the connection mode"),
		decodeErrors:   counterVec("decode_errors_total", "Total per-message decode failures by decode path"),
		framesSent:     counterVec("frames_sent_total", "Total outbound frames by kind"),
		sendErrors:     counterVec("send_errors_total", "Total outbound frames rejected by the transport"),
		sendsSkipped:   counterVec("sends_skipped_total", "Total sends skipped because the payload failed to encode"),
	}
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.tasksTotal.Inc()
	m.tasksActive.Inc()
}

func (m *Metrics) taskClosed() {
	if m == nil {
		return
	}
	m.tasksActive.Dec()
}

func (m *Metrics) connectError() {
	if m == nil {
		return
	}
	m.connectErrors.Inc()
}

func (m *Metrics) status(s Status) {
	if m == nil {
		return
	}
	m.statusEvents.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) frameReceived(k codec.Kind) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) frameDropped(k codec.Kind) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) decodeError(k codec.Kind) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) frameSent(k codec.Kind) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) sendError(k codec.Kind) {
	if m == nil {
		return
	}
	m.sendErrors.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) sendSkipped(k codec.Kind) {
	if m == nil {
		return
	}
	m.sendsSkipped.WithLabelValues(k.String()).Inc()
}
