package echoserver

import (
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serverMetrics struct {
	connections prometheus.Gauge
	upgrades    *prometheus.CounterVec
	echoedTotal *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "wstask",
			Subsystem: "echo",
			Name:      "connections_active",
			Help:      "Number of open echo connections",
		}),
		upgrades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wstask",
			Subsystem: "echo",
			Name:      "upgrades_total",
			Help:      "Upgrade attempts by result (ok, limited, failed)",
		}, []string{"result"}),
		echoedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wstask",
			Subsystem: "echo",
			Name:      "frames_echoed_total",
			Help:      "Frames echoed back to clients by kind",
		}, []string{"kind"}),
	}
}

func (m *serverMetrics) upgrade(result string) {
	m.upgrades.WithLabelValues(result).Inc()
}

func (m *serverMetrics) echoed(messageType int) {
	kind := "binary"
	if messageType == websocket.TextMessage {
		kind = "text"
	}
	m.echoedTotal.WithLabelValues(kind).Inc()
}
