package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the frame level counters of a server.
type Metrics struct {
	framesParsed  *prometheus.CounterVec
	parseFailures prometheus.Counter
	connections   prometheus.Gauge
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		framesParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "h3wire",
			Name:      "frames_parsed_total",
			Help:      "Frames fully decoded, by frame type.",
		}, []string{"type"}),
		parseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "h3wire",
			Name:      "parse_failures_total",
			Help:      "Sessions torn down by a frame parse failure.",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "h3wire",
			Name:      "connections_open",
			Help:      "Currently open QUIC connections.",
		}),
	}
}

func (m *Metrics) frameParsed(frameType string) {
	if m == nil {
		return
	}
	m.framesParsed.WithLabelValues(frameType).Inc()
}

func (m *Metrics) parseFailed() {
	if m == nil {
		return
	}
	m.parseFailures.Inc()
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}
