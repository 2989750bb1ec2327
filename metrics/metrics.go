package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "schotter"

// Registry holds the sketch's collectors. Each Registry is independent, so tests can build their own.
type Registry struct {
	registry *prometheus.Registry

	framesTotal       prometheus.Counter
	commandsTotal     *prometheus.CounterVec
	capturesTotal     *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	clientsConnected  prometheus.Gauge
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),
	}

	m.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gravel",
		Name:      "frames_total",
		Help:      "Number of full gravel recomputations.",
	})

	m.recomputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gravel",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of a full gravel recomputation.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	m.commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "control",
		Name:      "commands_total",
		Help:      "Number of control commands applied, by kind.",
	}, []string{"kind"})

	m.capturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "control",
		Name:      "captures_total",
		Help:      "Number of frame captures, by result.",
	}, []string{"result"})

	m.clientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "clients_connected",
		Help:      "Number of connected control panel websockets.",
	})

	m.registry.MustRegister(
		m.framesTotal,
		m.recomputeDuration,
		m.commandsTotal,
		m.capturesTotal,
		m.clientsConnected,
		collectors.NewGoCollector(),
	)
	return m
}

// Gatherer exposes the registry for promhttp.
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveFrame records one recomputation that started at started.
func (m *Registry) ObserveFrame(started time.Time) {
	m.framesTotal.Inc()
	m.recomputeDuration.Observe(time.Since(started).Seconds())
}

// IncCommand counts an applied command.
func (m *Registry) IncCommand(kind string) {
	m.commandsTotal.WithLabelValues(kind).Inc()
}

// IncCapture counts a frame capture; ok is false for failed writes.
func (m *Registry) IncCapture(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.capturesTotal.WithLabelValues(result).Inc()
}

// ClientConnected tracks a websocket for its lifetime; call the returned func on disconnect.
func (m *Registry) ClientConnected() (disconnected func()) {
	m.clientsConnected.Inc()
	return m.clientsConnected.Dec
}
