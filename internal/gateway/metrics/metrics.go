// Package metrics exposes the gateway's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatgate"

// Metrics holds the gateway's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	gateDecisions    *prometheus.CounterVec
	rotations        *prometheus.CounterVec
	keyExpiry        prometheus.Gauge
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram
}

// New registers the gateway collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "API key gate decisions by outcome.",
		}, []string{"decision"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_rotations_total",
			Help:      "Key refresh attempts by result (rotated, unchanged, persist_error).",
		}, []string{"result"}),
		keyExpiry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "key_expiry_timestamp_seconds",
			Help:      "Unix time at which the current API key expires.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Chat completion calls to the upstream API by outcome.",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream chat completion latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	reg.MustRegister(
		m.gateDecisions,
		m.rotations,
		m.keyExpiry,
		m.upstreamRequests,
		m.upstreamLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRotation records the outcome of a refresh attempt and the expiry of
// whatever record is now current.
func (m *Metrics) ObserveRotation(result string, current keyx.KeyRecord) {
	m.rotations.WithLabelValues(result).Inc()
	m.SetKeyExpiry(current)
}

// SetKeyExpiry publishes the expiry of the current record.
func (m *Metrics) SetKeyExpiry(current keyx.KeyRecord) {
	if current.IsZero() {
		return
	}
	m.keyExpiry.Set(float64(current.Expiry.Unix()))
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(outcome string, took time.Duration) {
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamLatency.Observe(took.Seconds())
}

// InstrumentGate wraps a gate so every decision is counted. The decision
// itself is untouched.
func (m *Metrics) InstrumentGate(v Validator) Validator {
	return &instrumentedGate{next: v, decisions: m.gateDecisions}
}

// Validator matches httpx.Validator without importing the HTTP layer.
type Validator interface {
	Validate(presented, path string) keyx.Decision
}

type instrumentedGate struct {
	next      Validator
	decisions *prometheus.CounterVec
}

func (g *instrumentedGate) Validate(presented, path string) keyx.Decision {
	d := g.next.Validate(presented, path)
	g.decisions.WithLabelValues(d.String()).Inc()
	return d
}
