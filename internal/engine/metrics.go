package engine

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// metrics holds the engine's own Prometheus collectors, registered
// against a private registry so embedding kush as a library never
// pollutes the process-wide default registry.
type metrics struct {
	registry  *prometheus.Registry
	actions   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kush_actions_total",
		Help: "Count of per-target actions run, by action kind and outcome.",
	}, []string{"kind", "outcome"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kush_action_duration_seconds",
		Help:    "Per-target action duration in seconds, by action kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	registry.MustRegister(actions, durations)
	return &metrics{registry: registry, actions: actions, durations: durations}
}

func (m *metrics) observe(kind ActionKind, outcome string, seconds float64) {
	m.actions.WithLabelValues(kind.String(), outcome).Inc()
	m.durations.WithLabelValues(kind.String()).Observe(seconds)
}

// WriteTo renders the engine's metrics in Prometheus text exposition
// format, for a CLI caller that wants a one-shot dump rather than a
// long-lived /metrics endpoint.
func (m *metrics) WriteTo(w *bytes.Buffer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
