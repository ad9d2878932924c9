package gate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks gate decisions. Registration is optional so the engine stays
// usable as a plain library without a metrics endpoint.
type Metrics struct {
	decisions *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics builds the gate metrics and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Gate decisions by result and reason kind.",
		}, []string{"result", "reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "compliance",
			Subsystem: "gate",
			Name:      "evaluation_seconds",
			Help:      "Gate evaluation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.duration)
	}
	return m
}

func (m *Metrics) observe(allowed bool, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	if reason == "" {
		reason = "none"
	}
	m.decisions.WithLabelValues(result, reason).Inc()
	m.duration.Observe(elapsed.Seconds())
}
