// Package metrics exposes engine activity as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "reveille_"

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	rings       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	ringing     prometheus.Gauge
	queued      prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
// alarmCount backs the alarms gauge; it may be nil.
func New(alarmCount func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "rings_total",
			Help: "Alarms that started ringing, by sound source",
		}, []string{"sound"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "resolutions_total",
			Help: "Ringing sessions resolved, by reason",
		}, []string{"reason"}),
		ringing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "ringing",
			Help: "1 while an alarm is ringing",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "queued",
			Help: "Matched alarms waiting for the active session to resolve",
		}),
	}
	m.registry.MustRegister(m.rings, m.resolutions, m.ringing, m.queued)

	if alarmCount != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alarms",
				Help: "Alarms in the store",
			},
			func() float64 { return float64(alarmCount()) },
		))
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Rang records a session start.
func (m *Metrics) Rang(sound string) {
	if m == nil {
		return
	}
	m.rings.WithLabelValues(sound).Inc()
	m.ringing.Set(1)
}

// Resolved records a session end.
func (m *Metrics) Resolved(reason string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(reason).Inc()
	m.ringing.Set(0)
}

// SetQueued records the number of alarms waiting to ring.
func (m *Metrics) SetQueued(n int) {
	if m == nil {
		return
	}
	m.queued.Set(float64(n))
}
