// Package metric exposes Prometheus instrumentation for the viewer.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors the session manager and handlers update.
type Metrics struct {
	DocumentsParsed *prometheus.CounterVec
	ParseErrors     *prometheus.CounterVec
	ParseDuration   prometheus.Histogram
	ActiveSessions  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datascope",
			Name:      "documents_parsed_total",
			Help:      "Documents parsed, labelled by detected format.",
		}, []string{"format"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datascope",
			Name:      "parse_errors_total",
			Help:      "Parse errors surfaced to the user, labelled by severity.",
		}, []string{"severity"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "datascope",
			Name:      "parse_duration_seconds",
			Help:      "Wall time of document parses.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "datascope",
			Name:      "active_sessions",
			Help:      "Document sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.DocumentsParsed, m.ParseErrors, m.ParseDuration, m.ActiveSessions)
	return m
}
