// Package metrics exposes Prometheus metrics for dataset access and queries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider owns the Prometheus registry.
type Provider struct {
	reg *prometheus.Registry
}

// Init creates a registry with the standard Go and process collectors.
func Init() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Provider{reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Metrics holds the medenv collectors. A nil *Metrics records nothing.
type Metrics struct {
	OpenAttempts  *prometheus.CounterVec
	Opens         *prometheus.CounterVec
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpenAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medenv_dataset_open_attempts_total",
				Help: "Dataset open attempts, including retries.",
			},
			[]string{"dataset"},
		),
		Opens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medenv_dataset_opens_total",
				Help: "Dataset opens by final outcome (ok, unreachable).",
			},
			[]string{"outcome"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medenv_queries_total",
				Help: "Feature queries by outcome.",
			},
			[]string{"feature", "outcome"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medenv_query_duration_seconds",
				Help:    "Feature query latency including dataset access.",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
			},
			[]string{"source"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.OpenAttempts, m.Opens, m.Queries, m.QueryDuration)
	}
	return m
}

func (m *Metrics) OpenAttempt(dataset string) {
	if m == nil {
		return
	}
	m.OpenAttempts.WithLabelValues(dataset).Inc()
}

func (m *Metrics) OpenOutcome(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Opens.WithLabelValues("ok").Inc()
		return
	}
	m.Opens.WithLabelValues("unreachable").Inc()
}

// ObserveQuery records one query. outcome is "ok" or an error class.
func (m *Metrics) ObserveQuery(source, feature, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(feature, outcome).Inc()
	m.QueryDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
