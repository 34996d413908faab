// Package telemetry exposes Prometheus metrics for sync passes and upstream
// fetches. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timetable"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry      *prometheus.Registry
	passes        *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	written       *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// New creates a registry with the process and Go runtime collectors plus the
// timetable metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Sync passes by final phase and source.",
		}, []string{"phase", "source"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_pass_duration_seconds",
			Help:      "Wall time of sync passes.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Upstream fetches by source, operation, and outcome code.",
		}, []string{"source", "operation", "code"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Latency of upstream fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "operation"}),
		written: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_records_written_total",
			Help:      "Records written to the cache by collection.",
		}, []string{"collection"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_records_skipped_total",
			Help:      "Records rejected during cache writes by collection.",
		}, []string{"collection"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sync_timestamp_seconds",
			Help:      "Unix time of the last pass that wrote the faculty catalog.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.passes, m.passDuration, m.fetches, m.fetchDuration, m.written, m.skipped, m.lastSuccess,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePass records a finished sync pass.
func (m *Metrics) ObservePass(phase, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.passes.WithLabelValues(phase, source).Inc()
	m.passDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// ObserveFetch records one upstream call. code is empty for success.
func (m *Metrics) ObserveFetch(source, operation, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "ok"
	}
	m.fetches.WithLabelValues(source, operation, code).Inc()
	m.fetchDuration.WithLabelValues(source, operation).Observe(elapsed.Seconds())
}

// AddWritten counts records stored for collection.
func (m *Metrics) AddWritten(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.written.WithLabelValues(collection).Add(float64(n))
}

// AddSkipped counts records rejected for collection.
func (m *Metrics) AddSkipped(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(collection).Add(float64(n))
}

// SetLastSuccess records when a pass last wrote the catalog.
func (m *Metrics) SetLastSuccess(at time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.Set(float64(at.Unix()))
}
