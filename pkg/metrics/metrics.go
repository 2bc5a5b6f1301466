// Package metrics exposes Prometheus collectors for the HTTP adapter and the
// reconcile job.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmaledger"

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ReconcileMetrics records reconcile runs and the violations they found.
type ReconcileMetrics struct {
	runs       *prometheus.CounterVec
	violations prometheus.Gauge
	duration   prometheus.Histogram
}

// NewReconcileMetrics registers the reconcile collectors on reg.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Reconcile runs by result (ok, violations, error).",
	}, []string{"result"})
	violations := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconcile_violations",
		Help:      "Invariant violations found by the last reconcile run.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of reconcile runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(runs, violations, duration)
	return &ReconcileMetrics{runs: runs, violations: violations, duration: duration}
}

// ObserveRun records a finished run. err is a read failure; violations is
// the number of broken invariants found.
func (m *ReconcileMetrics) ObserveRun(elapsed time.Duration, violations int, err error) {
	if m == nil || m.runs == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.runs.WithLabelValues("error").Inc()
		return
	case violations > 0:
		m.runs.WithLabelValues("violations").Inc()
	default:
		m.runs.WithLabelValues("ok").Inc()
	}
	m.violations.Set(float64(violations))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unmatched"
	}
	return v
}
