package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("POST", "/api/v1/sales", 201, 120*time.Millisecond)
	m.Observe("POST", "/api/v1/sales", 201, 80*time.Millisecond)
	m.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	mf := findMetricFamily(mfs, "pharmaledger_http_requests_total")
	require.NotNil(t, mf)
	assert.Equal(t, 2.0, counterWithLabels(mf, map[string]string{"route": "/api/v1/sales", "status": "201"}))
	assert.Equal(t, 1.0, counterWithLabels(mf, map[string]string{"route": "unmatched", "status": "404"}))

	hist := findMetricFamily(mfs, "pharmaledger_http_request_duration_seconds")
	require.NotNil(t, hist)
	for _, metric := range hist.GetMetric() {
		if matchesLabels(metric.GetLabel(), map[string]string{"route": "/api/v1/sales"}) {
			assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
			assert.InDelta(t, 0.2, metric.GetHistogram().GetSampleSum(), 1e-9)
		}
	}
}

func TestHTTPMetrics_NilSafe(t *testing.T) {
	var m *HTTPMetrics
	assert.NotPanics(t, func() { m.Observe("GET", "/", 200, time.Second) })
	assert.NotPanics(t, func() { NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second) })
}

func TestReconcileMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconcileMetrics(reg)

	m.ObserveRun(time.Second, 0, nil)
	m.ObserveRun(time.Second, 3, nil)
	m.ObserveRun(time.Second, 0, errors.New("db down"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "pharmaledger_reconcile_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"result": "ok"}))
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"result": "violations"}))
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"result": "error"}))

	gauge := findMetricFamily(mfs, "pharmaledger_reconcile_violations")
	require.NotNil(t, gauge)
	assert.Equal(t, 3.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "pharmaledger_http_requests_total")
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func counterWithLabels(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, p := range pairs {
			if p.GetName() == name && p.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
