package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := NewMetrics(registry)
	require.NoError(t, err)

	_, err = NewMetrics(registry)
	assert.ErrorContains(t, err, "register metric")

	_, err = NewMetrics(prometheus.NewRegistry())
	assert.NoError(t, err, "a fresh registry must accept a second instance")
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveRequest(http.MethodGet, "/api/v1/orders", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/orders", http.StatusOK, 40*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/orders", http.StatusUnauthorized, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/orders", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/orders", "401")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestMetrics_ActiveRequests(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RequestStarted()
	m.RequestStarted()
	m.RequestFinished()

	assert.InDelta(t, 1, testutil.ToFloat64(m.activeRequests), 0)
}

func TestMetrics_ObserveOperationAndQuery(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveOperation("create", "success", time.Millisecond)
	m.ObserveOperation("create", "not_found", time.Millisecond)
	m.ObserveQuery("insert", time.Millisecond)
	m.ObserveQuery("select", time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("create", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("create", "not_found")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
}

func TestMetrics_SetProcessStats(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetProcessStats(ProcessStats{CPUPercent: 12.5, MemoryBytes: 1024, Threads: 9})

	assert.InDelta(t, 12.5, testutil.ToFloat64(m.cpuPercent), 0)
	assert.InDelta(t, 1024, testutil.ToFloat64(m.memoryBytes), 0)
	assert.InDelta(t, 9, testutil.ToFloat64(m.threadCount), 0)
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewMetrics(registry)
	require.NoError(t, err)

	m.ObserveRequest(http.MethodPost, "/api/v1/orders", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `http_requests_total{endpoint="/api/v1/orders",method="POST",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop.RequestStarted()
		Nop.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
		Nop.ObserveOperation("list", "success", time.Second)
		Nop.ObserveQuery("select", time.Second)
		Nop.RequestFinished()
	})
}
