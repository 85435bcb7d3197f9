package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the Prometheus Recorder. It registers on the registry it is
// given, so tests can build as many instances as they need.
type Metrics struct {
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	activeRequests    prometheus.Gauge
	queryDuration     *prometheus.HistogramVec
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	cpuPercent        prometheus.Gauge
	memoryBytes       prometheus.Gauge
	threadCount       prometheus.Gauge
}

func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_requests_total",
			Help: "Number of HTTP requests currently being served.",
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"query_type"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_operations_total",
			Help: "Order operations by outcome.",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orders_operation_duration_seconds",
			Help:    "Order operation duration in seconds, including identity confirmation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_cpu_percent",
			Help: "CPU usage of the process in percent of one core.",
		}),
		memoryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_memory_bytes",
			Help: "Memory obtained from the OS by the Go runtime in bytes.",
		}),
		threadCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "process_thread_count",
			Help: "Number of OS threads created by the process.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.requests,
		m.requestDuration,
		m.activeRequests,
		m.queryDuration,
		m.operations,
		m.operationDuration,
		m.cpuPercent,
		m.memoryBytes,
		m.threadCount,
		collectors.NewGoCollector(),
	} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RequestStarted() {
	m.activeRequests.Inc()
}

func (m *Metrics) RequestFinished() {
	m.activeRequests.Dec()
}

func (m *Metrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) ObserveQuery(queryType string, duration time.Duration) {
	m.queryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// SetProcessStats updates the process gauges.
func (m *Metrics) SetProcessStats(stats ProcessStats) {
	m.cpuPercent.Set(stats.CPUPercent)
	m.memoryBytes.Set(float64(stats.MemoryBytes))
	m.threadCount.Set(float64(stats.Threads))
}

// Handler exposes the metrics gathered by gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
