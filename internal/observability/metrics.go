package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	loginAttemptsTotal *prometheus.CounterVec
	catalogSyncTotal   *prometheus.CounterVec
	activityFailures   prometheus.Counter
	forbiddenTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eybms_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eybms_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		loginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eybms_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"})

		catalogSyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eybms_catalog_sync_total",
			Help: "Catalog sync runs by outcome.",
		}, []string{"outcome"})

		activityFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eybms_activity_log_failures_total",
			Help: "Activity log entries that could not be persisted.",
		})

		forbiddenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eybms_forbidden_requests_total",
			Help: "Requests rejected by the role gate.",
		}, []string{"route"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, loginAttemptsTotal, catalogSyncTotal, activityFailures, forbiddenTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// LoginAttempts counts login outcomes: success, unknown_account, wrong_password, decrypt_failed, error.
func LoginAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return loginAttemptsTotal
}

// CatalogSyncRuns counts catalog sync outcomes.
func CatalogSyncRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return catalogSyncTotal
}

// ActivityLogFailures counts audit writes that failed.
func ActivityLogFailures() prometheus.Counter {
	RegisterMetrics()
	return activityFailures
}

// ForbiddenRequests counts role gate rejections.
func ForbiddenRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return forbiddenTotal
}
