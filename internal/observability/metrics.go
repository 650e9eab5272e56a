package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	entriesSubmittedTotal   *prometheus.CounterVec
	corruptedEntriesSkipped *prometheus.CounterVec
	analyticsCacheTotal     *prometheus.CounterVec
	liveFeedConnections     prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		entriesSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitness_entries_submitted_total",
			Help: "Fitness test entries accepted, by test type.",
		}, []string{"test_type"})

		corruptedEntriesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitness_corrupted_entries_skipped_total",
			Help: "Stored entries skipped on read because a metric did not parse.",
		}, []string{"test_type"})

		analyticsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "class_analytics_cache_total",
			Help: "Class analytics cache lookups by result.",
		}, []string{"result"})

		liveFeedConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_feed_connections",
			Help: "Open admin live feed websocket connections.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			entriesSubmittedTotal,
			corruptedEntriesSkipped,
			analyticsCacheTotal,
			liveFeedConnections,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// EntriesSubmitted counts accepted fitness test submissions.
func EntriesSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return entriesSubmittedTotal
}

// CorruptedEntriesSkipped counts stored rows hidden from readers.
func CorruptedEntriesSkipped() *prometheus.CounterVec {
	RegisterMetrics()
	return corruptedEntriesSkipped
}

// AnalyticsCache counts class analytics cache hits and misses.
func AnalyticsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return analyticsCacheTotal
}

// LiveFeedConnections tracks connected live feed clients.
func LiveFeedConnections() prometheus.Gauge {
	RegisterMetrics()
	return liveFeedConnections
}
