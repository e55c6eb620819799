package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_search_requests_total",
			Help: "Total number of search requests by plan mode",
		},
		[]string{"mode"},
	)

	SearchRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipebox_search_rows",
			Help:    "Rows returned per search by plan mode",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_storage_errors_total",
			Help: "Total number of failed storage queries by plan mode",
		},
		[]string{"mode"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_page_cache_hits_total",
			Help: "Total number of search pages served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_page_cache_misses_total",
			Help: "Total number of search pages not found in cache",
		},
	)

	CacheErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_page_cache_errors_total",
			Help: "Total number of page cache failures, including open breaker rejections",
		},
	)

	// CacheBreakerState is 0 closed, 1 half-open, 2 open.
	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipebox_page_cache_breaker_state",
			Help: "State of the page cache circuit breaker",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	ImportedRecipes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_imported_recipes_total",
			Help: "Total number of recipes written by the importer by source kind",
		},
		[]string{"source"},
	)
)

// RecordSearch records the outcome of one search.
func RecordSearch(mode string, rows int) {
	SearchRequests.WithLabelValues(mode).Inc()
	SearchRows.WithLabelValues(mode).Observe(float64(rows))
}
