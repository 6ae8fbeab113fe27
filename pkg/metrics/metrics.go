// Package metrics defines the Prometheus metric collectors used by the
// indexer and searcher and exposes an HTTP server for scraping and health
// probes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IndexBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_builds_total",
			Help: "Total index builds by status (success, error, persist_error).",
		},
		[]string{"status"},
	)
	IndexBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_build_duration_seconds",
			Help:    "Full index rebuild duration in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	DocumentsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "documents_indexed",
			Help: "Documents in the currently installed index snapshot.",
		},
	)
	IndexTermCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_term_count",
			Help: "Distinct terms in the currently installed index snapshot.",
		},
	)
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Total search queries by result type (hit, zero_result, error).",
		},
		[]string{"result_type"},
	)
	SearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_latency_seconds",
			Help:    "Search query latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"cache_status"},
	)
	SearchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_results_count",
			Help:    "Number of results returned per search query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
	SuggestRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_requests_total",
			Help: "Total autocomplete suggestion requests.",
		},
	)
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total query cache hits.",
		},
	)
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total query cache misses.",
		},
	)
)

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
