package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and cache Prometheus metrics.
var (
	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "cache_requests_total",
			Help:      "Search cache lookups per tier",
		},
		[]string{"tier", "result"}, // result: hit / stale / miss / error / write_error
	)

	CacheRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "cache_refresh_total",
			Help:      "Background cache refreshes",
		},
		[]string{"status"}, // ok / failed / skipped
	)

	SearchSubQueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "search_subquery_total",
			Help:      "Executed sub-queries by intent and status",
		},
		[]string{"intent", "status"},
	)

	SearchSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "search_suppressed_total",
			Help:      "Candidates suppressed by the content filter",
		},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamedex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheRequestsTotal)
	prometheus.MustRegister(CacheRefreshTotal)
	prometheus.MustRegister(SearchSubQueryTotal)
	prometheus.MustRegister(SearchSuppressedTotal)
	prometheus.MustRegister(SearchDuration)
	searchMetricsRegistered = true
}
