package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream catalog Prometheus metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream catalog requests",
		},
		[]string{"status"}, // "ok" / "unavailable" / "rejected" / "throttled"
	)

	UpstreamRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gamedex",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream catalog request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	UpstreamInvalidRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamedex",
			Name:      "upstream_invalid_records_total",
			Help:      "Catalog records dropped by boundary validation",
		},
	)

	UpstreamQuotaRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamedex",
			Name:      "upstream_quota_remaining",
			Help:      "Upstream requests left in the daily quota (-1 if unlimited)",
		},
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers upstream catalog metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamInvalidRecordsTotal)
	prometheus.MustRegister(UpstreamQuotaRemaining)
	upstreamMetricsRegistered = true
}
