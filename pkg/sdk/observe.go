package gamedex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation statuses reported by the observer.
const (
	statusOK          = "ok"
	statusInvalid     = "invalid"
	statusUnavailable = "unavailable"
	statusError       = "error"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	searches   *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamedex",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK calls by operation and status (ok, invalid, unavailable, error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gamedex",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call latency in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamedex",
			Subsystem: "sdk",
			Name:      "search_results_total",
			Help:      "Finished SDK searches by outcome and the cache tier that answered.",
		}, []string{"outcome", "cache"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searches); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers *c, or swaps in the collector already registered
// under the same name so several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("gamedex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("gamedex: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer reports SDK calls to the host's slog logger and prometheus registry.
// Both are optional; a nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// statusOf buckets err so dashboards can tell caller mistakes from outages.
func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrInvalidQuery):
		return statusInvalid
	case IsSearchUnavailable(err) || IsRetryable(err) || errors.Is(err, ErrQuotaExceeded):
		return statusUnavailable
	default:
		return statusError
	}
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("gamedex call failed", "op", op, "status", status, "duration", dur, "error", err)
		return
	}
	o.logger.Debug("gamedex call completed", "op", op, "duration", dur)
}

// observeSearch records where a finished search was answered from.
func (o *observer) observeSearch(res SearchResult) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.searches.WithLabelValues(string(res.Outcome), res.Cache).Inc()
	}
	if o.logger != nil {
		o.logger.Debug("gamedex search answered",
			"search_id", res.SearchID,
			"intent", res.Intent,
			"outcome", res.Outcome,
			"cache", res.Cache,
			"stale", res.Stale,
			"results", len(res.Games),
		)
	}
}
