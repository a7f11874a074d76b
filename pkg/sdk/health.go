package gamedex

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/gamedex/internal/usecase/health"
)

// Health states.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthError    = "error"
)

// HealthStatus is the durable tier and catalog reachability as seen by this client.
type HealthStatus struct {
	// Status is HealthOK, HealthDegraded (one dependency down) or HealthError (all down).
	Status string
	// Checks maps "database" and "catalog" to "ok" or "error".
	Checks map[string]string
}

// OK reports whether every dependency answered.
func (h HealthStatus) OK() bool { return h.Status == HealthOK }

// Health probes the durable tier and the catalog concurrently.
// A degraded client can still serve cached searches.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	h := HealthStatus{Status: string(report.Status), Checks: checks}

	var err error
	if !h.OK() {
		err = errUnhealthy{status: h.Status}
	}
	c.obs.observe("health", start, err)
	return h
}

type errUnhealthy struct{ status string }

func (e errUnhealthy) Error() string { return "gamedex: health " + e.status }

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
