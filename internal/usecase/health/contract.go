package health

import "context"

// DBPinger checks durable tier availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks upstream catalog reachability.
type CatalogChecker interface {
	HealthCheck(ctx context.Context) error
}
