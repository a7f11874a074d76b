package quota

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Catalog is the upstream search call being guarded.
type Catalog interface {
	Search(ctx context.Context, body string) ([]game.Game, error)
}

// Checker is the local interface for quota enforcement.
type Checker interface {
	Check(ctx context.Context) error
	Record(n int64)
	Remaining() int64
}

// InstrumentedCatalog wraps a Catalog with quota enforcement.
// Transport metrics (requests, duration) are recorded in transport/catalog.
type InstrumentedCatalog struct {
	inner  Catalog
	quota  Checker
	logger *zap.Logger
}

// NewInstrumentedCatalog wraps a catalog with quota tracking. A nil quota disables it.
func NewInstrumentedCatalog(inner Catalog, quota Checker, logger *zap.Logger) *InstrumentedCatalog {
	return &InstrumentedCatalog{inner: inner, quota: quota, logger: logger}
}

// Search checks the quota, delegates, and counts the request whether or not it succeeded.
func (c *InstrumentedCatalog) Search(ctx context.Context, body string) ([]game.Game, error) {
	if c.quota != nil {
		if err := c.quota.Check(ctx); err != nil {
			c.logger.Error("Upstream quota exceeded", zap.Error(err))
			return nil, fmt.Errorf("quota check: %w", err)
		}
	}

	games, err := c.inner.Search(ctx, body)

	if c.quota != nil {
		c.quota.Record(1)
		metrics.UpstreamQuotaRemaining.Set(float64(c.quota.Remaining()))
	}
	if err != nil {
		return nil, err
	}
	return games, nil
}
