// Package app is the composition root shared by the server, the operator CLI and the SDK.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/config"
	"github.com/kailas-cloud/gamedex/internal/db"
	dbBadger "github.com/kailas-cloud/gamedex/internal/db/badger"
	dbPostgres "github.com/kailas-cloud/gamedex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/gamedex/internal/db/redis"
	"github.com/kailas-cloud/gamedex/internal/domain/search/authz"
	"github.com/kailas-cloud/gamedex/internal/domain/search/builder"
	"github.com/kailas-cloud/gamedex/internal/domain/search/franchise"
	"github.com/kailas-cloud/gamedex/internal/domain/search/tables"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	quotarepo "github.com/kailas-cloud/gamedex/internal/repository/quota"
	"github.com/kailas-cloud/gamedex/internal/repository/searchcache"
	"github.com/kailas-cloud/gamedex/internal/transport/catalog"
	healthuc "github.com/kailas-cloud/gamedex/internal/usecase/health"
	quotauc "github.com/kailas-cloud/gamedex/internal/usecase/quota"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// App holds the wired services. Close releases the cache pool and the store.
type App struct {
	Search  *searchuc.Service
	Health  *healthuc.Service
	Quota   *quotauc.Tracker
	Catalog *catalog.Client
	Store   db.Store

	cache *searchcache.Cache
}

// Option customizes wiring.
type Option func(*options)

type options struct {
	metrics bool
}

// WithMetrics wires the cache counters into the process-wide registry.
// The caller registers them with metrics.RegisterSearchMetrics.
func WithMetrics() Option {
	return func(o *options) { o.metrics = true }
}

// OpenStore creates the durable tier for the configured driver and waits until it is ready.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	case config.DriverPostgres:
		store, err = dbPostgres.NewStore(ctx, dbPostgres.Config{DSN: cfg.DSN})
	case config.DriverBadger:
		store, err = dbBadger.Open(dbBadger.Config{Path: cfg.Path, InMemory: cfg.InMemory}, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
	}
	return store, nil
}

// New wires the search engine on top of an open store. The App takes ownership of store.
func New(ctx context.Context, cfg config.Config, store db.Store, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tbl, err := loadTables(cfg.Search.TablesPath)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(catalog.Config{
		URL:        cfg.Catalog.URL,
		ClientID:   cfg.Catalog.ClientID,
		Token:      cfg.Catalog.Token,
		Timeout:    time.Duration(cfg.Catalog.TimeoutMs) * time.Millisecond,
		RatePerSec: cfg.Catalog.RatePerSec,
		Burst:      cfg.Catalog.Burst,
		MaxRetries: cfg.Catalog.MaxRetries,
		ImageSize:  cfg.Catalog.ImageSize,
	}, logger.Named("catalog"))
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	// Requests are counted even when the limit is 0 (unlimited) so operators can see usage.
	tracker := quotauc.NewTracker(cfg.Quota.DailyRequestLimit, quotauc.Action(cfg.Quota.Action), logger)
	tracker.WithStore(ctx, quotarepo.New(store, quotarepo.DefaultTTL))
	guarded := quotauc.NewInstrumentedCatalog(cat, tracker, logger)

	qb, err := builder.New(tbl)
	if err != nil {
		return nil, fmt.Errorf("create query builder: %w", err)
	}

	cacheOpts := []searchcache.Option{
		searchcache.OnRefreshError(func(key string, err error) {
			logger.Warn("Background refresh failed", zap.String("key", key), zap.Error(err))
		}),
	}
	if o.metrics {
		cacheOpts = append(cacheOpts, searchcache.WithMetrics(metrics.CacheRequestsTotal, metrics.CacheRefreshTotal))
	}
	swr := true
	if cfg.Cache.StaleWhileRevalidate != nil {
		swr = *cfg.Cache.StaleWhileRevalidate
	}
	cache, err := searchcache.New(store, searchcache.Config{
		Tier1Size:            cfg.Cache.Tier1Size,
		Tier1TTL:             time.Duration(cfg.Cache.Tier1TTLSec) * time.Second,
		Tier2TTL:             time.Duration(cfg.Cache.Tier2TTLSec) * time.Second,
		Grace:                time.Duration(cfg.Cache.GraceSec) * time.Second,
		StaleWhileRevalidate: swr,
		RefreshWorkers:       cfg.Cache.RefreshWorkers,
		RefreshTimeout:       time.Duration(cfg.Cache.RefreshTimeoutSec) * time.Second,
		Tier2Timeout:         time.Duration(cfg.Cache.Tier2TimeoutMs) * time.Millisecond,
		PartialTTL:           time.Duration(cfg.Cache.PartialTTLSec) * time.Second,
		KeyPrefix:            cfg.Cache.KeyPrefix,
	}, logger.Named("cache"), cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	svc := searchuc.New(
		guarded,
		franchise.NewDetector(tbl),
		qb,
		authz.NewFilter(tbl),
		cache,
		cfg.Tuning(),
		logger.Named("search"),
	)

	return &App{
		Search:  svc,
		Health:  healthuc.New(store, cat),
		Quota:   tracker,
		Catalog: cat,
		Store:   store,
		cache:   cache,
	}, nil
}

// Close stops background refreshes and closes the store.
func (a *App) Close() {
	a.cache.Close()
	a.Store.Close()
}

func loadTables(path string) (*tables.Tables, error) {
	if path == "" {
		t, err := tables.Default()
		if err != nil {
			return nil, fmt.Errorf("load built-in tables: %w", err)
		}
		return t, nil
	}
	t, err := tables.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load tables %s: %w", path, err)
	}
	return t, nil
}
