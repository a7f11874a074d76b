package gamedex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores the durable cache tier in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverValkey
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithRedis stores the durable cache tier in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithPostgres stores the durable cache tier in Postgres. Tables are created on connect.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverPostgres
		c.cfg.Database.DSN = dsn
	})
}

// WithBadger stores the durable cache tier in an embedded database at path.
// An empty path keeps it in memory.
func WithBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverBadger
		c.cfg.Database.Path = path
		c.cfg.Database.InMemory = path == ""
	})
}

// WithCatalog sets the catalog proxy endpoint and credentials. Required.
func WithCatalog(url, clientID, token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Catalog.URL = url
		c.cfg.Catalog.ClientID = clientID
		c.cfg.Catalog.Token = token
	})
}

// WithRateLimit bounds requests per second to the catalog.
func WithRateLimit(perSec float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Catalog.RatePerSec = perSec
		c.cfg.Catalog.Burst = burst
	})
}

// WithImageSize sets the size token cover and screenshot URLs are rewritten to.
// Default: t_1080p.
func WithImageSize(size string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Catalog.ImageSize = size
	})
}

// WithCacheTTL sets the in-process and durable lifetimes and the grace period
// during which expired entries are served while they refresh.
func WithCacheTTL(memory, durable, grace time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Cache.Tier1TTLSec = int(memory / time.Second)
		c.cfg.Cache.Tier2TTLSec = int(durable / time.Second)
		c.cfg.Cache.GraceSec = int(grace / time.Second)
	})
}

// WithoutStaleWhileRevalidate makes expired entries a miss instead of a stale hit.
func WithoutStaleWhileRevalidate() Option {
	return optionFunc(func(c *clientConfig) {
		off := false
		c.cfg.Cache.StaleWhileRevalidate = &off
	})
}

// WithThresholds sets the minimum relevance per intent.
func WithThresholds(exact, franchise, general float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.Thresholds = config.ThresholdsConfig{Exact: exact, Franchise: franchise, General: general}
	})
}

// WithSearchTimeout bounds a whole search and each of its sub-queries.
func WithSearchTimeout(search, subQuery time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.SearchTimeoutMs = int(search / time.Millisecond)
		c.cfg.Search.SubQueryTimeoutMs = int(subQuery / time.Millisecond)
	})
}

// WithTables loads franchise, sister-title and authorization tables from a YAML file
// instead of the built-in ones.
func WithTables(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Search.TablesPath = path
	})
}

// WithDailyQuota caps catalog requests per UTC day. With reject set, searches
// fail with ErrQuotaExceeded once the cap is hit; otherwise a warning is logged.
func WithDailyQuota(limit int64, reject bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Quota.DailyRequestLimit = limit
		c.cfg.Quota.Action = "warn"
		if reject {
			c.cfg.Quota.Action = "reject"
		}
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZapLogger routes the engine's internal logs (cache refreshes, catalog
// retries, quota warnings) to l. Internals are silent by default.
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
