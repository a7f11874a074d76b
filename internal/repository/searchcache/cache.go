package searchcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/gamedex/internal/db"
	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
)

// Defaults applied to zero Config fields.
const (
	DefaultTier1Size      = 1024
	DefaultTier1TTL       = 5 * time.Minute
	DefaultTier2TTL       = 24 * time.Hour
	DefaultGrace          = time.Hour
	DefaultRefreshWorkers = 4
	DefaultRefreshTimeout = 15 * time.Second
	DefaultTier2Timeout   = 500 * time.Millisecond
	DefaultPartialTTL     = 30 * time.Second
)

// store is the consumer interface for the durable tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// FetchFunc produces a fresh payload. It receives its own context on refresh.
// A fetch that could only build part of its payload returns the games together
// with an error wrapping ErrPartial.
type FetchFunc func(ctx context.Context) ([]game.Game, error)

// ErrPartial marks a usable but incomplete payload. It is served and kept in
// memory for Config.PartialTTL without a grace window; it is never written durably.
var ErrPartial = errors.New("partial result")

// Source tells where a result came from.
type Source string

// Sources.
const (
	SourceMemory  Source = "memory"
	SourceDurable Source = "durable"
	SourceLive    Source = "live"
)

// Result is what Get returns.
type Result struct {
	Games    []game.Game
	Source   Source
	Stale    bool
	Partial  bool
	CachedAt time.Time
}

// Config controls tier sizes, lifetimes and revalidation.
type Config struct {
	Tier1Size            int
	Tier1TTL             time.Duration
	Tier2TTL             time.Duration
	Grace                time.Duration
	StaleWhileRevalidate bool
	RefreshWorkers       int
	RefreshTimeout       time.Duration
	// Tier2Timeout bounds each durable read and write. A slow store is a miss.
	Tier2Timeout time.Duration
	PartialTTL   time.Duration
	// KeyPrefix namespaces durable keys; "cache:" is appended.
	KeyPrefix string
}

func (c Config) withDefaults() Config {
	if c.Tier1Size <= 0 {
		c.Tier1Size = DefaultTier1Size
	}
	if c.Tier1TTL <= 0 {
		c.Tier1TTL = DefaultTier1TTL
	}
	if c.Tier2TTL <= 0 {
		c.Tier2TTL = DefaultTier2TTL
	}
	if c.Grace < 0 {
		c.Grace = 0
	}
	if c.RefreshWorkers <= 0 {
		c.RefreshWorkers = DefaultRefreshWorkers
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = DefaultRefreshTimeout
	}
	if c.Tier2Timeout <= 0 {
		c.Tier2Timeout = DefaultTier2Timeout
	}
	if c.PartialTTL <= 0 {
		c.PartialTTL = DefaultPartialTTL
	}
	c.PartialTTL = min(c.PartialTTL, c.Tier1TTL)
	if c.KeyPrefix == "" {
		c.KeyPrefix = domain.KeyPrefix
	}
	return c
}

// Option customizes a Cache.
type Option func(*Cache)

// WithMetrics wires counters. requests has labels "tier","result"; refreshes has label "status".
func WithMetrics(requests, refreshes *prometheus.CounterVec) Option {
	return func(c *Cache) {
		c.requests = requests
		c.refreshes = refreshes
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// OnRefreshError registers a callback for failed background refreshes.
func OnRefreshError(fn func(key string, err error)) Option {
	return func(c *Cache) { c.onRefreshError = fn }
}

// Cache is a two-tier cache: a bounded in-process LRU in front of a durable store.
// Stale entries are served while one background refresh per key runs on a worker pool.
type Cache struct {
	cfg    Config
	tier1  *lru.Cache[string, *Entry]
	tier2  store
	pool   *ants.Pool
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time

	// mu guards inflight and closed; wg.Add happens under it so Close never
	// waits on a counter that can still grow.
	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup

	requests       *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	onRefreshError func(key string, err error)
}

// New creates a cache. Close must be called to release the refresh pool.
func New(s store, cfg Config, logger *zap.Logger, opts ...Option) (*Cache, error) {
	cfg = cfg.withDefaults()

	tier1, err := lru.New[string, *Entry](cfg.Tier1Size)
	if err != nil {
		return nil, fmt.Errorf("create tier1: %w", err)
	}

	c := &Cache{
		cfg:      cfg,
		tier1:    tier1,
		tier2:    s,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	pool, err := ants.NewPool(cfg.RefreshWorkers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("Cache refresh panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create refresh pool: %w", err)
	}
	c.pool = pool
	return c, nil
}

// Get returns the cached payload for key, falling back to fetch on a miss.
// Fetch errors are returned and never cached.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (Result, error) {
	now := c.now()
	var stale *Entry

	if e, ok := c.tier1.Get(key); ok {
		switch e.State(now, c.graceOf(e)) {
		case Fresh:
			c.inc(TierMemory, "hit")
			return resultOf(e, SourceMemory, false), nil
		case Stale:
			c.inc(TierMemory, "stale")
			stale = e
		default:
			c.tier1.Remove(key)
			c.inc(TierMemory, "miss")
		}
	} else {
		c.inc(TierMemory, "miss")
	}

	if e := c.readDurable(ctx, key); e != nil {
		switch e.State(now, c.cfg.Grace) {
		case Fresh:
			c.inc(TierDurable, "hit")
			c.promote(e, now)
			return resultOf(e, SourceDurable, false), nil
		case Stale:
			c.inc(TierDurable, "stale")
			if stale == nil || e.CachedAt().After(stale.CachedAt()) {
				stale = e
			}
		default:
			c.inc(TierDurable, "miss")
		}
	}

	if stale != nil {
		if c.cfg.StaleWhileRevalidate {
			c.scheduleRefresh(key, fetch)
			return resultOf(stale, sourceOf(stale), true), nil
		}
		c.tier1.Remove(key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		games, err := fetch(ctx)
		return c.accept(ctx, key, games, err)
	})
	if err != nil {
		return Result{}, err
	}
	f := v.(fetched)
	return Result{Games: f.games, Source: SourceLive, Partial: f.partial, CachedAt: now}, nil
}

type fetched struct {
	games   []game.Game
	partial bool
}

// accept stores a fetch outcome. Partial payloads stay in tier 1 and errors
// are not stored.
func (c *Cache) accept(ctx context.Context, key string, games []game.Game, err error) (fetched, error) {
	switch {
	case err == nil:
		c.put(ctx, key, games)
		return fetched{games: games}, nil
	case errors.Is(err, ErrPartial):
		if games == nil {
			games = []game.Game{}
		}
		c.putPartial(key, games)
		return fetched{games: games, partial: true}, nil
	default:
		return fetched{}, err
	}
}

// Clear removes key from both tiers.
func (c *Cache) Clear(ctx context.Context, key string) error {
	c.tier1.Remove(key)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Tier2Timeout)
	defer cancel()
	if err := c.tier2.Del(ctx, c.durableKey(key)); err != nil {
		return fmt.Errorf("%w: clear %s: %w", domain.ErrCacheTierUnavailable, key, err)
	}
	return nil
}

// ClearAll purges tier 1 and deletes every durable entry in the namespace.
// Tier 1 is always purged; a durable failure is returned.
func (c *Cache) ClearAll(ctx context.Context) error {
	purged := c.tier1.Len()
	c.tier1.Purge()
	n, err := c.tier2.DeletePrefix(ctx, c.durablePrefix())
	if err != nil {
		return fmt.Errorf("%w: clear all: %w", domain.ErrCacheTierUnavailable, err)
	}
	c.logger.Info("Cache cleared", zap.Int("memory", purged), zap.Int("durable", n))
	return nil
}

// Len returns the number of tier-1 entries.
func (c *Cache) Len() int { return c.tier1.Len() }

// Close stops accepting refreshes, waits for in-flight ones and releases the pool.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()
	c.pool.Release()
}

func (c *Cache) readDurable(ctx context.Context, key string) *Entry {
	tctx, cancel := context.WithTimeout(ctx, c.cfg.Tier2Timeout)
	defer cancel()

	data, err := c.tier2.Get(tctx, c.durableKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc(TierDurable, "miss")
			return nil
		}
		err = c.tierError(tctx, "read", err)
		c.logger.Warn("Failed to read durable cache", zap.String("key", key), zap.Error(err))
		return nil
	}
	e, err := decodeEntry(key, data)
	if err != nil {
		c.inc(TierDurable, "error")
		c.logger.Warn("Failed to decode durable cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return e
}

// promote copies a durable hit into tier 1, never past its durable expiry.
func (c *Cache) promote(e *Entry, now time.Time) {
	expires := now.Add(c.cfg.Tier1TTL)
	if e.ExpiresAt().Before(expires) {
		expires = e.ExpiresAt()
	}
	c.tier1.Add(e.Key(), newEntryUntil(e.Key(), e.games, e.CachedAt(), expires, TierMemory))
}

func (c *Cache) put(ctx context.Context, key string, games []game.Game) {
	now := c.now()
	c.tier1.Add(key, newEntryUntil(key, games, now, now.Add(c.cfg.Tier1TTL), TierMemory))

	durable := newEntryUntil(key, games, now, now.Add(c.cfg.Tier2TTL), TierDurable)
	data, err := encodeEntry(durable)
	if err != nil {
		c.logger.Error("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	// The payload is already paid for; a caller hanging up must not lose it.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Tier2Timeout)
	defer cancel()
	if err := c.tier2.SetWithTTL(wctx, c.durableKey(key), data, c.cfg.Tier2TTL+c.cfg.Grace); err != nil {
		err = c.tierError(wctx, "write", err)
		c.inc(TierDurable, "write_error")
		c.logger.Warn("Failed to write durable cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) putPartial(key string, games []game.Game) {
	now := c.now()
	e := newEntryUntil(key, games, now, now.Add(c.cfg.PartialTTL), TierMemory)
	e.partial = true
	c.tier1.Add(key, e)
}

// graceOf returns the grace window for e. Partial entries get none.
func (c *Cache) graceOf(e *Entry) time.Duration {
	if e.partial {
		return 0
	}
	return c.cfg.Grace
}

// tierError classifies a durable failure. Running out of Tier2Timeout is
// reported as the tier being unavailable.
func (c *Cache) tierError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.inc(TierDurable, "timeout")
		return fmt.Errorf("%w: %s exceeded %s: %w", domain.ErrCacheTierUnavailable, op, c.cfg.Tier2Timeout, err)
	}
	if op == "read" {
		c.inc(TierDurable, "error")
	}
	return err
}

func (c *Cache) scheduleRefresh(key string, fetch FetchFunc) {
	c.mu.Lock()
	if _, busy := c.inflight[key]; busy || c.closed {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = struct{}{}
	c.wg.Add(1)
	c.mu.Unlock()

	err := c.pool.Submit(func() {
		defer c.wg.Done()
		defer c.release(key)
		c.refresh(key, fetch)
	})
	if err != nil {
		c.wg.Done()
		c.release(key)
		c.incRefresh("skipped")
		c.logger.Debug("Cache refresh skipped", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) refresh(key string, fetch FetchFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RefreshTimeout)
	defer cancel()

	games, err := fetch(ctx)
	if errors.Is(err, ErrPartial) {
		// A complete stale payload beats a partial fresh one.
		c.incRefresh("partial")
		c.logger.Info("Cache refresh incomplete, keeping stale entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err != nil {
		c.incRefresh("failed")
		c.logger.Warn("Cache refresh failed, keeping stale entry", zap.String("key", key), zap.Error(err))
		if c.onRefreshError != nil {
			c.onRefreshError(key, err)
		}
		return
	}
	c.put(ctx, key, games)
	c.incRefresh("ok")
}

func (c *Cache) release(key string) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
}

func (c *Cache) durablePrefix() string { return c.cfg.KeyPrefix + "cache:" }

func (c *Cache) durableKey(key string) string { return c.durablePrefix() + key }

func (c *Cache) inc(tier Tier, result string) {
	if c.requests != nil {
		c.requests.WithLabelValues(string(tier), result).Inc()
	}
}

func (c *Cache) incRefresh(status string) {
	if c.refreshes != nil {
		c.refreshes.WithLabelValues(status).Inc()
	}
}

func resultOf(e *Entry, src Source, stale bool) Result {
	return Result{Games: e.Games(), Source: src, Stale: stale, Partial: e.partial, CachedAt: e.CachedAt()}
}

func sourceOf(e *Entry) Source {
	if e.Tier() == TierDurable {
		return SourceDurable
	}
	return SourceMemory
}
