package gamedex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/app"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// Internal interfaces, swapped out in tests.
type searchUseCase interface {
	Search(ctx context.Context, q query.Query) (searchuc.Response, error)
	GetGames(ctx context.Context, ids []int64) ([]game.Game, error)
	InvalidateQuery(ctx context.Context, q query.Query) error
	InvalidateAll(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the gamedex SDK entry point.
type Client struct {
	app       *app.App
	store     pinger
	searchSvc searchUseCase
	healthSvc healthUseCase
	quota     quotaReader
	obs       *observer
}

// New wires the engine and connects to the durable tier.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	if cc.cfg.Database.Driver == "" {
		return nil, errors.New("gamedex: durable tier required (use WithValkey, WithRedis, WithPostgres or WithBadger)")
	}
	if cc.cfg.Catalog.URL == "" {
		return nil, errors.New("gamedex: catalog endpoint required (use WithCatalog)")
	}

	cfg := cc.cfg
	cfg.ApplyDefaults()
	if err := cfg.ValidateEngine(); err != nil {
		return nil, fmt.Errorf("gamedex: %w", err)
	}

	logger := cc.zapLogger
	if logger == nil {
		logger = zap.NewNop()
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("gamedex: %w", err)
	}
	a, err := app.New(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("gamedex: %w", err)
	}

	return &Client{
		app:       a,
		store:     a.Store,
		searchSvc: a.Search,
		healthSvc: a.Health,
		quota:     a.Quota,
		obs:       obs,
	}, nil
}

// Close stops background cache refreshes and releases the durable tier.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Ping checks durable tier connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SearchGames returns up to limit games matching text with default options.
// An empty slice with a nil error means nothing matched; a failed search returns an error.
func (c *Client) SearchGames(ctx context.Context, text string, limit int) ([]Game, error) {
	res, err := c.Search(ctx, text, SearchLimit(limit))
	if err != nil {
		return nil, err
	}
	return res.Games, nil
}

// Search runs a search with options and reports its intent, outcome and cache source.
func (c *Client) Search(ctx context.Context, text string, opts ...SearchOption) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	q, err := buildQuery(text, opts)
	if err != nil {
		return SearchResult{}, err
	}
	resp, err := c.searchSvc.Search(ctx, q)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	res = searchResultFromDomain(resp)
	c.obs.observeSearch(res)
	return res, nil
}

// GetGames looks games up by catalog identifier, in input order. Unknown ids are skipped.
func (c *Client) GetGames(ctx context.Context, ids ...int64) (games []Game, err error) {
	start := time.Now()
	defer func() { c.obs.observe("games.get", start, err) }()

	found, err := c.searchSvc.GetGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get games: %w", err)
	}
	return gamesFromDomain(found), nil
}

// Invalidate drops the cached result of one search. Pass the same options
// the search was made with.
func (c *Client) Invalidate(ctx context.Context, text string, opts ...SearchOption) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("cache.invalidate", start, err) }()

	q, err := buildQuery(text, opts)
	if err != nil {
		return err
	}
	if err = c.searchSvc.InvalidateQuery(ctx, q); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached search from both tiers.
func (c *Client) InvalidateAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("cache.invalidate_all", start, err) }()

	if err = c.searchSvc.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate all: %w", err)
	}
	return nil
}

// SearchOption customizes one search.
type SearchOption func(*searchOptions)

type searchOptions struct {
	limit  int
	intent Intent
	sister bool
}

// SearchLimit caps the number of results (default 20, max 100).
func SearchLimit(n int) SearchOption {
	return func(o *searchOptions) { o.limit = n }
}

// SearchIntent pins the intent instead of letting the engine classify the text.
func SearchIntent(i Intent) SearchOption {
	return func(o *searchOptions) { o.intent = i }
}

// SearchSisterTitles expands the search to sister titles (e.g. Pokemon Red to Pokemon Blue).
func SearchSisterTitles() SearchOption {
	return func(o *searchOptions) { o.sister = true }
}

func buildQuery(text string, opts []SearchOption) (query.Query, error) {
	var so searchOptions
	for _, opt := range opts {
		opt(&so)
	}
	var qopts []query.Option
	if so.intent != "" {
		qopts = append(qopts, query.WithIntent(intent.Intent(so.intent)))
	}
	if so.sister {
		qopts = append(qopts, query.WithSisterTitles())
	}
	q, err := query.New(text, so.limit, qopts...)
	if err != nil {
		return query.Query{}, fmt.Errorf("gamedex: %w", err)
	}
	return q, nil
}
