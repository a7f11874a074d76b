// Package catalog is the HTTP client for the upstream game catalog proxy.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Defaults applied to zero Config fields.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultRatePerSec = 4
	DefaultBurst      = 4
	DefaultMaxRetries = 3
	DefaultRetryBase  = 250 * time.Millisecond

	maxErrorBody = 4 << 10
	maxBody      = 16 << 20
	gamesEnd     = "games"
)

// Config holds the catalog proxy settings.
type Config struct {
	URL        string
	ClientID   string
	Token      string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	// MaxRetries bounds retries of HTTP 429 responses; 0 means DefaultMaxRetries, negative disables retries.
	MaxRetries int
	RetryBase  time.Duration
	ImageSize  string
	HTTPClient *http.Client
}

// Client queries the catalog through the proxy function.
type Client struct {
	url        string
	clientID   string
	token      string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
	conv       *converter
	logger     *zap.Logger
}

// New creates a catalog client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("catalog url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = DefaultMaxRetries
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		url:        cfg.URL,
		clientID:   cfg.ClientID,
		token:      cfg.Token,
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		conv:       newConverter(cfg.ImageSize),
		logger:     logger,
	}, nil
}

// Search runs an Apicalypse query against the games endpoint.
// Invalid records are dropped and counted; a malformed envelope fails the call.
func (c *Client) Search(ctx context.Context, body string) ([]game.Game, error) {
	env, err := c.do(ctx, body)
	if err != nil {
		return nil, err
	}

	games := make([]game.Game, 0, len(env.Games))
	for _, raw := range env.Games {
		g, err := c.conv.toGame(raw)
		if err != nil {
			metrics.UpstreamInvalidRecordsTotal.Inc()
			c.logger.Debug("Dropped invalid catalog record", zap.Error(err))
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// HealthCheck verifies the proxy answers a minimal query.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.do(ctx, "fields id; limit 1;"); err != nil {
		return fmt.Errorf("catalog health: %w", err)
	}
	return nil
}

// do sends one query, retrying 429 responses with exponential backoff.
func (c *Client) do(ctx context.Context, body string) (*envelope, error) {
	payload, err := json.Marshal(request{Endpoint: gamesEnd, Query: body})
	if err != nil {
		return nil, fmt.Errorf("encode catalog request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog rate limiter: %w", err)
		}

		env, retryAfter, err := c.send(ctx, payload)
		if err == nil {
			return env, nil
		}
		var upErr *domain.UpstreamError
		if !errors.As(err, &upErr) || upErr.Status != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return nil, err
		}

		wait := c.retryBase << attempt
		if retryAfter > wait {
			wait = retryAfter
		}
		c.logger.Warn("Catalog throttled, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("catalog retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) send(ctx context.Context, payload []byte) (*envelope, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.clientID != "" {
		req.Header.Set("Client-ID", c.clientID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("unavailable").Inc()
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("catalog request: %w", ctx.Err())
		}
		return nil, 0, domain.NewUpstreamError(0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upErr := domain.NewUpstreamError(resp.StatusCode, string(bytes.TrimSpace(msg)))
		metrics.UpstreamRequestsTotal.WithLabelValues(statusLabel(resp.StatusCode, upErr)).Inc()
		return nil, retryAfter(resp.Header.Get("Retry-After")), upErr
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("unavailable").Inc()
		return nil, 0, fmt.Errorf("%w: malformed catalog response: %w", domain.ErrUpstreamUnavailable, err)
	}
	if env.Success == nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("unavailable").Inc()
		return nil, 0, fmt.Errorf("%w: catalog response without success flag", domain.ErrUpstreamUnavailable)
	}
	if !*env.Success {
		metrics.UpstreamRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrUpstreamRejected, env.Error)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("ok").Inc()
	return &env, 0, nil
}

func statusLabel(status int, err error) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "throttled"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
