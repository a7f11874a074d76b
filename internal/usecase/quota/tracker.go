package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Action defines behavior when the daily request quota is exhausted.
type Action string

const (
	// ActionWarn logs a warning but lets the request through.
	ActionWarn Action = "warn"
	// ActionReject fails the request with domain.ErrQuotaExceeded.
	ActionReject Action = "reject"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool { return a == ActionWarn || a == ActionReject }

// Store is the persistence interface for quota counters.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
}

// Tracker counts upstream catalog requests per UTC day.
// Check is in-memory only; Record updates memory first, then writes behind to the store.
type Tracker struct {
	mu        sync.Mutex
	used      int64
	limit     int64
	action    Action
	lastReset time.Time
	store     Store
	logger    *zap.Logger
	now       func() time.Time
}

// NewTracker creates a tracker. limit <= 0 means unlimited.
func NewTracker(limit int64, action Action, logger *zap.Logger) *Tracker {
	t := &Tracker{
		limit:  limit,
		action: action,
		logger: logger,
		now:    time.Now,
	}
	t.lastReset = truncateToDay(t.now().UTC())
	return t
}

// WithStore attaches a persistence store and loads today's counter.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = store
	key := t.key(t.now().UTC())
	val, err := store.Get(ctx, key)
	if err != nil {
		t.logger.Warn("Failed to load upstream quota from store", zap.String("key", key), zap.Error(err))
		return t
	}
	t.used = val
	t.logger.Info("Upstream quota loaded from store", zap.Int64("used", t.used), zap.Int64("limit", t.limit))
	return t
}

func (t *Tracker) key(now time.Time) string {
	return fmt.Sprintf("%squota:upstream:daily:%s", domain.KeyPrefix, now.Format("2006-01-02"))
}

// Check verifies the quota allows another upstream request.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()
	if t.limit <= 0 || t.used < t.limit {
		return nil
	}
	if t.action == ActionReject {
		return domain.ErrQuotaExceeded
	}
	t.logger.Warn("Upstream quota exceeded", zap.Int64("used", t.used), zap.Int64("limit", t.limit))
	return nil
}

// Record registers n upstream requests.
func (t *Tracker) Record(n int64) {
	t.mu.Lock()
	t.resetIfNeeded()
	t.used += n
	store := t.store
	key := t.key(t.now().UTC())
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Write-behind on a short background context so a slow store never stalls the search.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := store.IncrBy(ctx, key, n); err != nil {
		t.logger.Warn("Failed to persist upstream quota", zap.String("key", key), zap.Error(err))
	}
}

// Remaining returns requests left today (-1 if unlimited).
func (t *Tracker) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()
	if t.limit <= 0 {
		return -1
	}
	return max(t.limit-t.used, 0)
}

// Used returns requests made today.
func (t *Tracker) Used() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return t.used
}

// Limit returns the daily cap.
func (t *Tracker) Limit() int64 { return t.limit }

func (t *Tracker) resetIfNeeded() {
	today := truncateToDay(t.now().UTC())
	if today.After(t.lastReset) {
		t.used = 0
		t.lastReset = today
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
