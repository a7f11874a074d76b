package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/subquery"
	"github.com/kailas-cloud/gamedex/internal/metrics"
)

// Batch is the outcome of one sub-query. Exactly one of Games or Err is meaningful.
type Batch struct {
	SubQuery subquery.SubQuery
	Games    []game.Game
	Err      error
}

// OK reports whether the sub-query succeeded (possibly with zero games).
func (b Batch) OK() bool { return b.Err == nil }

// Executor fans sub-queries out to the catalog.
type Executor struct {
	catalog        Catalog
	timeout        time.Duration
	maxConcurrency int
	logger         *zap.Logger
}

// NewExecutor creates an executor. timeout bounds each sub-query; maxConcurrency bounds the fan-out.
func NewExecutor(catalog Catalog, timeout time.Duration, maxConcurrency int, logger *zap.Logger) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Executor{catalog: catalog, timeout: timeout, maxConcurrency: maxConcurrency, logger: logger}
}

// ExecuteAll runs every sub-query and returns one batch per input, in input order.
// A failing sub-query never aborts the others. If ctx ends first, the batches
// finished so far are returned and the rest carry domain.ErrTimeout.
func (e *Executor) ExecuteAll(ctx context.Context, sqs []subquery.SubQuery) []Batch {
	var (
		mu      sync.Mutex
		batches = make([]Batch, len(sqs))
		done    = make([]bool, len(sqs))
	)

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i, sq := range sqs {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				b := e.execute(ctx, sq)
				mu.Lock()
				batches[i] = b
				done[i] = true
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]Batch, len(sqs))
	for i, sq := range sqs {
		if done[i] {
			out[i] = batches[i]
			continue
		}
		out[i] = Batch{SubQuery: sq, Err: fmt.Errorf("%w: %s not finished", domain.ErrTimeout, sq.IntentLabel())}
	}
	return out
}

func (e *Executor) execute(ctx context.Context, sq subquery.SubQuery) Batch {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	games, err := e.catalog.Search(cctx, sq.Body())
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		metrics.SearchSubQueryTotal.WithLabelValues(string(sq.Intent()), "error").Inc()
		e.logger.Warn("Sub-query failed",
			zap.String("subquery", sq.IntentLabel()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Batch{SubQuery: sq, Err: err}
	}

	metrics.SearchSubQueryTotal.WithLabelValues(string(sq.Intent()), "ok").Inc()
	e.logger.Debug("Sub-query completed",
		zap.String("subquery", sq.IntentLabel()),
		zap.Int("games", len(games)),
		zap.Duration("duration", time.Since(start)),
	)
	return Batch{SubQuery: sq, Games: games}
}
