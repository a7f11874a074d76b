package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gamedex/internal/domain"
	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/builder"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/query"
	"github.com/kailas-cloud/gamedex/internal/domain/search/relevance"
	"github.com/kailas-cloud/gamedex/internal/domain/search/result"
	"github.com/kailas-cloud/gamedex/internal/domain/search/subquery"
	"github.com/kailas-cloud/gamedex/internal/logger"
	"github.com/kailas-cloud/gamedex/internal/metrics"
	"github.com/kailas-cloud/gamedex/internal/repository/searchcache"
)

// MaxLookupIDs caps a single GetGames call.
const MaxLookupIDs = 2000

const tracerName = "gamedex/search"

// Outcome distinguishes a successful search with results from one without.
type Outcome string

// Outcomes.
const (
	OutcomeResults   Outcome = "results"
	OutcomeNoResults Outcome = "no_results"
)

// state is a step of a search run. Transitions are logged and recorded as span events.
type state string

const (
	stateDispatching state = "dispatching"
	stateMerging     state = "merging"
	stateFiltering   state = "filtering"
	stateCaching     state = "caching"
	stateDone        state = "done"
	stateError       state = "error"
)

// Response is a finished search.
type Response struct {
	SearchID string
	Query    string
	Intent   intent.Intent
	Outcome  Outcome
	Source   searchcache.Source
	Stale    bool
	// Partial is set when some sub-queries failed. Such results are cached briefly.
	Partial bool
	Items   []game.Game
}

// Service is the search façade: classify, fan out, merge, filter, cache.
type Service struct {
	exec     *Executor
	catalog  Catalog
	detector Detector
	builder  QueryBuilder
	filter   ContentFilter
	cache    Cache
	tuning   domain.SearchTuning
	scorer   relevance.Scorer
	logger   *zap.Logger
	tracer   trace.Tracer
}

// New creates a search service.
func New(
	catalog Catalog, detector Detector, qb QueryBuilder, filter ContentFilter, cache Cache,
	tuning domain.SearchTuning, logger *zap.Logger,
) *Service {
	return &Service{
		exec:     NewExecutor(catalog, tuning.SubQueryTimeout, tuning.MaxConcurrency, logger),
		catalog:  catalog,
		detector: detector,
		builder:  qb,
		filter:   filter,
		cache:    cache,
		tuning:   tuning,
		scorer:   relevance.DefaultScorer(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// SearchGames is the convenience entry point: default options, games only.
func (s *Service) SearchGames(ctx context.Context, text string, limit int) ([]game.Game, error) {
	q, err := query.New(text, limit)
	if err != nil {
		return nil, err
	}
	resp, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Search runs q through the cache, computing it live on a miss.
// Failures are returned and never cached; an empty result is a valid, cached outcome.
func (s *Service) Search(ctx context.Context, q query.Query) (Response, error) {
	start := time.Now()
	searchID := uuid.NewString()
	in := s.intentOf(q)

	ctx, span := s.tracer.Start(ctx, "search", trace.WithAttributes(
		attribute.String("search_id", searchID),
		attribute.String("intent", string(in)),
		attribute.Int("limit", q.Limit()),
	))
	defer span.End()

	log := logger.FromContextOr(ctx, s.logger).With(zap.String("search_id", searchID))

	res, err := s.cache.Get(ctx, s.keyFor(q, in), func(fctx context.Context) ([]game.Game, error) {
		return s.run(fctx, q, in, log)
	})
	if err != nil {
		s.transition(ctx, log, stateError, zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.SearchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return Response{}, err
	}

	outcome := OutcomeResults
	if len(res.Games) == 0 {
		outcome = OutcomeNoResults
	}
	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("cache_source", string(res.Source)),
		attribute.Bool("stale", res.Stale),
		attribute.Bool("partial", res.Partial),
		attribute.Int("results", len(res.Games)),
	)
	metrics.SearchDuration.WithLabelValues(string(outcome)).Observe(time.Since(start).Seconds())

	return Response{
		SearchID: searchID,
		Query:    q.Text(),
		Intent:   in,
		Outcome:  outcome,
		Source:   res.Source,
		Stale:    res.Stale,
		Partial:  res.Partial,
		Items:    res.Games,
	}, nil
}

// GetGames looks games up by identifier, batching upstream requests.
// The result follows the order of ids; unknown ids are skipped.
func (s *Service) GetGames(ctx context.Context, ids []int64) ([]game.Game, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []game.Game{}, nil
	}

	res, err := s.cache.Get(ctx, searchcache.GamesKey(ids), func(fctx context.Context) ([]game.Game, error) {
		return s.lookup(fctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return res.Games, nil
}

// InvalidateQuery drops the cached result of q from both tiers.
func (s *Service) InvalidateQuery(ctx context.Context, q query.Query) error {
	return s.cache.Clear(ctx, s.keyFor(q, s.intentOf(q)))
}

// InvalidateAll drops every cached search.
func (s *Service) InvalidateAll(ctx context.Context) error {
	return s.cache.ClearAll(ctx)
}

func (s *Service) intentOf(q query.Query) intent.Intent {
	if q.Intent() != "" {
		return q.Intent()
	}
	return s.detector.Classify(q.Text())
}

func (s *Service) keyFor(q query.Query, in intent.Intent) string {
	return searchcache.SearchKey(q.Text(), q.Limit(), in, q.SisterTitles())
}

// run is the live path of a search: dispatching → merging → filtering → caching.
// When only some sub-queries fail, the kept games come back with an error
// wrapping searchcache.ErrPartial.
func (s *Service) run(ctx context.Context, q query.Query, in intent.Intent, log *zap.Logger) ([]game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, s.tuning.SearchTimeout)
	defer cancel()

	sqs := s.plan(q, in)
	s.transition(ctx, log, stateDispatching, zap.String("intent", string(in)), zap.Int("subqueries", len(sqs)))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("subqueries", len(sqs)))
	batches := s.exec.ExecuteAll(ctx, sqs)

	s.transition(ctx, log, stateMerging)
	scored, errs := s.score(batches, in)
	if len(errs) == len(batches) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search exceeded %s", domain.ErrTimeout, s.tuning.SearchTimeout)
		}
		return nil, &AllSubQueriesFailedError{Errors: errs}
	}
	var partial error
	if len(errs) > 0 {
		log.Warn("Search completed with failed sub-queries",
			zap.Int("failed", len(errs)), zap.Int("total", len(batches)))
		partial = fmt.Errorf("%w: %d of %d sub-queries failed: %w",
			searchcache.ErrPartial, len(errs), len(batches), errors.Join(errs...))
	}
	merged := merge(scored)
	rank(merged)

	s.transition(ctx, log, stateFiltering, zap.Int("candidates", len(merged)))
	kept, suppressed := s.filter.Apply(result.Games(merged))
	if suppressed > 0 {
		metrics.SearchSuppressedTotal.Add(float64(suppressed))
		log.Debug("Suppressed unauthorized candidates", zap.Int("suppressed", suppressed))
	}

	s.transition(ctx, log, stateCaching, zap.Int("results", len(kept)))
	if len(kept) > q.Limit() {
		kept = kept[:q.Limit()]
	}
	s.transition(ctx, log, stateDone)
	return kept, partial
}

// plan builds the sub-queries for q. The original text always yields an exact
// sub-query; broad intents add franchise, alternative-name and collection lookups;
// expansions yield franchise sub-queries. Empty text browses by popularity.
func (s *Service) plan(q query.Query, in intent.Intent) []subquery.SubQuery {
	opts := builder.Options{
		ExactLimit:     s.tuning.ExactFetchLimit,
		FranchiseLimit: s.tuning.BroadFetchLimit,
		SortByRating:   s.tuning.SortByRating,
	}
	text := q.Text()
	if text == "" {
		return []subquery.SubQuery{s.builder.Build("", intent.General, opts)}
	}

	sqs := []subquery.SubQuery{s.builder.Build(text, intent.Exact, opts)}
	switch {
	case in.Broad():
		sqs = append(sqs,
			s.builder.Build(text, intent.Franchise, opts),
			s.builder.Build(text, intent.Alternative, opts),
			s.builder.Build(text, intent.Collection, opts),
		)
	case in == intent.Alternative || in == intent.Collection:
		sqs = append(sqs, s.builder.Build(text, in, opts))
	}

	if in == intent.Franchise || q.SisterTitles() {
		expansions := s.detector.Expand(text, q.SisterTitles())
		if n := s.tuning.MaxExpansions; n > 0 && len(expansions) > n {
			expansions = expansions[:n]
		}
		for _, exp := range expansions {
			sqs = append(sqs, s.builder.Build(exp, intent.Franchise, opts))
		}
	}
	return sqs
}

// score rates each successful batch against its own text and keeps candidates
// that clear the threshold of the search's intent.
func (s *Service) score(batches []Batch, in intent.Intent) ([]scoredBatch, []error) {
	threshold := s.threshold(in)
	var (
		out  []scoredBatch
		errs []error
	)
	for _, b := range batches {
		if !b.OK() {
			errs = append(errs, b.Err)
			continue
		}
		sb := scoredBatch{priority: b.SubQuery.Priority()}
		for _, g := range b.Games {
			rel := s.relevance(b.SubQuery, g)
			if rel < threshold {
				continue
			}
			sb.items = append(sb.items, result.New(g, rel, b.SubQuery.Priority(), true))
		}
		out = append(out, sb)
	}
	return out, errs
}

// relevance scores g against the sub-query text. Alternative-name and collection
// lookups also match on the field they searched, keeping the best score.
func (s *Service) relevance(sq subquery.SubQuery, g game.Game) float64 {
	best := s.scorer.Score(sq.Text(), g.Title)
	var extra []string
	switch sq.Intent() {
	case intent.Alternative:
		extra = g.AlternativeNames
	case intent.Collection:
		extra = g.Collections
	}
	for _, name := range extra {
		best = max(best, s.scorer.Score(sq.Text(), name))
	}
	return best
}

func (s *Service) threshold(in intent.Intent) float64 {
	switch in {
	case intent.Exact:
		return s.tuning.Thresholds.Exact
	case intent.Franchise:
		return s.tuning.Thresholds.Franchise
	default:
		return s.tuning.Thresholds.General
	}
}

func (s *Service) transition(ctx context.Context, log *zap.Logger, st state, fields ...zap.Field) {
	log.Debug("Search state", append([]zap.Field{zap.String("state", string(st))}, fields...)...)
	trace.SpanFromContext(ctx).AddEvent(string(st))
}

// lookup fetches ids in batches of LookupBatchLimit. Any failed batch fails the lookup.
func (s *Service) lookup(ctx context.Context, ids []int64) ([]game.Game, error) {
	size := s.tuning.LookupBatchLimit
	if size <= 0 {
		size = len(ids)
	}

	chunks := slices.Collect(slices.Chunk(ids, size))
	found := make([][]game.Game, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.tuning.MaxConcurrency, 1))
	for i, chunk := range chunks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.tuning.SubQueryTimeout)
			defer cancel()
			games, err := s.catalog.Search(cctx, s.builder.ByIDs(chunk))
			if err != nil {
				return fmt.Errorf("lookup batch %d: %w", i, err)
			}
			found[i] = games
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]game.Game)
	for _, games := range found {
		for _, gm := range games {
			byID[gm.ID] = gm
		}
	}
	ordered := make([]game.Game, 0, len(byID))
	for _, id := range ids {
		if gm, ok := byID[id]; ok {
			ordered = append(ordered, gm)
		}
	}
	kept, suppressed := s.filter.Apply(ordered)
	if suppressed > 0 {
		metrics.SearchSuppressedTotal.Add(float64(suppressed))
	}
	return kept, nil
}

func normalizeIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid game id %d", domain.ErrInvalidQuery, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > MaxLookupIDs {
		return nil, fmt.Errorf("%w: too many ids (max %d)", domain.ErrInvalidQuery, MaxLookupIDs)
	}
	return out, nil
}
