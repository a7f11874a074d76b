package search

import (
	"context"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/builder"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/subquery"
	"github.com/kailas-cloud/gamedex/internal/repository/searchcache"
)

// Catalog runs one Apicalypse query against the upstream game catalog.
type Catalog interface {
	Search(ctx context.Context, body string) ([]game.Game, error)
}

// Detector classifies search text and expands it into related queries.
type Detector interface {
	Classify(q string) intent.Intent
	Expand(q string, sister bool) []string
}

// QueryBuilder turns text and intent into sub-queries.
type QueryBuilder interface {
	Build(text string, in intent.Intent, opts builder.Options) subquery.SubQuery
	ByIDs(ids []int64) string
}

// ContentFilter drops candidates that must not be shown.
type ContentFilter interface {
	Apply(games []game.Game) ([]game.Game, int)
}

// Cache stores finished result lists.
type Cache interface {
	Get(ctx context.Context, key string, fetch searchcache.FetchFunc) (searchcache.Result, error)
	Clear(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
}
