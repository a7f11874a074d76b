package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/gamedex/internal/domain/search/result"
)

// scoredBatch holds the candidates of one sub-query that passed its threshold,
// in upstream order.
type scoredBatch struct {
	priority int
	items    []result.Scored
}

// merge concatenates batches by descending priority, keeping the first occurrence of each ID.
// Batches with equal priority keep their input order.
func merge(batches []scoredBatch) []result.Scored {
	ordered := slices.Clone(batches)
	slices.SortStableFunc(ordered, func(a, b scoredBatch) int {
		return cmp.Compare(b.priority, a.priority)
	})

	seen := make(map[int64]struct{})
	var out []result.Scored
	for _, b := range ordered {
		for _, item := range b.items {
			if _, dup := seen[item.ID()]; dup {
				continue
			}
			seen[item.ID()] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// rank orders merged results by priority tier, then relevance within a tier.
// Ties keep merge order.
func rank(items []result.Scored) {
	slices.SortStableFunc(items, func(a, b result.Scored) int {
		if c := cmp.Compare(b.Priority(), a.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(b.Relevance(), a.Relevance())
	})
}
