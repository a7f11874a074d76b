package domain

import "time"

// KeyPrefix namespaces every key gamedex writes to a durable store.
const KeyPrefix = "gamedex:"

// Thresholds holds the minimum relevance a candidate needs per intent.
// Franchise searches admit weaker token overlap than exact or general ones.
type Thresholds struct {
	Exact     float64
	Franchise float64
	General   float64
}

// SearchTuning holds internal search settings, not exposed to consumers.
type SearchTuning struct {
	Thresholds       Thresholds
	SearchTimeout    time.Duration
	SubQueryTimeout  time.Duration
	MaxConcurrency   int
	SortByRating     bool
	ExactFetchLimit  int
	BroadFetchLimit  int
	MaxExpansions    int
	LookupBatchLimit int
}

// DefaultSearchTuning returns the tuning the relevance tests were calibrated against.
func DefaultSearchTuning() SearchTuning {
	return SearchTuning{
		Thresholds: Thresholds{
			Exact:     0.35,
			Franchise: 0.08,
			General:   0.25,
		},
		SearchTimeout:    8 * time.Second,
		SubQueryTimeout:  4 * time.Second,
		MaxConcurrency:   6,
		SortByRating:     true,
		ExactFetchLimit:  10,
		BroadFetchLimit:  40,
		MaxExpansions:    8,
		LookupBatchLimit: 500,
	}
}
