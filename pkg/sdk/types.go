package gamedex

import (
	"time"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	searchuc "github.com/kailas-cloud/gamedex/internal/usecase/search"
)

// Intent is the search strategy a query targets.
type Intent string

// Intent constants.
const (
	IntentExact       Intent = "exact"
	IntentFranchise   Intent = "franchise"
	IntentAlternative Intent = "alternative"
	IntentCollection  Intent = "collection"
	IntentGeneral     Intent = "general"
)

// Outcome distinguishes a search with results from one that found nothing.
type Outcome string

// Outcome constants.
const (
	OutcomeResults   Outcome = "results"
	OutcomeNoResults Outcome = "no_results"
)

// Company is a company involved in a game.
type Company struct {
	Name      string
	Developer bool
	Publisher bool
}

// Game is a catalog entry.
type Game struct {
	ID               int64
	Title            string
	Summary          string
	ReleasedAt       *time.Time
	CoverURL         string
	Category         int
	Companies        []Company
	Genres           []string
	Platforms        []string
	Screenshots      []string
	TotalRating      float64
	RatingCount      int
	AggregatedRating float64
	Franchises       []string
	Collections      []string
	AlternativeNames []string
}

// SearchResult is a finished search.
type SearchResult struct {
	SearchID string
	Query    string
	Intent   Intent
	Outcome  Outcome
	// Cache is where the answer came from: "memory", "durable" or "live".
	Cache string
	// Stale is set when an expired entry was served while it refreshes in the background.
	Stale bool
	// Partial is set when some upstream sub-queries failed. It is held in memory briefly.
	Partial bool
	Games   []Game
}

func gamesFromDomain(in []game.Game) []Game {
	out := make([]Game, len(in))
	for i := range in {
		out[i] = gameFromDomain(&in[i])
	}
	return out
}

func gameFromDomain(g *game.Game) Game {
	var companies []Company
	if len(g.Companies) > 0 {
		companies = make([]Company, len(g.Companies))
		for i, c := range g.Companies {
			companies[i] = Company{Name: c.Name, Developer: c.Developer, Publisher: c.Publisher}
		}
	}
	return Game{
		ID:               g.ID,
		Title:            g.Title,
		Summary:          g.Summary,
		ReleasedAt:       g.ReleasedAt,
		CoverURL:         g.CoverURL,
		Category:         int(g.Category),
		Companies:        companies,
		Genres:           g.Genres,
		Platforms:        g.Platforms,
		Screenshots:      g.Screenshots,
		TotalRating:      g.TotalRating,
		RatingCount:      g.RatingCount,
		AggregatedRating: g.AggregatedRating,
		Franchises:       g.Franchises,
		Collections:      g.Collections,
		AlternativeNames: g.AlternativeNames,
	}
}

func searchResultFromDomain(r searchuc.Response) SearchResult {
	return SearchResult{
		SearchID: r.SearchID,
		Query:    r.Query,
		Intent:   Intent(r.Intent),
		Outcome:  Outcome(r.Outcome),
		Cache:    string(r.Source),
		Stale:    r.Stale,
		Partial:  r.Partial,
		Games:    gamesFromDomain(r.Items),
	}
}
