package chi

import (
	"github.com/kailas-cloud/gamedex/internal/domain/game"
)

const releaseDateLayout = "2006-01-02"

// SearchResponse is the body of GET /v1/games/search.
type SearchResponse struct {
	SearchID string         `json:"search_id"`
	Query    string         `json:"query"`
	Intent   string         `json:"intent"`
	Outcome  string         `json:"outcome"`
	Cache    CacheInfo      `json:"cache"`
	Items    []GameResponse `json:"items"`
}

// CacheInfo tells the client where a search result came from.
type CacheInfo struct {
	Source  string `json:"source"`
	Stale   bool   `json:"stale"`
	Partial bool   `json:"partial,omitempty"`
}

// GamesResponse is the body of GET /v1/games.
type GamesResponse struct {
	Items []GameResponse `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GameResponse is a game as exposed over HTTP.
type GameResponse struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary,omitempty"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	CoverURL         string   `json:"cover_url,omitempty"`
	Category         int      `json:"category"`
	Developers       []string `json:"developers,omitempty"`
	Publishers       []string `json:"publishers,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Platforms        []string `json:"platforms,omitempty"`
	Screenshots      []string `json:"screenshots,omitempty"`
	TotalRating      float64  `json:"total_rating,omitempty"`
	RatingCount      int      `json:"rating_count,omitempty"`
	AggregatedRating float64  `json:"aggregated_rating,omitempty"`
	Franchises       []string `json:"franchises,omitempty"`
	Collections      []string `json:"collections,omitempty"`
	AlternativeNames []string `json:"alternative_names,omitempty"`
}

func gamesToResponse(games []game.Game) []GameResponse {
	out := make([]GameResponse, len(games))
	for i := range games {
		out[i] = gameToResponse(&games[i])
	}
	return out
}

func gameToResponse(g *game.Game) GameResponse {
	resp := GameResponse{
		ID:               g.ID,
		Title:            g.Title,
		Summary:          g.Summary,
		CoverURL:         g.CoverURL,
		Category:         int(g.Category),
		Developers:       g.Developers(),
		Publishers:       g.Publishers(),
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
	if g.ReleasedAt != nil {
		resp.ReleaseDate = g.ReleasedAt.UTC().Format(releaseDateLayout)
	}
	return resp
}
