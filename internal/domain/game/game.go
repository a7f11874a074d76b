package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Category is the catalog's game category code.
type Category int

// Category codes used by the query builder. Meanings live in the lookup tables.
const (
	MainGame            Category = 0
	DLC                 Category = 1
	Expansion           Category = 2
	Bundle              Category = 3
	StandaloneExpansion Category = 4
	Mod                 Category = 5
	Episode             Category = 6
	Season              Category = 7
	Remake              Category = 8
	Remaster            Category = 9
	ExpandedGame        Category = 10
	Port                Category = 11
)

// DefaultImageSize is the size token thumbnails are rewritten to.
const DefaultImageSize = "t_1080p"

const thumbToken = "t_thumb"

// Company is a company involved in a game.
type Company struct {
	Name      string `json:"name"`
	Developer bool   `json:"developer,omitempty"`
	Publisher bool   `json:"publisher,omitempty"`
}

// Game is a candidate result from the catalog. ID is the de-duplication key.
type Game struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Summary          string     `json:"summary,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	CoverURL         string     `json:"cover_url,omitempty"`
	Category         Category   `json:"category"`
	Companies        []Company  `json:"companies,omitempty"`
	Genres           []string   `json:"genres,omitempty"`
	Platforms        []string   `json:"platforms,omitempty"`
	Screenshots      []string   `json:"screenshots,omitempty"`
	TotalRating      float64    `json:"total_rating,omitempty"`
	RatingCount      int        `json:"rating_count,omitempty"`
	AggregatedRating float64    `json:"aggregated_rating,omitempty"`
	Follows          int        `json:"follows,omitempty"`
	Franchises       []string   `json:"franchises,omitempty"`
	Collections      []string   `json:"collections,omitempty"`
	AlternativeNames []string   `json:"alternative_names,omitempty"`
	ParentID         int64      `json:"parent_id,omitempty"`
}

// Validate checks the invariants every candidate must satisfy.
func (g *Game) Validate() error {
	if g.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", domain.ErrInvalidRecord, g.ID)
	}
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: game %d has no title", domain.ErrInvalidRecord, g.ID)
	}
	return nil
}

// Developers returns the names of developing companies.
func (g *Game) Developers() []string {
	var out []string
	for _, c := range g.Companies {
		if c.Developer {
			out = append(out, c.Name)
		}
	}
	return out
}

// Publishers returns the names of publishing companies.
func (g *Game) Publishers() []string {
	var out []string
	for _, c := range g.Companies {
		if c.Publisher {
			out = append(out, c.Name)
		}
	}
	return out
}

// IDs returns the identifiers of games in order.
func IDs(games []Game) []int64 {
	ids := make([]int64, len(games))
	for i := range games {
		ids[i] = games[i].ID
	}
	return ids
}

// RewriteImageURL turns a protocol-relative thumbnail URL into an absolute
// HTTPS URL with the requested size token. Empty input stays empty.
func RewriteImageURL(raw, size string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if size == "" {
		size = DefaultImageSize
	}
	switch {
	case strings.HasPrefix(u, "//"):
		u = "https:" + u
	case strings.HasPrefix(u, "http://"):
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	return strings.Replace(u, thumbToken, size, 1)
}
