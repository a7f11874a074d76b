package catalog

import (
	"encoding/json"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
)

// request is the body the catalog proxy expects.
type request struct {
	Endpoint string `json:"endpoint"`
	Query    string `json:"query"`
}

// envelope is the proxy response. Games are decoded one by one so a bad record
// only drops itself.
type envelope struct {
	Success *bool             `json:"success"`
	Games   []json.RawMessage `json:"games"`
	Error   string            `json:"error,omitempty"`
}

type named struct {
	Name string `json:"name"`
}

type image struct {
	URL string `json:"url"`
}

type involvedCompany struct {
	Company   named `json:"company"`
	Developer bool  `json:"developer"`
	Publisher bool  `json:"publisher"`
}

// gameDTO mirrors an IGDB game record with the expanded fields gamedex requests.
type gameDTO struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Summary           string            `json:"summary"`
	FirstReleaseDate  *int64            `json:"first_release_date"`
	Cover             *image            `json:"cover"`
	Category          int               `json:"category"`
	InvolvedCompanies []involvedCompany `json:"involved_companies"`
	Genres            []named           `json:"genres"`
	Platforms         []named           `json:"platforms"`
	Screenshots       []image           `json:"screenshots"`
	TotalRating       float64           `json:"total_rating"`
	TotalRatingCount  int               `json:"total_rating_count"`
	AggregatedRating  float64           `json:"aggregated_rating"`
	Follows           int               `json:"follows"`
	Franchises        []named           `json:"franchises"`
	Collections       []named           `json:"collections"`
	AlternativeNames  []named           `json:"alternative_names"`
	ParentGame        int64             `json:"parent_game"`
}

// converter turns DTOs into validated domain games.
type converter struct {
	policy    *bluemonday.Policy
	imageSize string
}

func newConverter(imageSize string) *converter {
	if imageSize == "" {
		imageSize = game.DefaultImageSize
	}
	return &converter{policy: bluemonday.StrictPolicy(), imageSize: imageSize}
}

// toGame decodes and validates one record.
func (c *converter) toGame(raw json.RawMessage) (game.Game, error) {
	var d gameDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return game.Game{}, err
	}

	g := game.Game{
		ID:               d.ID,
		Title:            c.text(d.Name),
		Summary:          c.text(d.Summary),
		Category:         game.Category(d.Category),
		Genres:           c.names(d.Genres),
		Platforms:        c.names(d.Platforms),
		TotalRating:      d.TotalRating,
		RatingCount:      d.TotalRatingCount,
		AggregatedRating: d.AggregatedRating,
		Follows:          d.Follows,
		Franchises:       c.names(d.Franchises),
		Collections:      c.names(d.Collections),
		AlternativeNames: c.names(d.AlternativeNames),
		ParentID:         d.ParentGame,
	}
	if d.FirstReleaseDate != nil && *d.FirstReleaseDate > 0 {
		t := time.Unix(*d.FirstReleaseDate, 0).UTC()
		g.ReleasedAt = &t
	}
	if d.Cover != nil {
		g.CoverURL = game.RewriteImageURL(d.Cover.URL, c.imageSize)
	}
	for _, s := range d.Screenshots {
		if u := game.RewriteImageURL(s.URL, c.imageSize); u != "" {
			g.Screenshots = append(g.Screenshots, u)
		}
	}
	for _, ic := range d.InvolvedCompanies {
		name := c.text(ic.Company.Name)
		if name == "" {
			continue
		}
		g.Companies = append(g.Companies, game.Company{Name: name, Developer: ic.Developer, Publisher: ic.Publisher})
	}

	if err := g.Validate(); err != nil {
		return game.Game{}, err
	}
	return g, nil
}

// text strips markup and restores entities escaped by the sanitizer.
func (c *converter) text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

func (c *converter) names(in []named) []string {
	var out []string
	for _, n := range in {
		if v := c.text(n.Name); v != "" {
			out = append(out, v)
		}
	}
	return out
}
