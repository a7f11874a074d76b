// Package builder turns search text and an intent into Apicalypse sub-queries.
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/gamedex/internal/domain/game"
	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/subquery"
	"github.com/kailas-cloud/gamedex/internal/domain/search/tables"
)

// Merge priorities by intent. The merger keeps the first occurrence of an
// identifier in priority order, so exact matches win placement.
const (
	PriorityExact       = 400
	PriorityFranchise   = 300
	PriorityGeneral     = 250
	PriorityAlternative = 200
	PriorityCollection  = 100
)

// Default result caps.
const (
	DefaultExactLimit     = 10
	DefaultFranchiseLimit = 40
)

var (
	displayFields = []string{
		"name", "cover.url", "first_release_date", "category",
		"involved_companies.company.name", "involved_companies.developer", "involved_companies.publisher",
		"platforms.name", "genres.name", "total_rating", "total_rating_count",
	}
	fullFields = append(append([]string{}, displayFields...),
		"summary", "screenshots.url", "aggregated_rating", "follows",
		"franchises.name", "collections.name", "alternative_names.name", "parent_game",
	)

	mainCategories  = []game.Category{game.MainGame, game.Remake, game.Remaster}
	broadCategories = []game.Category{
		game.MainGame, game.DLC, game.Expansion, game.StandaloneExpansion,
		game.Remake, game.Remaster, game.ExpandedGame, game.Port,
	}
)

// Options tunes sub-query construction.
type Options struct {
	ExactLimit     int
	FranchiseLimit int
	// SortByRating sorts franchise results by aggregated rating, requiring it
	// to be present. When false, results are sorted by follows.
	SortByRating bool
}

func (o Options) withDefaults() Options {
	if o.ExactLimit <= 0 {
		o.ExactLimit = DefaultExactLimit
	}
	if o.FranchiseLimit <= 0 {
		o.FranchiseLimit = DefaultFranchiseLimit
	}
	return o
}

// Builder constructs sub-queries. It is stateless after construction.
type Builder struct {
	tables *tables.Tables
}

// New returns a builder whose category filters are checked against the tables.
func New(t *tables.Tables) (*Builder, error) {
	for _, c := range broadCategories {
		if t.CategoryName(int(c)) == "unknown" {
			return nil, fmt.Errorf("builder: category %d missing from lookup tables", c)
		}
	}
	return &Builder{tables: t}, nil
}

// Build produces the sub-query for text under the given intent.
func (b *Builder) Build(text string, in intent.Intent, opts Options) subquery.SubQuery {
	opts = opts.withDefaults()
	q := &apicalypse{}

	switch in {
	case intent.Exact:
		q.fields(displayFields).search(text).where(categoryFilter(mainCategories)).
			sort("total_rating_count desc").limit(opts.ExactLimit)
		return subquery.New(text, in, q.String(), PriorityExact)

	case intent.Franchise:
		q.fields(fullFields).search(text)
		if opts.SortByRating {
			q.where(categoryFilter(broadCategories) + " & aggregated_rating != null").sort("aggregated_rating desc")
		} else {
			q.where(categoryFilter(broadCategories)).sort("follows desc")
		}
		q.limit(opts.FranchiseLimit)
		return subquery.New(text, in, q.String(), PriorityFranchise)

	case intent.Alternative:
		q.fields(fullFields).where(containsFilter("alternative_names.name", text)).limit(opts.FranchiseLimit)
		return subquery.New(text, in, q.String(), PriorityAlternative)

	case intent.Collection:
		q.fields(fullFields).where(containsFilter("collections.name", text)).limit(opts.FranchiseLimit)
		return subquery.New(text, in, q.String(), PriorityCollection)

	default:
		q.fields(fullFields).search(text).where(categoryFilter(mainCategories)).
			sort("total_rating_count desc").limit(opts.FranchiseLimit)
		return subquery.New(text, intent.General, q.String(), PriorityGeneral)
	}
}

// ByIDs builds a lookup of games by identifier.
func (b *Builder) ByIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := &apicalypse{}
	q.fields(fullFields).where("id = (" + strings.Join(parts, ",") + ")").limit(len(ids))
	return q.String()
}

// CategoryNames describes the category codes an intent filters on.
func (b *Builder) CategoryNames(in intent.Intent) []string {
	var codes []game.Category
	switch in {
	case intent.Exact, intent.General:
		codes = mainCategories
	case intent.Franchise:
		codes = broadCategories
	}
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = b.tables.CategoryName(int(c))
	}
	return names
}

// Escape quotes text for an Apicalypse string literal.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func categoryFilter(codes []game.Category) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}
	return "category = (" + strings.Join(parts, ",") + ")"
}

func containsFilter(field, text string) string {
	return field + ` ~ *"` + Escape(text) + `"*`
}

type apicalypse struct {
	clauses []string
}

func (a *apicalypse) fields(f []string) *apicalypse {
	a.clauses = append(a.clauses, "fields "+strings.Join(f, ","))
	return a
}

func (a *apicalypse) search(text string) *apicalypse {
	if text != "" {
		a.clauses = append(a.clauses, `search "`+Escape(text)+`"`)
	}
	return a
}

func (a *apicalypse) where(expr string) *apicalypse {
	a.clauses = append(a.clauses, "where "+expr)
	return a
}

func (a *apicalypse) sort(expr string) *apicalypse {
	a.clauses = append(a.clauses, "sort "+expr)
	return a
}

func (a *apicalypse) limit(n int) *apicalypse {
	a.clauses = append(a.clauses, "limit "+strconv.Itoa(n))
	return a
}

func (a *apicalypse) String() string {
	return strings.Join(a.clauses, "; ") + ";"
}
