// Package franchise classifies queries and expands them into related
// sequel, numeral, subtitle and sister-title queries.
package franchise

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
	"github.com/kailas-cloud/gamedex/internal/domain/search/tables"
	"github.com/kailas-cloud/gamedex/internal/domain/search/textnorm"
)

const sequelSpread = 2

var subtitleSeparators = []string{":", " - "}

type sisterGroup struct {
	series  string
	members []string
	match   []*regexp.Regexp
}

// Detector is built once from lookup tables and is safe for concurrent use.
type Detector struct {
	ordinals   []string
	franchises []string
	sisters    []sisterGroup
}

// NewDetector compiles the tables into a detector.
func NewDetector(t *tables.Tables) *Detector {
	d := &Detector{ordinals: t.Ordinals}
	for _, f := range t.Franchises {
		if folded := textnorm.Fold(f); folded != "" {
			d.franchises = append(d.franchises, folded)
		}
	}
	for _, g := range t.SisterGroups {
		sg := sisterGroup{series: textnorm.Fold(g.Series), members: g.Members}
		for _, m := range g.Members {
			sg.match = append(sg.match, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`\b`))
		}
		d.sisters = append(d.sisters, sg)
	}
	return d
}

// Classify returns Exact for specific queries (trailing number, roman numeral,
// subtitle separator), Franchise when a known franchise is named, else General.
func (d *Detector) Classify(q string) intent.Intent {
	q = collapse(q)
	if q == "" {
		return intent.General
	}
	if d.isSpecific(q) {
		return intent.Exact
	}
	if d.namesFranchise(textnorm.Fold(q)) {
		return intent.Franchise
	}
	return intent.General
}

// Expand returns related query strings. The result never contains q itself,
// is deduplicated case-insensitively and follows rule order, then table order.
// Sister-title substitution only runs when sister is set or q names a franchise.
func (d *Detector) Expand(q string, sister bool) []string {
	q = collapse(q)
	if q == "" {
		return nil
	}
	out := newCollector(q)
	folded := textnorm.Fold(q)
	franchise := !d.isSpecific(q) && d.namesFranchise(folded)

	d.expandSequels(q, franchise, out)
	d.expandNumerals(q, out)
	expandSubtitle(q, out)
	if sister || franchise {
		d.expandSisters(q, folded, out)
	}
	return out.items
}

func (d *Detector) isSpecific(q string) bool {
	if endsInNumber(q) {
		return true
	}
	if _, _, ok := d.numeralToken(q); ok {
		return true
	}
	for _, sep := range subtitleSeparators {
		if strings.Contains(q, sep) {
			return true
		}
	}
	return false
}

func (d *Detector) namesFranchise(folded string) bool {
	for _, f := range d.franchises {
		if textnorm.ContainsPhrase(folded, f) {
			return true
		}
	}
	return false
}

// expandSequels emits N-2..N+2 around a trailing number N. A bare franchise
// name counts as entry 1 of its series.
func (d *Detector) expandSequels(q string, franchise bool, out *collector) {
	base, n, ok := trailingNumber(q)
	if !ok {
		if !franchise {
			return
		}
		base, n = q, 1
	}
	if base == "" {
		return
	}
	for delta := -sequelSpread; delta <= sequelSpread; delta++ {
		v := n + delta
		if delta == 0 || v < 1 {
			continue
		}
		out.add(base + " " + strconv.Itoa(v))
	}
}

func (d *Detector) expandNumerals(q string, out *collector) {
	tokens, pos, ok := d.numeralToken(q)
	if !ok {
		return
	}
	core, suffix := splitPunct(tokens[pos])
	idx := indexOf(d.ordinals, strings.ToLower(core))
	replace := func(with string) string {
		cp := append([]string(nil), tokens...)
		cp[pos] = with + suffix
		return strings.Join(cp, " ")
	}
	out.add(replace(strconv.Itoa(idx + 1)))
	if idx > 0 {
		out.add(replace(strings.ToUpper(d.ordinals[idx-1])))
	}
	if idx+1 < len(d.ordinals) {
		out.add(replace(strings.ToUpper(d.ordinals[idx+1])))
	}
}

func expandSubtitle(q string, out *collector) {
	cut := -1
	for _, sep := range subtitleSeparators {
		if i := strings.Index(q, sep); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return
	}
	if base := strings.TrimSpace(q[:cut]); base != "" {
		out.add(base)
	}
}

func (d *Detector) expandSisters(q, folded string, out *collector) {
	for _, g := range d.sisters {
		if g.series != "" && !textnorm.ContainsPhrase(folded, g.series) {
			continue
		}
		for i, re := range g.match {
			loc := re.FindStringIndex(q)
			if loc == nil {
				continue
			}
			capital := unicode.IsUpper([]rune(q[loc[0]:loc[1]])[0])
			for j, other := range g.members {
				if j == i {
					continue
				}
				if capital {
					other = titleCase(other)
				}
				out.add(re.ReplaceAllLiteralString(q, other))
			}
			break
		}
	}
}

// numeralToken finds the last roman numeral token. Single-letter numerals
// only count when the query has at least two tokens.
func (d *Detector) numeralToken(q string) ([]string, int, bool) {
	tokens := strings.Fields(q)
	for i := len(tokens) - 1; i >= 0; i-- {
		core, _ := splitPunct(tokens[i])
		lc := strings.ToLower(core)
		if indexOf(d.ordinals, lc) < 0 {
			continue
		}
		if len(lc) == 1 && len(tokens) < 2 {
			continue
		}
		return tokens, i, true
	}
	return nil, 0, false
}

// endsInNumber reports whether the last token of q is all ASCII digits,
// however large.
func endsInNumber(q string) bool {
	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return false
	}
	for _, r := range tokens[len(tokens)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// trailingNumber splits q into its base and trailing number. Numbers that do
// not fit an int have no sequels to expand.
func trailingNumber(q string) (string, int, bool) {
	if !endsInNumber(q) {
		return "", 0, false
	}
	tokens := strings.Fields(q)
	last := tokens[len(tokens)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return "", 0, false
	}
	return strings.Join(tokens[:len(tokens)-1], " "), n, true
}

func splitPunct(tok string) (string, string) {
	core := strings.TrimRightFunc(tok, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return core, tok[len(core):]
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type collector struct {
	seen  map[string]struct{}
	items []string
}

func newCollector(input string) *collector {
	return &collector{seen: map[string]struct{}{dedupKey(input): {}}}
}

func (c *collector) add(s string) {
	k := dedupKey(s)
	if k == "" {
		return
	}
	if _, ok := c.seen[k]; ok {
		return
	}
	c.seen[k] = struct{}{}
	c.items = append(c.items, collapse(s))
}

func dedupKey(s string) string {
	return strings.ToLower(collapse(s))
}
