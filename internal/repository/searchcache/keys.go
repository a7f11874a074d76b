package searchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/kailas-cloud/gamedex/internal/domain/search/intent"
)

// Key namespaces; bump the version when the payload shape changes.
const (
	searchKeyPrefix = "search:v1:"
	gamesKeyPrefix  = "games:v1:"
)

// SearchKey derives the deterministic key for a search. The text is trimmed,
// inner whitespace is collapsed and case is folded. Diacritics and punctuation
// reach the catalog unchanged, so they stay in the key: "Pokémon: Red" and
// "pokemon red" are separate entries.
func SearchKey(text string, limit int, in intent.Intent, sister bool) string {
	raw := strings.Join([]string{
		strings.ToLower(strings.Join(strings.Fields(text), " ")),
		strconv.Itoa(limit),
		string(in),
		strconv.FormatBool(sister),
	}, "|")
	return searchKeyPrefix + digest(raw)
}

// GamesKey derives the key for a lookup by identifiers. Results follow the order
// of ids, so the order is part of the key; ids must already be deduplicated.
func GamesKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return gamesKeyPrefix + digest(strings.Join(parts, ","))
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
