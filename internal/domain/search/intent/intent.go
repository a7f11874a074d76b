package intent

// Intent is the search strategy a query or sub-query targets.
type Intent string

// Intent constants.
const (
	// Exact targets a specific title (numbered entry, subtitle, roman numeral).
	Exact     Intent = "exact"
	Franchise Intent = "franchise"
	// Alternative matches alternate release names.
	Alternative Intent = "alternative"
	// Collection matches series membership.
	Collection Intent = "collection"
	General    Intent = "general"
)

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	switch i {
	case Exact, Franchise, Alternative, Collection, General:
		return true
	}
	return false
}

// Broad reports whether the intent fans out beyond a single exact sub-query.
func (i Intent) Broad() bool {
	return i == Franchise || i == General
}
