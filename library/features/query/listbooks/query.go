package listbooks

import (
	"strings"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const queryType = "ListBooks"

// Query represents the intent to browse the catalog.
type Query struct {
	Filter ledger.BookFilter
}

// BuildQuery creates a new Query. Empty arguments do not filter.
func BuildQuery(search, genre string) Query {
	return Query{
		Filter: ledger.BookFilter{
			Search: strings.TrimSpace(search),
			Genre:  strings.TrimSpace(genre),
		},
	}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
