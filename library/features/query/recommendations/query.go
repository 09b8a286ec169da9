package recommendations

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const queryType = "Recommendations"

// Query represents the intent to get up to Limit randomly chosen books.
type Query struct {
	Limit int
}

// BuildQuery creates a new Query. A limit below one means ledger.DefaultRecommendationCount.
func BuildQuery(limit int) Query {
	if limit < 1 {
		limit = ledger.DefaultRecommendationCount
	}

	return Query{Limit: limit}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
