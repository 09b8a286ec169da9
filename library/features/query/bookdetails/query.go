package bookdetails

import (
	"github.com/google/uuid"
)

const queryType = "BookDetails"

// Query represents the intent to look up one catalog entry.
type Query struct {
	BookID uuid.UUID
}

// BuildQuery creates a new Query for the given book.
func BuildQuery(bookID uuid.UUID) Query {
	return Query{BookID: bookID}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
