package listusers

import (
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const queryType = "ListUsers"

// Query represents the intent of an admin to list all accounts.
type Query struct {
	Actor core.Actor
}

// BuildQuery creates a new Query.
func BuildQuery(actor core.Actor) Query {
	return Query{Actor: actor}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
