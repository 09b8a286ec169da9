package userprofile

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

const queryType = "UserProfile"

// Query represents the intent to read one account. Users may read their own, admins any.
type Query struct {
	UserID uuid.UUID
	Actor  core.Actor
}

// BuildQuery creates a new Query.
func BuildQuery(userID uuid.UUID, actor core.Actor) Query {
	return Query{UserID: userID, Actor: actor}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
