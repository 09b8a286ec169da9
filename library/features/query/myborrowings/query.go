package myborrowings

import (
	"github.com/google/uuid"
)

const queryType = "MyBorrowings"

// Query represents the intent to list the borrowings of a user.
type Query struct {
	UserID uuid.UUID
}

// BuildQuery creates a new Query for the given user.
func BuildQuery(userID uuid.UUID) Query {
	return Query{UserID: userID}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
