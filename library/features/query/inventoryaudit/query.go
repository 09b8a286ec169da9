package inventoryaudit

const queryType = "InventoryAudit"

// Query represents the intent to reconcile the book counters with the ledger.
type Query struct{}

// BuildQuery creates a new Query.
func BuildQuery() Query {
	return Query{}
}

// QueryType returns the query type identifier.
func (q Query) QueryType() string {
	return queryType
}
