package listbooks

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Books represents the query result containing the matching catalog entries.
type Books struct {
	Books []ledger.Book `json:"books"`
	Count int           `json:"count"`
}
