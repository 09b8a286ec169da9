package recommendations

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Books represents the query result containing the recommended books.
type Books struct {
	Books []ledger.Book `json:"books"`
	Count int           `json:"count"`
}
