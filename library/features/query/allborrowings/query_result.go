package allborrowings

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Borrowings represents the query result containing all loans.
type Borrowings struct {
	Borrowings []ledger.BorrowingView `json:"borrowings"`
	Count      int                    `json:"count"`
}
