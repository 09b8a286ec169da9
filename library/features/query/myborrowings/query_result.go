package myborrowings

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Borrowings represents the query result containing the loans of one user.
type Borrowings struct {
	UserID     uuid.UUID              `json:"userId"`
	Borrowings []ledger.BorrowingView `json:"borrowings"`
	Count      int                    `json:"count"`
}
