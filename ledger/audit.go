package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// InventoryDrift reports a Book whose stored counters disagree with the Borrowing ledger.
// The ledger is the source of truth, ExpectedAvailable is what AvailableCopies should be.
type InventoryDrift struct {
	BookID            uuid.UUID `json:"bookId"`
	TotalCopies       int       `json:"totalCopies"`
	AvailableCopies   int       `json:"availableCopies"`
	ActiveBorrowings  int       `json:"activeBorrowings"`
	ExpectedAvailable int       `json:"expectedAvailable"`
}

// Error makes a single drift usable as an error wrapping ErrInconsistentState.
func (d InventoryDrift) Error() string {
	return fmt.Sprintf(
		"%s: book %s has %d of %d copies available but %d active borrowings (expected %d available)",
		ErrInconsistentState, d.BookID, d.AvailableCopies, d.TotalCopies, d.ActiveBorrowings, d.ExpectedAvailable,
	)
}

// Unwrap returns ErrInconsistentState.
func (d InventoryDrift) Unwrap() error {
	return ErrInconsistentState
}

// CheckInventory compares the counters of one Book against the count of its active Borrowings.
// It returns the drift and true when any invariant is violated.
func CheckInventory(bookID uuid.UUID, totalCopies, availableCopies, activeBorrowings int) (InventoryDrift, bool) {
	drift := InventoryDrift{
		BookID:            bookID,
		TotalCopies:       totalCopies,
		AvailableCopies:   availableCopies,
		ActiveBorrowings:  activeBorrowings,
		ExpectedAvailable: totalCopies - activeBorrowings,
	}

	violated := availableCopies < 0 ||
		availableCopies > totalCopies ||
		availableCopies != drift.ExpectedAvailable

	return drift, violated
}
