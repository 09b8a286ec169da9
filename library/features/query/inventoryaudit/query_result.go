package inventoryaudit

import (
	"errors"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Report represents the query result containing every drifted book.
type Report struct {
	Drifts     []ledger.InventoryDrift `json:"drifts"`
	Count      int                     `json:"count"`
	Consistent bool                    `json:"consistent"`
}

// Err returns nil for a consistent inventory, otherwise all drifts joined.
// The result wraps ledger.ErrInconsistentState.
func (r Report) Err() error {
	if r.Consistent {
		return nil
	}

	errs := make([]error, 0, len(r.Drifts))
	for _, drift := range r.Drifts {
		errs = append(errs, drift)
	}

	return errors.Join(errs...)
}
