package inventoryaudit

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	AuditInventory(ctx context.Context) ([]ledger.InventoryDrift, error)
}

// QueryHandler answers the Inventory Audit query.
type QueryHandler struct {
	store        Store
	retryOptions []shell.RetryOption
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *QueryHandler) {
		h.retryOptions = opts
	}
}

// NewQueryHandler creates a new QueryHandler with optional configuration.
func NewQueryHandler(store Store, opts ...Option) QueryHandler {
	handler := QueryHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle audits the inventory against the primary, a replica could report drift that does not exist.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Report, error) {
	var drifts []ledger.InventoryDrift

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var auditErr error
		drifts, auditErr = h.store.AuditInventory(ledger.WithStrongConsistency(retryCtx))

		return auditErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return Report{}, err
	}

	if drifts == nil {
		drifts = []ledger.InventoryDrift{}
	}

	return Report{Drifts: drifts, Count: len(drifts), Consistent: len(drifts) == 0}, nil
}
