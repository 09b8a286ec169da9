package myborrowings

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	ListBorrowingsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.BorrowingView, error)
}

// QueryHandler answers the My Borrowings query.
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

// Handle lists the user's borrowings, newest first.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Borrowings, error) {
	var views []ledger.BorrowingView

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var listErr error
		views, listErr = h.store.ListBorrowingsByUser(ledger.WithEventualConsistency(retryCtx), query.UserID)

		return listErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return Borrowings{}, err
	}

	if views == nil {
		views = []ledger.BorrowingView{}
	}

	return Borrowings{UserID: query.UserID, Borrowings: views, Count: len(views)}, nil
}
