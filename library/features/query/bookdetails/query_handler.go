package bookdetails

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	GetBook(ctx context.Context, id uuid.UUID) (ledger.Book, error)
}

// QueryHandler answers the Book Details query.
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

// Handle returns the Book or ledger.ErrBookNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ledger.Book, error) {
	var book ledger.Book

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var getErr error
		book, getErr = h.store.GetBook(ledger.WithEventualConsistency(retryCtx), query.BookID)

		return getErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}
