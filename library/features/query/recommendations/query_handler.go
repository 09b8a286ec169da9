package recommendations

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	SampleBooks(ctx context.Context, limit int) ([]ledger.Book, error)
}

// QueryHandler answers the Recommendations query.
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

// Handle returns up to query.Limit books in random order.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Books, error) {
	limit := query.Limit
	if limit < 1 {
		limit = ledger.DefaultRecommendationCount
	}

	var books []ledger.Book

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var sampleErr error
		books, sampleErr = h.store.SampleBooks(ledger.WithEventualConsistency(retryCtx), limit)

		return sampleErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return Books{}, err
	}

	if books == nil {
		books = []ledger.Book{}
	}

	return Books{Books: books, Count: len(books)}, nil
}
