package listusers

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	ListUsers(ctx context.Context) ([]ledger.User, error)
}

// QueryHandler answers the List Users query.
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

// Handle lists all users, newest first. Fails with ledger.ErrNotAuthorized unless the actor is an admin.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Users, error) {
	if err := core.RequireAdmin(query.Actor); err != nil {
		return Users{}, err
	}

	var users []ledger.User

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var listErr error
		users, listErr = h.store.ListUsers(ledger.WithEventualConsistency(retryCtx))

		return listErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return Users{}, err
	}

	if users == nil {
		users = []ledger.User{}
	}

	return Users{Users: users, Count: len(users)}, nil
}
