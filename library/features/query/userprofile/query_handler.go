package userprofile

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the QueryHandler needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error)
}

// QueryHandler answers the User Profile query.
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

// Handle returns the User. Fails with ledger.ErrNotAuthorized or ledger.ErrUserNotFound.
// The read goes to the primary, a freshly registered user must find their own account.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ledger.User, error) {
	if err := core.RequireSelfOrAdmin(query.Actor, query.UserID); err != nil {
		return ledger.User{}, err
	}

	var user ledger.User

	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var getErr error
		user, getErr = h.store.GetUser(ledger.WithStrongConsistency(retryCtx), query.UserID)

		return getErr
	}, append([]shell.RetryOption{shell.WithRetryOnStorageUnavailable()}, h.retryOptions...)...)

	if err != nil {
		return ledger.User{}, err
	}

	return user, nil
}
