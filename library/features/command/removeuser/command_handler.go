package removeuser

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// CommandHandler runs the Remove User use case with retry.
type CommandHandler struct {
	store        Store
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle deletes the User and returns its id.
// Failures: ledger.ErrNotAuthorized, ledger.ErrUserNotFound, ledger.ErrUserHasActiveBorrowings.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[uuid.UUID], error) {
	if err := core.RequireAdmin(command.Actor); err != nil {
		return shell.NewErrorResult(uuid.Nil, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.store.DeleteUser(ledger.WithStrongConsistency(retryCtx), command.UserID)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(uuid.Nil, retryMetrics), err
	}

	return shell.NewSuccessResult(command.UserID, retryMetrics), nil
}
