package updateuser

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error)
}

// CommandHandler runs the Update User use case with retry.
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

// Handle applies the update and returns the updated User. An empty update returns the current User.
// Failures: ledger.ErrNotAuthorized, ledger.ErrInvalidInput, ledger.ErrUserNotFound, ledger.ErrDuplicateEmail.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.User], error) {
	if err := core.RequireAdmin(command.Actor); err != nil {
		return shell.NewErrorResult(ledger.User{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	if err := command.Update.Validate(); err != nil {
		return shell.NewErrorResult(ledger.User{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	var user ledger.User

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		retryCtx = ledger.WithStrongConsistency(retryCtx)

		var storeErr error
		if command.Update.IsEmpty() {
			user, storeErr = h.store.GetUser(retryCtx, command.UserID)
		} else {
			user, storeErr = h.store.UpdateUser(retryCtx, command.UserID, command.Update)
		}

		return storeErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(ledger.User{}, retryMetrics), err
	}

	if command.Update.IsEmpty() {
		return shell.NewIdempotentResult(user, retryMetrics), nil
	}

	return shell.NewSuccessResult(user, retryMetrics), nil
}
