package returnbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	ReturnBook(ctx context.Context, id uuid.UUID, returnedAt time.Time) (ledger.Borrowing, error)
}

// CommandHandler runs the Return Book use case with retry.
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

// Handle records the return and returns the updated Borrowing.
//
// Failures, in this order: ledger.ErrNotAuthorized, ledger.ErrBorrowingNotFound,
// ledger.ErrAlreadyReturned, ledger.ErrInconsistentState.
// With ledger.ErrInconsistentState the return is committed and the result carries the Borrowing.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.Borrowing], error) {
	if err := core.RequireStaff(command.Actor); err != nil {
		return shell.NewErrorResult(ledger.Borrowing{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	var returned ledger.Borrowing

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var returnErr error
		returned, returnErr = h.store.ReturnBook(ledger.WithStrongConsistency(retryCtx), command.BorrowingID, command.ReturnedAt)

		return returnErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(returned, retryMetrics), err
	}

	return shell.NewSuccessResult(returned, retryMetrics), nil
}
