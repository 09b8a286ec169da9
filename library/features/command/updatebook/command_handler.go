package updatebook

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	GetBook(ctx context.Context, id uuid.UUID) (ledger.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error)
}

// CommandHandler runs the Update Book use case with retry.
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

// Handle applies the update and returns the updated Book.
//
// Failures: ledger.ErrNotAuthorized, ledger.ErrInvalidInput, ledger.ErrBookNotFound,
// ledger.ErrDuplicateISBN, ledger.ErrTotalCopiesBelowActiveLoans.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.Book], error) {
	if err := core.RequireStaff(command.Actor); err != nil {
		return shell.NewErrorResult(ledger.Book{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	if err := command.Update.Validate(); err != nil {
		return shell.NewErrorResult(ledger.Book{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	var book ledger.Book

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		retryCtx = ledger.WithStrongConsistency(retryCtx)

		var storeErr error
		if command.Update.IsEmpty() {
			book, storeErr = h.store.GetBook(retryCtx, command.BookID)
		} else {
			book, storeErr = h.store.UpdateBook(retryCtx, command.BookID, command.Update)
		}

		return storeErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(ledger.Book{}, retryMetrics), err
	}

	if command.Update.IsEmpty() {
		return shell.NewIdempotentResult(book, retryMetrics), nil
	}

	return shell.NewSuccessResult(book, retryMetrics), nil
}
