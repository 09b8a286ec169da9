package addbook

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error)
}

// CommandHandler runs the Add Book use case with retry.
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

// Handle creates the Book and returns it.
// Failures: ledger.ErrNotAuthorized, ledger.ErrInvalidInput, ledger.ErrDuplicateISBN.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.Book], error) {
	if err := core.RequireStaff(command.Actor); err != nil {
		return shell.NewErrorResult(ledger.Book{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	book := ledger.NewBook(
		command.BookID,
		command.Title,
		command.Author,
		command.ISBN,
		command.Genre,
		command.Description,
		command.TotalCopies,
		command.AddedAt,
	)

	if err := book.Validate(); err != nil {
		return shell.NewErrorResult(ledger.Book{}, shell.RetryMetrics{LastErrorType: shell.ErrorTypeOther}), err
	}

	var created ledger.Book

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var createErr error
		created, createErr = h.store.CreateBook(ledger.WithStrongConsistency(retryCtx), book)

		return createErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(ledger.Book{}, retryMetrics), err
	}

	return shell.NewSuccessResult(created, retryMetrics), nil
}
