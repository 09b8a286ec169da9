package borrowbook

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	BorrowBook(ctx context.Context, borrowing ledger.Borrowing) (ledger.Borrowing, error)
}

// CommandHandler runs the Borrow Book use case with retry.
// External wrappers handle all observability concerns.
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

// Handle creates the Borrowing and returns it.
//
// Failures, in this order: ledger.ErrBookNotFound, ledger.ErrBookUnavailable,
// ledger.ErrUserNotFound, ledger.ErrAlreadyBorrowed.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[ledger.Borrowing], error) {
	borrowing := ledger.NewBorrowing(command.BorrowingID, command.UserID, command.BookID, command.BorrowedAt)

	var created ledger.Borrowing

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var borrowErr error
		created, borrowErr = h.store.BorrowBook(ledger.WithStrongConsistency(retryCtx), borrowing)

		return borrowErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(ledger.Borrowing{}, retryMetrics), err
	}

	return shell.NewSuccessResult(created, retryMetrics), nil
}
