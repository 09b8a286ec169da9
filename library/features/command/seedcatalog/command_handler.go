package seedcatalog

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error)
}

// Result counts the outcome per entry.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// CommandHandler runs the Seed Catalog use case with retry.
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

// Handle inserts every entry whose isbn is not taken yet.
// The result is idempotent when nothing was inserted.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[Result], error) {
	var result Result
	next := 0

	// Entries apply one by one, a retried attempt resumes at the entry that failed.
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		retryCtx = ledger.WithStrongConsistency(retryCtx)

		for ; next < len(command.Entries); next++ {
			entry := command.Entries[next]
			createdAt := command.SeededAt.Add(time.Duration(next) * time.Microsecond)
			book := ledger.NewBook(
				core.NewID(),
				entry.Title,
				entry.Author,
				entry.ISBN,
				entry.Genre,
				entry.Description,
				entry.TotalCopies,
				createdAt,
			)
			book.BorrowCount = entry.BorrowCount

			_, createErr := h.store.CreateBook(retryCtx, book)

			switch {
			case createErr == nil:
				result.Inserted++
			case errors.Is(createErr, ledger.ErrDuplicateISBN):
				result.Skipped++
			default:
				return createErr
			}
		}

		return nil
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(result, retryMetrics), err
	}

	if result.Inserted == 0 {
		return shell.NewIdempotentResult(result, retryMetrics), nil
	}

	return shell.NewSuccessResult(result, retryMetrics), nil
}
