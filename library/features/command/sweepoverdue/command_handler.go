package sweepoverdue

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// Store defines the storage operations the CommandHandler needs.
type Store interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// CommandHandler runs the Sweep Overdue use case with retry.
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

// Handle returns the number of loans that transitioned to overdue.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[int64], error) {
	var transitioned int64

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var markErr error
		transitioned, markErr = h.store.MarkOverdue(ledger.WithStrongConsistency(retryCtx), command.Now)

		return markErr
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(int64(0), retryMetrics), err
	}

	if transitioned == 0 {
		return shell.NewIdempotentResult(transitioned, retryMetrics), nil
	}

	return shell.NewSuccessResult(transitioned, retryMetrics), nil
}
