package shell

import "time"

// HandlerResult represents the outcome of a command handler execution.
// It carries the produced value together with the business outcome (idempotency)
// and the execution metadata (retry information) without coupling the handler
// to specific observability implementations.
type HandlerResult[R any] struct {
	// Value is the result of the use case. It may be set even when the handler returns an error,
	// e.g. a committed return that was accompanied by an inconsistency report.
	Value R

	// Idempotent indicates that no state change was needed.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays, excluding execution time.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error encountered, see ErrorType.
	LastErrorType string

	// RetriesExhausted is true when all attempts failed with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for an operation that changed state.
func NewSuccessResult[R any](value R, retryMetrics RetryMetrics) HandlerResult[R] {
	return newResult(value, false, retryMetrics)
}

// NewIdempotentResult creates a HandlerResult for an operation that did not need to change anything.
func NewIdempotentResult[R any](value R, retryMetrics RetryMetrics) HandlerResult[R] {
	return newResult(value, true, retryMetrics)
}

// NewErrorResult creates a HandlerResult for a failed operation, keeping the retry metadata
// and whatever partial value the operation produced.
func NewErrorResult[R any](value R, retryMetrics RetryMetrics) HandlerResult[R] {
	return newResult(value, false, retryMetrics)
}

func newResult[R any](value R, idempotent bool, retryMetrics RetryMetrics) HandlerResult[R] {
	return HandlerResult[R]{
		Value:            value,
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
