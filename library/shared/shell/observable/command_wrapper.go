package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

// CommandWrapper adds metrics, tracing and logging to a core command handler.
// It translates the HandlerResult and the error of the wrapped handler into observability signals
// and returns both unchanged.
type CommandWrapper[C shell.Command, R any] struct {
	coreHandler      shell.CoreCommandHandler[C, R]
	commandType      string
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// NewCommandWrapper creates an observable wrapper around coreHandler.
func NewCommandWrapper[C shell.Command, R any](
	coreHandler shell.CoreCommandHandler[C, R],
	opts ...CommandOption[C, R],
) (*CommandWrapper[C, R], error) {
	var zeroCommand C

	wrapper := &CommandWrapper[C, R]{
		coreHandler: coreHandler,
		commandType: zeroCommand.CommandType(),
	}

	for _, opt := range opts {
		if err := opt(wrapper); err != nil {
			return nil, err
		}
	}

	return wrapper, nil
}

// Handle delegates to the core handler and records its outcome.
func (w *CommandWrapper[C, R]) Handle(ctx context.Context, command C) (shell.HandlerResult[R], error) {
	start := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogCommandStart(ctx, w.logger, w.contextualLogger, w.commandType)

	result, err := w.coreHandler.Handle(ctx, command)

	duration := time.Since(start)
	status := shell.ClassifyOutcome(err, result.Idempotent)

	w.recordRetryMetrics(ctx, result)
	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishSpan(w.tracingCollector, span, status, duration, err)
	shell.LogCommandOutcome(ctx, w.logger, w.contextualLogger, w.commandType, status, duration, err)

	return result, err
}

// CommandOption defines a functional option for configuring CommandWrapper.
type CommandOption[C shell.Command, R any] func(*CommandWrapper[C, R]) error

// WithCommandMetrics sets the metrics collector for the CommandWrapper.
func WithCommandMetrics[C shell.Command, R any](collector shell.MetricsCollector) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithCommandTracing sets the tracing collector for the CommandWrapper.
func WithCommandTracing[C shell.Command, R any](collector shell.TracingCollector) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.tracingCollector = collector
		return nil
	}
}

// WithCommandContextualLogging sets the contextual logger for the CommandWrapper.
func WithCommandContextualLogging[C shell.Command, R any](logger shell.ContextualLogger) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithCommandLogging sets the basic logger for the CommandWrapper.
func WithCommandLogging[C shell.Command, R any](logger shell.Logger) CommandOption[C, R] {
	return func(w *CommandWrapper[C, R]) error {
		w.logger = logger
		return nil
	}
}

// recordRetryMetrics records the retry metadata reported by the core handler.
func (w *CommandWrapper[C, R]) recordRetryMetrics(ctx context.Context, result shell.HandlerResult[R]) {
	if w.metricsCollector == nil || result.RetryAttempts <= 1 {
		return
	}

	retryLabels := shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType)
	delayLabels := map[string]string{shell.LogAttrOperationType: w.commandType}

	if contextual, ok := w.metricsCollector.(shell.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, shell.RetriesMetric, retryLabels)
		contextual.RecordDurationContext(ctx, shell.RetryDelayMetric, result.TotalRetryDelay, delayLabels)
	} else {
		w.metricsCollector.IncrementCounter(shell.RetriesMetric, retryLabels)
		w.metricsCollector.RecordDuration(shell.RetryDelayMetric, result.TotalRetryDelay, delayLabels)
	}

	if !result.RetriesExhausted {
		return
	}

	exhaustedLabels := map[string]string{
		shell.LogAttrOperationType:  w.commandType,
		shell.LogAttrFinalErrorType: result.LastErrorType,
	}

	if contextual, ok := w.metricsCollector.(shell.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, shell.MaxRetriesReachedMetric, exhaustedLabels)
	} else {
		w.metricsCollector.IncrementCounter(shell.MaxRetriesReachedMetric, exhaustedLabels)
	}
}
