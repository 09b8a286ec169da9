package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	// CommandDurationMetric tracks command handler execution duration.
	CommandDurationMetric = "library_command_duration_seconds"

	// CommandCallsMetric tracks total command handler calls per status.
	CommandCallsMetric = "library_command_calls_total"

	CommandIdempotentMetric = "library_command_idempotent_total"
	CommandRejectedMetric   = "library_command_rejected_total"
	CommandCanceledMetric   = "library_command_canceled_total"
	CommandTimeoutMetric    = "library_command_timeout_total"
	CommandConflictMetric   = "library_command_conflicts_total"

	// QueryDurationMetric tracks query handler execution duration.
	QueryDurationMetric = "library_query_duration_seconds"

	// QueryCallsMetric tracks total query handler calls per status.
	QueryCallsMetric = "library_query_calls_total"

	QueryRejectedMetric = "library_query_rejected_total"
	QueryCanceledMetric = "library_query_canceled_total"
	QueryTimeoutMetric  = "library_query_timeout_total"

	// RetriesMetric tracks retry attempts.
	//
	// Labels:
	//   - operation_type: command or query type being retried
	//   - attempt_number: which retry attempt (1, 2, 3)
	//   - error_type: category of the error causing the retry
	RetriesMetric = "library_retries_total"

	// RetryDelayMetric tracks the backoff delay before each retry attempt.
	RetryDelayMetric = "library_retry_delay_seconds"

	// MaxRetriesReachedMetric tracks when all attempts failed with a retryable error.
	MaxRetriesReachedMetric = "library_max_retries_reached_total"

	StatusSuccess    = "success"
	StatusIdempotent = "idempotent"
	StatusRejected   = "rejected"
	StatusError      = "error"
	StatusCanceled   = "canceled"
	StatusTimeout    = "timeout"
	StatusConflict   = "conflict"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryStarted     = "query handler started"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryRejected    = "query handler rejected"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrOperationType   = "operation_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrError           = "error"
	LogAttrErrorCode       = "error_code"
	LogAttrErrorType       = "error_type"
	LogAttrAttemptNumber   = "attempt_number"
	LogAttrFinalErrorType  = "final_error_type"

	SpanNameCommandHandle = "library.command.handle"
	SpanNameQueryHandle   = "library.query.handle"
)

// MetricsCollector interface for collecting handler performance metrics.
type MetricsCollector = ledger.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = ledger.ContextualMetricsCollector

// TracingCollector interface for distributed tracing in handlers.
type TracingCollector = ledger.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = ledger.SpanContext

// ContextualLogger interface for context-aware logging in handlers.
type ContextualLogger = ledger.ContextualLogger

// Logger interface for basic logging in handlers.
type Logger = ledger.Logger

// handlerKind holds what differs between command and query instrumentation.
type handlerKind struct {
	typeAttr       string
	spanName       string
	durationMetric string
	callsMetric    string
	statusMetrics  map[string]string
	msgStarted     string
	msgCompleted   string
	msgRejected    string
	msgFailed      string
}

var commandKind = handlerKind{
	typeAttr:       LogAttrCommandType,
	spanName:       SpanNameCommandHandle,
	durationMetric: CommandDurationMetric,
	callsMetric:    CommandCallsMetric,
	statusMetrics: map[string]string{
		StatusIdempotent: CommandIdempotentMetric,
		StatusRejected:   CommandRejectedMetric,
		StatusCanceled:   CommandCanceledMetric,
		StatusTimeout:    CommandTimeoutMetric,
		StatusConflict:   CommandConflictMetric,
	},
	msgStarted:   LogMsgCommandStarted,
	msgCompleted: LogMsgCommandCompleted,
	msgRejected:  LogMsgCommandRejected,
	msgFailed:    LogMsgCommandFailed,
}

var queryKind = handlerKind{
	typeAttr:       LogAttrQueryType,
	spanName:       SpanNameQueryHandle,
	durationMetric: QueryDurationMetric,
	callsMetric:    QueryCallsMetric,
	statusMetrics: map[string]string{
		StatusRejected: QueryRejectedMetric,
		StatusCanceled: QueryCanceledMetric,
		StatusTimeout:  QueryTimeoutMetric,
	},
	msgStarted:   LogMsgQueryStarted,
	msgCompleted: LogMsgQueryCompleted,
	msgRejected:  LogMsgQueryRejected,
	msgFailed:    LogMsgQueryFailed,
}

// ClassifyOutcome maps the result of a handler to one of the Status values.
// Domain errors are rejections: the use case worked as designed and refused the request.
// An inconsistent ledger state is always an error.
func ClassifyOutcome(err error, idempotent bool) string {
	switch {
	case err == nil && idempotent:
		return StatusIdempotent
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, ledger.ErrTransientConflict):
		return StatusConflict
	case errors.Is(err, ledger.ErrInconsistentState):
		return StatusError
	case ledger.IsDomainError(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{LogAttrCommandType: commandType, LogAttrStatus: status}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{LogAttrQueryType: queryType, LogAttrStatus: status}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(operationType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrOperationType: operationType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordCommandMetrics records the duration, the call and the per-status counter of a command.
func RecordCommandMetrics(ctx context.Context, collector MetricsCollector, commandType, status string, duration time.Duration) {
	commandKind.recordMetrics(ctx, collector, commandType, status, duration)
}

// RecordQueryMetrics records the duration, the call and the per-status counter of a query.
func RecordQueryMetrics(ctx context.Context, collector MetricsCollector, queryType, status string, duration time.Duration) {
	queryKind.recordMetrics(ctx, collector, queryType, status, duration)
}

func (k handlerKind) recordMetrics(ctx context.Context, collector MetricsCollector, handlerType, status string, duration time.Duration) {
	if collector == nil {
		return
	}

	labels := map[string]string{k.typeAttr: handlerType, LogAttrStatus: status}
	statusMetric, hasStatusMetric := k.statusMetrics[status]

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, k.durationMetric, duration, labels)
		contextual.IncrementCounterContext(ctx, k.callsMetric, labels)

		if hasStatusMetric {
			contextual.IncrementCounterContext(ctx, statusMetric, labels)
		}

		return
	}

	collector.RecordDuration(k.durationMetric, duration, labels)
	collector.IncrementCounter(k.callsMetric, labels)

	if hasStatusMetric {
		collector.IncrementCounter(statusMetric, labels)
	}
}

// StartCommandSpan starts a span for a command. It returns ctx and nil when tracing is disabled.
func StartCommandSpan(ctx context.Context, tracingCollector TracingCollector, commandType string) (context.Context, SpanContext) {
	return commandKind.startSpan(ctx, tracingCollector, commandType)
}

// StartQuerySpan starts a span for a query. It returns ctx and nil when tracing is disabled.
func StartQuerySpan(ctx context.Context, tracingCollector TracingCollector, queryType string) (context.Context, SpanContext) {
	return queryKind.startSpan(ctx, tracingCollector, queryType)
}

func (k handlerKind) startSpan(ctx context.Context, tracingCollector TracingCollector, handlerType string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, k.spanName, map[string]string{k.typeAttr: handlerType})
}

// FinishSpan completes a command or query span with the operation outcome.
func FinishSpan(tracingCollector TracingCollector, span SpanContext, status string, duration time.Duration, err error) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 2, 64),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
		attrs[LogAttrErrorCode] = ledger.ErrorCode(err)
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogCommandStart logs the beginning of command processing.
func LogCommandStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string) {
	commandKind.logStart(ctx, logger, contextualLogger, commandType)
}

// LogCommandOutcome logs the completion, rejection or failure of a command.
func LogCommandOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	status string,
	duration time.Duration,
	err error,
) {
	commandKind.logOutcome(ctx, logger, contextualLogger, commandType, status, duration, err)
}

// LogQueryStart logs the beginning of query processing.
func LogQueryStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string) {
	queryKind.logStart(ctx, logger, contextualLogger, queryType)
}

// LogQueryOutcome logs the completion, rejection or failure of a query.
func LogQueryOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	status string,
	duration time.Duration,
	err error,
) {
	queryKind.logOutcome(ctx, logger, contextualLogger, queryType, status, duration, err)
}

func (k handlerKind) logStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, handlerType string) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, k.msgStarted, k.typeAttr, handlerType)
	} else if logger != nil {
		logger.Debug(k.msgStarted, k.typeAttr, handlerType)
	}
}

func (k handlerKind) logOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	handlerType string,
	status string,
	duration time.Duration,
	err error,
) {
	args := []any{
		k.typeAttr, handlerType,
		LogAttrBusinessOutcome, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	switch status {
	case StatusSuccess, StatusIdempotent:
		logInfo(ctx, logger, contextualLogger, k.msgCompleted, args...)
	case StatusRejected:
		logInfo(ctx, logger, contextualLogger, k.msgRejected, append(args, LogAttrErrorCode, ledger.ErrorCode(err))...)
	default:
		args = append(args, LogAttrErrorCode, ledger.ErrorCode(err))
		if err != nil {
			args = append(args, LogAttrError, err.Error())
		}

		logError(ctx, logger, contextualLogger, k.msgFailed, args...)
	}
}

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

func logError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}
