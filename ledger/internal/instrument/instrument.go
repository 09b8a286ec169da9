// Package instrument bundles the logging, metrics and tracing hooks shared by the ledger storage engines.
package instrument

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	MetricOperationDuration = "ledger_operation_duration_seconds"
	MetricOperationCalls    = "ledger_operation_calls_total"
	MetricOperationErrors   = "ledger_operation_errors_total"
	MetricInconsistentState = "ledger_inconsistent_state_total"
	MetricRowsAffected      = "ledger_rows_affected"

	SpanNamePrefix = "ledger."

	AttrOperation    = "operation"
	AttrStatus       = "status"
	AttrErrorType    = "error_type"
	AttrEngine       = "engine"
	AttrDurationMS   = "duration_ms"
	AttrRowsAffected = "rows_affected"
	AttrError        = "error"
	AttrQuery        = "query"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"
	StatusConflict = "conflict"

	logMsgOperation         = "ledger operation: "
	logMsgOperationFailed   = "ledger operation failed: "
	logMsgOperationRejected = "ledger operation rejected: "
	logMsgStatementExecuted = "executed statement for: "
	logMsgInconsistentState = "LEDGER INCONSISTENCY DETECTED"
)

// Instrumentation holds the optional observability collaborators of a storage engine.
// The zero value is usable and records nothing.
type Instrumentation struct {
	Engine           string
	Logger           ledger.Logger
	ContextualLogger ledger.ContextualLogger
	Metrics          ledger.MetricsCollector
	Tracing          ledger.TracingCollector
}

// Observation tracks one store operation from start to finish.
type Observation struct {
	in        *Instrumentation
	ctx       context.Context
	operation string
	start     time.Time
	span      ledger.SpanContext
}

// Start begins an Observation and returns the context that carries its span.
func (in *Instrumentation) Start(ctx context.Context, operation string, attrs map[string]string) (*Observation, context.Context) {
	spanAttrs := map[string]string{AttrOperation: operation, AttrEngine: in.Engine}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span ledger.SpanContext
	if in.Tracing != nil {
		ctx, span = in.Tracing.StartSpan(ctx, SpanNamePrefix+operation, spanAttrs)
	}

	return &Observation{
		in:        in,
		ctx:       ctx,
		operation: operation,
		start:     time.Now(),
		span:      span,
	}, ctx
}

// Finish records the outcome of the operation. Domain errors are reported as rejections,
// everything else as failures. The extra args are appended to the log record.
func (o *Observation) Finish(err error, args ...any) {
	duration := time.Since(o.start)
	status := statusFor(err)

	o.recordDuration(duration, status)
	o.incrementCounter(MetricOperationCalls, map[string]string{AttrOperation: o.operation, AttrStatus: status})

	if err != nil && status != StatusRejected {
		o.incrementCounter(MetricOperationErrors, map[string]string{
			AttrOperation: o.operation,
			AttrStatus:    status,
			AttrErrorType: ledger.ErrorCode(err),
		})
	}

	if errors.Is(err, ledger.ErrInconsistentState) {
		o.incrementCounter(MetricInconsistentState, map[string]string{AttrOperation: o.operation})
		o.in.logError(o.ctx, logMsgInconsistentState, err, append([]any{AttrOperation, o.operation}, args...)...)
	}

	o.finishSpan(status, duration, err)

	logArgs := append([]any{AttrDurationMS, ToMilliseconds(duration)}, args...)

	switch {
	case err == nil:
		o.in.logInfo(o.ctx, logMsgOperation+o.operation, logArgs...)
	case status == StatusRejected:
		o.in.logInfo(o.ctx, logMsgOperationRejected+o.operation, append(logArgs, AttrErrorType, ledger.ErrorCode(err))...)
	default:
		o.in.logError(o.ctx, logMsgOperationFailed+o.operation, err, logArgs...)
	}
}

// RecordRowsAffected records the number of rows (documents) an operation changed.
func (o *Observation) RecordRowsAffected(rows int64) {
	if o.span != nil {
		o.span.AddAttribute(AttrRowsAffected, strconv.FormatInt(rows, 10))
	}

	labels := map[string]string{AttrOperation: o.operation}

	if o.in.Metrics == nil {
		return
	}

	if contextual, ok := o.in.Metrics.(ledger.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(o.ctx, MetricRowsAffected, float64(rows), labels)
	} else {
		o.in.Metrics.RecordValue(MetricRowsAffected, float64(rows), labels)
	}
}

// LogStatement logs an executed statement with its duration at debug level.
func (in *Instrumentation) LogStatement(ctx context.Context, action, statement string, duration time.Duration) {
	args := []any{AttrDurationMS, ToMilliseconds(duration), AttrQuery, statement}

	if in.ContextualLogger != nil {
		in.ContextualLogger.DebugContext(ctx, logMsgStatementExecuted+action, args...)
		return
	}

	if in.Logger != nil {
		in.Logger.Debug(logMsgStatementExecuted+action, args...)
	}
}

// LogWarn logs non-critical issues like cleanup failures.
func (in *Instrumentation) LogWarn(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{AttrError, err.Error()}, args...)

	if in.ContextualLogger != nil {
		in.ContextualLogger.WarnContext(ctx, msg, allArgs...)
		return
	}

	if in.Logger != nil {
		in.Logger.Warn(msg, allArgs...)
	}
}

func (in *Instrumentation) logInfo(ctx context.Context, msg string, args ...any) {
	if in.ContextualLogger != nil {
		in.ContextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if in.Logger != nil {
		in.Logger.Info(msg, args...)
	}
}

func (in *Instrumentation) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{AttrError, err.Error()}, args...)

	if in.ContextualLogger != nil {
		in.ContextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if in.Logger != nil {
		in.Logger.Error(msg, allArgs...)
	}
}

func (o *Observation) recordDuration(duration time.Duration, status string) {
	if o.in.Metrics == nil {
		return
	}

	labels := map[string]string{AttrOperation: o.operation, AttrStatus: status}

	if contextual, ok := o.in.Metrics.(ledger.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(o.ctx, MetricOperationDuration, duration, labels)
	} else {
		o.in.Metrics.RecordDuration(MetricOperationDuration, duration, labels)
	}
}

func (o *Observation) incrementCounter(metric string, labels map[string]string) {
	if o.in.Metrics == nil {
		return
	}

	if contextual, ok := o.in.Metrics.(ledger.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(o.ctx, metric, labels)
	} else {
		o.in.Metrics.IncrementCounter(metric, labels)
	}
}

func (o *Observation) finishSpan(status string, duration time.Duration, err error) {
	if o.in.Tracing == nil || o.span == nil {
		return
	}

	attrs := map[string]string{
		AttrStatus:     status,
		AttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 3, 64),
	}

	if err != nil {
		attrs[AttrErrorType] = ledger.ErrorCode(err)
		attrs[AttrError] = err.Error()
	}

	o.span.SetStatus(status)
	o.in.Tracing.FinishSpan(o.span, status, attrs)
}

func statusFor(err error) string {
	switch {
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

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
