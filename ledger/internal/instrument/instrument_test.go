package instrument_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/internal/instrument"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

func Test_Observation_Finish_ClassifiesOutcomes(t *testing.T) {
	testCases := map[string]struct {
		err    error
		status string
	}{
		"success":     {nil, instrument.StatusSuccess},
		"rejected":    {ledger.ErrBookUnavailable, instrument.StatusRejected},
		"conflict":    {ledger.ErrTransientConflict, instrument.StatusConflict},
		"canceled":    {context.Canceled, instrument.StatusCanceled},
		"timeout":     {context.DeadlineExceeded, instrument.StatusTimeout},
		"infra":       {errors.New("connection reset"), instrument.StatusError},
		"invariant":   {ledger.ErrInconsistentState, instrument.StatusError},
		"unavailable": {ledger.ErrStorageUnavailable, instrument.StatusError},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			// arrange
			metrics := testdoubles.NewMetricsCollectorSpy(true)
			in := &instrument.Instrumentation{Engine: "test", Metrics: metrics}

			// act
			obs, _ := in.Start(context.Background(), "borrow_book", nil)
			obs.Finish(tc.err)

			// assert
			assert.True(t, metrics.HasCounterRecordForMetric(instrument.MetricOperationCalls).
				WithOperation("borrow_book").
				WithStatus(tc.status).
				Assert())
		})
	}
}

func Test_Observation_Finish_CountsInfrastructureErrorsByCode(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	logger := testdoubles.NewContextualLoggerSpy(true)
	in := &instrument.Instrumentation{Metrics: metrics, ContextualLogger: logger}

	// act
	obs, _ := in.Start(context.Background(), "return_book", nil)
	obs.Finish(errors.Join(ledger.ErrStorageUnavailable, errors.New("08006")))

	// assert
	assert.True(t, metrics.HasCounterRecordForMetric(instrument.MetricOperationErrors).
		WithOperation("return_book").
		WithErrorType(ledger.CodeStorageUnavailable).
		Assert())
	assert.True(t, logger.HasErrorLog("ledger operation failed: return_book"))
}

func Test_Observation_RecordRowsAffected(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	in := &instrument.Instrumentation{Metrics: metrics, Tracing: tracing}

	// act
	obs, _ := in.Start(context.Background(), "mark_overdue", nil)
	obs.RecordRowsAffected(3)
	obs.Finish(nil)

	// assert
	assert.True(t, metrics.HasValueRecordForMetric(instrument.MetricRowsAffected).WithValue(3).Assert())

	spans := tracing.GetSpanRecords()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "3", spans[0].SpanContext.GetAttributes()[instrument.AttrRowsAffected])
		assert.Equal(t, instrument.StatusSuccess, spans[0].SpanContext.GetStatus())
	}
}

func Test_Instrumentation_ZeroValueRecordsNothing(t *testing.T) {
	in := &instrument.Instrumentation{}

	assert.NotPanics(t, func() {
		obs, _ := in.Start(context.Background(), "list_books", nil)
		obs.RecordRowsAffected(1)
		obs.Finish(errors.New("boom"))
		in.LogWarn(context.Background(), "warn", errors.New("boom"))
	})
}

func Test_ToMilliseconds(t *testing.T) {
	assert.Equal(t, 1.5, instrument.ToMilliseconds(1500000))
	assert.Equal(t, 0.001, instrument.ToMilliseconds(1000))
}
