package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/internal/instrument"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

func Test_Conformance(t *testing.T) {
	ledgertest.RunConformance(t, func(t *testing.T) ledger.Store {
		return memoryengine.New()
	})
}

func Test_ReturnBook_ClampsAndFlagsInconsistentCounters(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	logger := testdoubles.NewContextualLoggerSpy(true)
	store := memoryengine.New(memoryengine.WithMetrics(metrics), memoryengine.WithContextualLogger(logger))

	book := ledgertest.GivenBook(t, store, 2)
	borrowing := ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, time.Now())
	store.ForceAvailableCopies(book.ID, 2)

	// act
	returned, err := store.ReturnBook(ctx, borrowing.ID, time.Now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrInconsistentState)
	assert.Equal(t, ledger.StatusReturned, returned.Status, "the return is kept")

	after, getErr := store.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, after.AvailableCopies, "the counter stays clamped at the total")

	assert.True(t, metrics.HasCounterRecordForMetric(instrument.MetricInconsistentState).
		WithOperation("return_book").
		Assert())
	assert.True(t, logger.HasErrorLog("LEDGER INCONSISTENCY DETECTED"))
}

func Test_AuditInventory_ReportsDrift(t *testing.T) {
	// arrange
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 3)
	ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, time.Now())
	store.ForceAvailableCopies(book.ID, 3)

	// act
	drifts, err := store.AuditInventory(context.Background())

	// assert
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, book.ID, drifts[0].BookID)
	assert.Equal(t, 2, drifts[0].ExpectedAvailable)
	assert.Equal(t, 1, drifts[0].ActiveBorrowings)
}

func Test_Store_RecordsOperationOutcomes(t *testing.T) {
	// arrange
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	store := memoryengine.New(memoryengine.WithMetrics(metrics), memoryengine.WithTracing(tracing))
	book := ledgertest.GivenBook(t, store, 1)

	// act
	_, okErr := store.GetBook(ctx, book.ID)
	_, notFoundErr := store.GetBook(ctx, uuid.New())

	// assert
	require.NoError(t, okErr)
	require.ErrorIs(t, notFoundErr, ledger.ErrBookNotFound)

	assert.True(t, metrics.HasDurationRecordForMetric(instrument.MetricOperationDuration).
		WithOperation("get_book").
		WithStatus(instrument.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(instrument.MetricOperationCalls).
		WithOperation("get_book").
		WithStatus(instrument.StatusRejected).
		Assert())
	assert.False(t, metrics.HasCounterRecordForMetric(instrument.MetricOperationErrors).Assert(),
		"domain rejections are not counted as errors")

	assert.True(t, tracing.HasSpanRecordForName("ledger.get_book").
		WithStatus(instrument.StatusRejected).
		WithEndAttribute(instrument.AttrErrorType, ledger.CodeBookNotFound).
		Assert())
	assert.True(t, tracing.HasSpanRecordForName("ledger.get_book").
		WithStartAttribute(instrument.AttrEngine, "memory").
		Assert())
}

func Test_Store_ReturnsCopies(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	borrowing := ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, time.Now())

	returned, err := store.ReturnBook(ctx, borrowing.ID, time.Now())
	require.NoError(t, err)

	// act
	*returned.ReturnDate = time.Time{}

	// assert
	views, listErr := store.ListBorrowings(ctx)
	require.NoError(t, listErr)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].ReturnDate)
	assert.False(t, views[0].ReturnDate.IsZero())
}
