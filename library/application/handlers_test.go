package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/application"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/borrowbook"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listbooks"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func Test_New_WithoutObservability(t *testing.T) {
	// arrange
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	user := ledgertest.GivenUser(t, store)

	handlers, err := application.New(store, plainHasher{}, application.Observability{})
	require.NoError(t, err)

	// act
	result, borrowErr := handlers.BorrowBook.Handle(
		context.Background(),
		borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, time.Now()),
	)

	// assert
	require.NoError(t, borrowErr)
	assert.Equal(t, ledger.StatusBorrowed, result.Value.Status)
}

func Test_New_InstrumentsEveryHandler(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	user := ledgertest.GivenUser(t, store)
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	logger := testdoubles.NewContextualLoggerSpy(true)

	handlers, err := application.New(store, plainHasher{}, application.Observability{
		Metrics: metrics,
		Tracing: tracing,
		Logger:  logger,
	})
	require.NoError(t, err)

	// act
	_, borrowErr := handlers.BorrowBook.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, time.Now()))
	_, secondErr := handlers.BorrowBook.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, time.Now()))
	books, listErr := handlers.ListBooks.Handle(ctx, listbooks.BuildQuery("", ""))

	// assert
	require.NoError(t, borrowErr)
	require.ErrorIs(t, secondErr, ledger.ErrBookUnavailable)
	require.NoError(t, listErr)
	assert.Equal(t, 1, books.Count)

	assert.True(t, metrics.HasDurationRecordForMetric(shell.CommandDurationMetric).
		WithCommandType(borrowbook.Command{}.CommandType()).
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(shell.CommandDurationMetric).
		WithCommandType(borrowbook.Command{}.CommandType()).
		WithStatus(shell.StatusRejected).
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(shell.QueryDurationMetric).
		WithQueryType(listbooks.Query{}.QueryType()).
		Assert())
	assert.NotEmpty(t, tracing.GetSpanRecords())
	assert.NotEmpty(t, logger.Records())
}
