package inventoryaudit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/inventoryaudit"
)

func Test_QueryHandler_Handle_ConsistentInventory(t *testing.T) {
	// arrange
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 2)
	ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, time.Now().UTC())
	handler := inventoryaudit.NewQueryHandler(store)

	// act
	report, err := handler.Handle(context.Background(), inventoryaudit.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Zero(t, report.Count)
	assert.NotNil(t, report.Drifts)
	assert.NoError(t, report.Err())
}

func Test_QueryHandler_Handle_ReportsDrift(t *testing.T) {
	// arrange
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 3)
	ledgertest.GivenBook(t, store, 1)
	ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, time.Now().UTC())
	store.ForceAvailableCopies(book.ID, 3)
	handler := inventoryaudit.NewQueryHandler(store)

	// act
	report, err := handler.Handle(context.Background(), inventoryaudit.BuildQuery())

	// assert
	require.NoError(t, err, "drift is data, not a query failure")
	assert.False(t, report.Consistent)
	require.Equal(t, 1, report.Count)

	drift := report.Drifts[0]
	assert.Equal(t, book.ID, drift.BookID)
	assert.Equal(t, 3, drift.AvailableCopies)
	assert.Equal(t, 1, drift.ActiveBorrowings)
	assert.Equal(t, 2, drift.ExpectedAvailable)

	assert.ErrorIs(t, report.Err(), ledger.ErrInconsistentState)
	assert.Contains(t, report.Err().Error(), book.ID.String())
}
