package sweepoverdue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/sweepoverdue"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_TransitionsPastDueLoans(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 3)
	pastDue := ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, fakeClock)
	notDue := ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, fakeClock.Add(10*24*time.Hour))
	handler := sweepoverdue.NewCommandHandler(store)

	// act
	result, err := handler.Handle(ctx, sweepoverdue.BuildCommand(fakeClock.Add(ledger.LoanPeriod+time.Minute)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Value)
	assert.False(t, result.Idempotent)

	views, listErr := store.ListBorrowings(ctx)
	require.NoError(t, listErr)

	statuses := make(map[string]ledger.BorrowingStatus, len(views))
	for _, view := range views {
		statuses[view.ID.String()] = view.Status
	}

	assert.Equal(t, ledger.StatusOverdue, statuses[pastDue.ID.String()])
	assert.Equal(t, ledger.StatusBorrowed, statuses[notDue.ID.String()])

	stored, getErr := store.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, stored.AvailableCopies, "overdue copies stay unavailable")
}

func Test_CommandHandler_Handle_IdempotentWhenNothingIsDue(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	ledgertest.GivenBorrowing(t, store, ledgertest.GivenUser(t, store), book, fakeClock)
	handler := sweepoverdue.NewCommandHandler(store)

	_, err := handler.Handle(ctx, sweepoverdue.BuildCommand(fakeClock.Add(ledger.LoanPeriod+time.Minute)))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, sweepoverdue.BuildCommand(fakeClock.Add(ledger.LoanPeriod+time.Hour)))

	// assert
	require.NoError(t, err)
	assert.Zero(t, result.Value)
	assert.True(t, result.Idempotent, "overdue loans are not swept twice")
}
