package myborrowings_test

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
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/myborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func Test_QueryHandler_Handle_ListsOwnBorrowingsNewestFirst(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	user := ledgertest.GivenUser(t, store)
	other := ledgertest.GivenUser(t, store)
	older := ledgertest.GivenBorrowing(t, store, user, ledgertest.GivenBook(t, store, 1), fakeClock)
	newer := ledgertest.GivenBorrowing(t, store, user, ledgertest.GivenBook(t, store, 1), fakeClock.Add(time.Hour))
	ledgertest.GivenBorrowing(t, store, other, ledgertest.GivenBook(t, store, 1), fakeClock.Add(2*time.Hour))
	handler := myborrowings.NewQueryHandler(store)

	// act
	result, err := handler.Handle(ctx, myborrowings.BuildQuery(user.ID))

	// assert
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, newer.ID, result.Borrowings[0].ID)
	assert.Equal(t, older.ID, result.Borrowings[1].ID)
	require.NotNil(t, result.Borrowings[0].Book)
	assert.Equal(t, newer.BookID, result.Borrowings[0].Book.ID)
}

func Test_QueryHandler_Handle_EmptyResultIsNotNil(t *testing.T) {
	// arrange
	handler := myborrowings.NewQueryHandler(memoryengine.New())

	// act
	result, err := handler.Handle(context.Background(), myborrowings.BuildQuery(uuid.New()))

	// assert
	require.NoError(t, err)
	assert.NotNil(t, result.Borrowings)
	assert.Zero(t, result.Count)
}

func Test_QueryHandler_Handle_RetriesStorageUnavailable(t *testing.T) {
	// arrange
	store := &unavailableOnceStore{}
	handler := myborrowings.NewQueryHandler(store, myborrowings.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))

	// act
	_, err := handler.Handle(context.Background(), myborrowings.BuildQuery(uuid.New()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, ledger.EventualConsistency, store.level)
}

type unavailableOnceStore struct {
	calls int
	level ledger.ConsistencyLevel
}

func (s *unavailableOnceStore) ListBorrowingsByUser(ctx context.Context, _ uuid.UUID) ([]ledger.BorrowingView, error) {
	s.calls++
	s.level = ledger.GetConsistencyLevel(ctx)

	if s.calls == 1 {
		return nil, ledger.ErrStorageUnavailable
	}

	return nil, nil
}
