package allborrowings_test

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
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/allborrowings"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func Test_QueryHandler_Handle_ListsAllBorrowingsWithUserAndBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	first := ledgertest.GivenUser(t, store)
	second := ledgertest.GivenUser(t, store)
	book := ledgertest.GivenBook(t, store, 2)
	older := ledgertest.GivenBorrowing(t, store, first, book, fakeClock)
	newer := ledgertest.GivenBorrowing(t, store, second, book, fakeClock.Add(time.Minute))
	handler := allborrowings.NewQueryHandler(store)

	// act
	result, err := handler.Handle(ctx, allborrowings.BuildQuery(core.BuildActor(uuid.New(), ledger.RoleLibrarian)))

	// assert
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, newer.ID, result.Borrowings[0].ID)
	assert.Equal(t, older.ID, result.Borrowings[1].ID)
	require.NotNil(t, result.Borrowings[0].User)
	assert.Equal(t, second.Email, result.Borrowings[0].User.Email)
	require.NotNil(t, result.Borrowings[1].Book)
	assert.Equal(t, book.Title, result.Borrowings[1].Book.Title)
}

func Test_QueryHandler_Handle_Error_NotAuthorized(t *testing.T) {
	// arrange
	handler := allborrowings.NewQueryHandler(memoryengine.New())

	// act
	_, err := handler.Handle(context.Background(), allborrowings.BuildQuery(core.BuildActor(uuid.New(), ledger.RoleStudent)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrNotAuthorized)
}
