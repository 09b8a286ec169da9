package bookdetails_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/bookdetails"
)

func Test_QueryHandler_Handle(t *testing.T) {
	// arrange
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 2)
	handler := bookdetails.NewQueryHandler(store)

	// act
	found, foundErr := handler.Handle(context.Background(), bookdetails.BuildQuery(book.ID))
	_, missingErr := handler.Handle(context.Background(), bookdetails.BuildQuery(uuid.New()))

	// assert
	require.NoError(t, foundErr)
	assert.Equal(t, book, found)
	assert.ErrorIs(t, missingErr, ledger.ErrBookNotFound)
}
