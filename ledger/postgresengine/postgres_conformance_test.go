package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/ledgertest"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
	"github.com/AntonStoeckl/library-ledger-go/testutil/postgresengine/pgtesthelpers"
)

func Test_Conformance(t *testing.T) {
	ledgertest.RunConformance(t, func(t *testing.T) ledger.Store {
		return pgtesthelpers.NewStore(t)
	})
}

func Test_Migrate_IsIdempotent(t *testing.T) {
	// arrange
	store := pgtesthelpers.NewStore(t)

	// act
	err := store.Migrate(context.Background())

	// assert
	assert.NoError(t, err)
}

func Test_CreateBook_MapsDuplicateISBN(t *testing.T) {
	// arrange
	store := pgtesthelpers.NewStore(t)
	ctx := context.Background()
	book := ledgertest.GivenBook(t, store, 1)
	duplicate := ledger.NewBook(uuid.New(), "Another", "Someone", book.ISBN, "Fantasy", "", 1, time.Now().UTC())

	// act
	_, err := store.CreateBook(ctx, duplicate)

	// assert
	assert.ErrorIs(t, err, ledger.ErrDuplicateISBN)
}

func Test_EventualConsistencyReadsFromReplica(t *testing.T) {
	// arrange
	primary := pgtesthelpers.NewPGXPool(t)
	replica := pgtesthelpers.NewPGXPool(t)
	tracer := testdoubles.NewTracingCollectorSpy(true)

	books, users, borrowings := pgtesthelpers.UniqueTableNames()
	store, err := postgresengine.NewFromPGXPoolWithReplica(
		primary,
		replica,
		postgresengine.WithTableNames(books, users, borrowings),
		postgresengine.WithTracing(tracer),
	)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.DropTables(context.Background()) })

	book := ledgertest.GivenBook(t, store, 2)

	// act
	found, getErr := store.GetBook(ledger.WithEventualConsistency(context.Background()), book.ID)

	// assert
	require.NoError(t, getErr)
	assert.Equal(t, book.ID, found.ID)
	assert.True(t, tracer.HasSpanRecordForName("ledger.get_book").
		WithStartAttribute("ledger.consistency", "eventual").
		Assert())
}
