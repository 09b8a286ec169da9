package seedcatalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/seedcatalog"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_SeedsDefaultCatalogOnce(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	handler := seedcatalog.NewCommandHandler(store)

	// act
	first, firstErr := handler.Handle(ctx, seedcatalog.BuildCommand(fakeClock))
	second, secondErr := handler.Handle(ctx, seedcatalog.BuildCommand(fakeClock.Add(time.Hour)))

	// assert
	require.NoError(t, firstErr)
	assert.Equal(t, seedcatalog.Result{Inserted: 12}, first.Value)
	assert.False(t, first.Idempotent)

	require.NoError(t, secondErr)
	assert.Equal(t, seedcatalog.Result{Skipped: 12}, second.Value)
	assert.True(t, second.Idempotent)

	books, listErr := store.ListBooks(ctx, ledger.BookFilter{})
	require.NoError(t, listErr)
	require.Len(t, books, 12)
	assert.Equal(t, "The Lord of the Rings", books[0].Title, "the last seeded entry is the newest")

	for _, book := range books {
		assert.Equal(t, book.TotalCopies, book.AvailableCopies)
	}
}

func Test_CommandHandler_Handle_SkipsExistingISBNs(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	handler := seedcatalog.NewCommandHandler(store)
	catalog := seedcatalog.DefaultCatalog()

	_, err := handler.Handle(ctx, seedcatalog.BuildCommand(fakeClock, catalog[0], catalog[1]))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, seedcatalog.BuildCommand(fakeClock))

	// assert
	require.NoError(t, err)
	assert.Equal(t, seedcatalog.Result{Inserted: 10, Skipped: 2}, result.Value)
}

func Test_CommandHandler_Handle_ResumesAfterTransientConflict(t *testing.T) {
	// arrange
	store := &conflictOnceStore{Store: memoryengine.New(), failAt: 2}
	handler := seedcatalog.NewCommandHandler(store, seedcatalog.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))

	// act
	result, err := handler.Handle(context.Background(), seedcatalog.BuildCommand(fakeClock))

	// assert
	require.NoError(t, err)
	assert.Equal(t, seedcatalog.Result{Inserted: 12}, result.Value)
	assert.Equal(t, 2, result.RetryAttempts)
}

type conflictOnceStore struct {
	*memoryengine.Store
	failAt int
	calls  int
}

func (s *conflictOnceStore) CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error) {
	s.calls++
	if s.calls == s.failAt {
		return ledger.Book{}, ledger.ErrTransientConflict
	}

	return s.Store.CreateBook(ctx, book)
}
