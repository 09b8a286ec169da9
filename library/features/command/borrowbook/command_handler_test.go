package borrowbook_test

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
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/borrowbook"
	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 2)
	user := ledgertest.GivenUser(t, store)
	handler := borrowbook.NewCommandHandler(store)

	// act
	result, err := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, fakeClock))

	// assert
	require.NoError(t, err)
	assert.False(t, result.Idempotent)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, ledger.StatusBorrowed, result.Value.Status)
	assert.Equal(t, fakeClock.Add(ledger.LoanPeriod), result.Value.DueDate)

	stored, getErr := store.GetBook(ctx, book.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, stored.AvailableCopies)
	assert.Equal(t, 1, stored.BorrowCount)
}

func Test_CommandHandler_Handle_Error_BookUnavailable(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	handler := borrowbook.NewCommandHandler(store)

	_, err := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), ledgertest.GivenUser(t, store).ID, book.ID, fakeClock))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), ledgertest.GivenUser(t, store).ID, book.ID, fakeClock))

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookUnavailable)
	assert.Equal(t, 1, result.RetryAttempts, "domain errors are not retried")
}

func Test_CommandHandler_Handle_Error_AlreadyBorrowed(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 3)
	user := ledgertest.GivenUser(t, store)
	handler := borrowbook.NewCommandHandler(store)

	_, err := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, fakeClock))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, book.ID, fakeClock.Add(time.Hour)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
}

func Test_CommandHandler_Handle_Error_NotFound(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memoryengine.New()
	book := ledgertest.GivenBook(t, store, 1)
	user := ledgertest.GivenUser(t, store)
	handler := borrowbook.NewCommandHandler(store)

	// act
	_, bookErr := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), user.ID, uuid.New(), fakeClock))
	_, userErr := handler.Handle(ctx, borrowbook.BuildCommand(uuid.New(), uuid.New(), book.ID, fakeClock))

	// assert
	assert.ErrorIs(t, bookErr, ledger.ErrBookNotFound)
	assert.ErrorIs(t, userErr, ledger.ErrUserNotFound)
}

func Test_CommandHandler_Handle_RetriesTransientConflicts(t *testing.T) {
	// arrange
	store := &flakyStore{failures: 2}
	handler := borrowbook.NewCommandHandler(
		store,
		borrowbook.WithRetryOptions(shell.WithBaseDelay(time.Millisecond), shell.WithMaxAttempts(3)),
	)

	// act
	result, err := handler.Handle(context.Background(), borrowbook.BuildCommand(uuid.New(), uuid.New(), uuid.New(), fakeClock))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.RetryAttempts)
	assert.Equal(t, shell.ErrorTypeNone, result.LastErrorType)
	assert.Equal(t, 3, store.calls)
}

func Test_CommandHandler_Handle_DoesNotRetryStorageUnavailable(t *testing.T) {
	// arrange
	store := &flakyStore{failures: 1, err: ledger.ErrStorageUnavailable}
	handler := borrowbook.NewCommandHandler(store, borrowbook.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))

	// act
	result, err := handler.Handle(context.Background(), borrowbook.BuildCommand(uuid.New(), uuid.New(), uuid.New(), fakeClock))

	// assert
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, 1, store.calls)
}

type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (s *flakyStore) BorrowBook(_ context.Context, borrowing ledger.Borrowing) (ledger.Borrowing, error) {
	s.calls++

	if s.calls <= s.failures {
		if s.err != nil {
			return ledger.Borrowing{}, s.err
		}

		return ledger.Borrowing{}, ledger.ErrTransientConflict
	}

	return borrowing, nil
}
