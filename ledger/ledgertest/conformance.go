package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// StoreFactory returns an empty Store that is cleaned up with t.
type StoreFactory func(t *testing.T) ledger.Store

// ConcurrentBorrowers is the number of goroutines racing for a single copy.
const ConcurrentBorrowers = 10

type conformanceCase struct {
	name string
	run  func(t *testing.T, store ledger.Store)
}

// RunConformance runs every conformance case as a subtest against a fresh Store.
func RunConformance(t *testing.T, newStore StoreFactory) {
	t.Helper()

	cases := []conformanceCase{
		{"borrow decrements and return restores the counters", borrowAndReturn},
		{"borrow fails when no copy is available", borrowUnavailable},
		{"borrow reports missing references in order of precedence", borrowPrecedence},
		{"borrow refuses a second active loan of the same book", borrowTwice},
		{"an overdue loan still blocks a second borrow", overdueBlocksBorrow},
		{"return is not repeatable", returnTwice},
		{"return of an unknown borrowing fails", returnUnknown},
		{"overdue sweep transitions only loans past their due date", markOverdue},
		{"concurrent borrows of the last copy admit exactly one", concurrentBorrows},
		{"concurrent borrows of one book by one user admit exactly one", concurrentBorrowsSameUser},
		{"concurrent returns of one borrowing admit exactly one", concurrentReturns},
		{"borrowing listings are joined and newest first", borrowingListings},
		{"catalog create, list, update and delete", catalogLifecycle},
		{"total copies change shifts the available copies", totalCopiesChange},
		{"book with active loans cannot be deleted", deleteBookWithActiveLoans},
		{"user accounts are unique by email", userLifecycle},
		{"user with active loans cannot be deleted", deleteUserWithActiveLoans},
		{"sample returns at most the limit", sampleBooks},
		{"canceled context applies nothing", canceledContext},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, newStore(t))
		})
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// GivenBook creates a Book with the given number of copies.
func GivenBook(t *testing.T, store ledger.Store, copies int) ledger.Book {
	t.Helper()

	id := uuid.New()
	book := ledger.NewBook(id, "Title "+id.String()[:8], "Author", "isbn-"+id.String(), "Fiction", "", copies, now())

	created, err := store.CreateBook(context.Background(), book)
	require.NoError(t, err)

	return created
}

// GivenUser creates a student account.
func GivenUser(t *testing.T, store ledger.Store) ledger.User {
	t.Helper()

	return GivenUserWithRole(t, store, ledger.RoleStudent)
}

// GivenUserWithRole creates an account with the given role.
func GivenUserWithRole(t *testing.T, store ledger.Store, role ledger.Role) ledger.User {
	t.Helper()

	id := uuid.New()
	user := ledger.User{
		ID:           id,
		Name:         "Reader " + id.String()[:8],
		Email:        fmt.Sprintf("reader-%s@example.com", id),
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now(),
	}

	created, err := store.CreateUser(context.Background(), user)
	require.NoError(t, err)

	return created
}

// GivenBorrowing borrows book for user at borrowedAt.
func GivenBorrowing(t *testing.T, store ledger.Store, user ledger.User, book ledger.Book, borrowedAt time.Time) ledger.Borrowing {
	t.Helper()

	borrowing, err := store.BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), user.ID, book.ID, borrowedAt))
	require.NoError(t, err)

	return borrowing
}

func requireBook(t *testing.T, store ledger.Store, id uuid.UUID) ledger.Book {
	t.Helper()

	book, err := store.GetBook(context.Background(), id)
	require.NoError(t, err)

	return book
}

func assertConsistent(t *testing.T, store ledger.Store) {
	t.Helper()

	drifts, err := store.AuditInventory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func borrowAndReturn(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 3)
	user := GivenUser(t, store)
	borrowedAt := now()

	// act
	borrowing, borrowErr := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), user.ID, book.ID, borrowedAt))
	afterBorrow := requireBook(t, store, book.ID)
	returned, returnErr := store.ReturnBook(ctx, borrowing.ID, borrowedAt.Add(time.Hour))
	afterReturn := requireBook(t, store, book.ID)

	// assert
	require.NoError(t, borrowErr)
	assert.Equal(t, ledger.StatusBorrowed, borrowing.Status)
	assert.WithinDuration(t, borrowedAt.Add(ledger.LoanPeriod), borrowing.DueDate, 0)
	assert.Equal(t, 2, afterBorrow.AvailableCopies)
	assert.Equal(t, 1, afterBorrow.BorrowCount)

	require.NoError(t, returnErr)
	assert.Equal(t, ledger.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.WithinDuration(t, borrowedAt.Add(time.Hour), *returned.ReturnDate, time.Millisecond)
	assert.Equal(t, 3, afterReturn.AvailableCopies)
	assert.Equal(t, 1, afterReturn.BorrowCount, "borrow count is a lifetime counter")

	assertConsistent(t, store)
}

func borrowUnavailable(t *testing.T, store ledger.Store) {
	// arrange
	book := GivenBook(t, store, 1)
	GivenBorrowing(t, store, GivenUser(t, store), book, now())
	other := GivenUser(t, store)

	// act
	_, err := store.BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), other.ID, book.ID, now()))

	// assert
	assert.ErrorIs(t, err, ledger.ErrBookUnavailable)
	assert.Equal(t, 0, requireBook(t, store, book.ID).AvailableCopies)
	assertConsistent(t, store)
}

func borrowPrecedence(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	available := GivenBook(t, store, 2)
	exhausted := GivenBook(t, store, 1)
	GivenBorrowing(t, store, GivenUser(t, store), exhausted, now())
	missingUser := uuid.New()

	// act
	_, missingBookErr := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), missingUser, uuid.New(), now()))
	_, unavailableErr := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), missingUser, exhausted.ID, now()))
	_, missingUserErr := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), missingUser, available.ID, now()))

	// assert
	assert.ErrorIs(t, missingBookErr, ledger.ErrBookNotFound)
	assert.ErrorIs(t, unavailableErr, ledger.ErrBookUnavailable)
	assert.ErrorIs(t, missingUserErr, ledger.ErrUserNotFound)

	unchanged := requireBook(t, store, available.ID)
	assert.Equal(t, 2, unchanged.AvailableCopies, "a refused borrow leaves the counters untouched")
	assert.Equal(t, 0, unchanged.BorrowCount)
	assertConsistent(t, store)
}

func borrowTwice(t *testing.T, store ledger.Store) {
	// arrange
	book := GivenBook(t, store, 2)
	user := GivenUser(t, store)
	GivenBorrowing(t, store, user, book, now())

	// act
	_, err := store.BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), user.ID, book.ID, now()))

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
	after := requireBook(t, store, book.ID)
	assert.Equal(t, 1, after.AvailableCopies)
	assert.Equal(t, 1, after.BorrowCount)
	assertConsistent(t, store)
}

func overdueBlocksBorrow(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 2)
	user := GivenUser(t, store)
	borrowing := GivenBorrowing(t, store, user, book, now())
	_, sweepErr := store.MarkOverdue(ctx, borrowing.DueDate.Add(time.Second))
	require.NoError(t, sweepErr)

	// act
	_, err := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), user.ID, book.ID, now()))

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
}

func returnTwice(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 1)
	borrowing := GivenBorrowing(t, store, GivenUser(t, store), book, now())
	_, firstErr := store.ReturnBook(ctx, borrowing.ID, now())
	require.NoError(t, firstErr)

	// act
	_, err := store.ReturnBook(ctx, borrowing.ID, now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyReturned)
	assert.Equal(t, 1, requireBook(t, store, book.ID).AvailableCopies)
	assertConsistent(t, store)
}

func returnUnknown(t *testing.T, store ledger.Store) {
	// act
	_, err := store.ReturnBook(context.Background(), uuid.New(), now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrBorrowingNotFound)
}

func markOverdue(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 3)
	borrowedAt := now()
	early := GivenBorrowing(t, store, GivenUser(t, store), book, borrowedAt.Add(-time.Hour))
	late := GivenBorrowing(t, store, GivenUser(t, store), book, borrowedAt)

	// act
	atDueDate, atDueDateErr := store.MarkOverdue(ctx, early.DueDate)
	afterDueDate, afterDueDateErr := store.MarkOverdue(ctx, early.DueDate.Add(time.Second))
	again, againErr := store.MarkOverdue(ctx, early.DueDate.Add(time.Second))
	returned, returnErr := store.ReturnBook(ctx, early.ID, early.DueDate.Add(time.Minute))

	// assert
	require.NoError(t, atDueDateErr)
	require.NoError(t, afterDueDateErr)
	require.NoError(t, againErr)
	assert.Equal(t, int64(0), atDueDate, "a loan is not overdue at its due date")
	assert.Equal(t, int64(1), afterDueDate)
	assert.Equal(t, int64(0), again, "the sweep is idempotent")

	require.NoError(t, returnErr)
	assert.Equal(t, ledger.StatusReturned, returned.Status)

	views, err := store.ListBorrowingsByUser(ctx, late.UserID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, ledger.StatusBorrowed, views[0].Status)

	assert.Equal(t, 2, requireBook(t, store, book.ID).AvailableCopies, "the sweep does not touch the counters")
	assertConsistent(t, store)
}

func concurrentBorrows(t *testing.T, store ledger.Store) {
	// arrange
	book := GivenBook(t, store, 1)
	users := make([]ledger.User, ConcurrentBorrowers)
	for i := range users {
		users[i] = GivenUser(t, store)
	}

	errs := make([]error, ConcurrentBorrowers)
	start := make(chan struct{})
	var wg sync.WaitGroup

	// act
	for i, user := range users {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = store.BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), user.ID, book.ID, now()))
		}()
	}

	close(start)
	wg.Wait()

	// assert
	succeeded, unavailable := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ledger.ErrBookUnavailable):
			unavailable++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, ConcurrentBorrowers-1, unavailable)

	after := requireBook(t, store, book.ID)
	assert.Equal(t, 0, after.AvailableCopies)
	assert.Equal(t, 1, after.BorrowCount)
	assertConsistent(t, store)
}

func concurrentBorrowsSameUser(t *testing.T, store ledger.Store) {
	// arrange
	const copies = ConcurrentBorrowers + 2

	book := GivenBook(t, store, copies)
	user := GivenUser(t, store)

	errs := make([]error, ConcurrentBorrowers)
	start := make(chan struct{})
	var wg sync.WaitGroup

	// act
	for i := range ConcurrentBorrowers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = store.BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), user.ID, book.ID, now()))
		}()
	}

	close(start)
	wg.Wait()

	// assert
	succeeded, alreadyBorrowed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed):
			alreadyBorrowed++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, ConcurrentBorrowers-1, alreadyBorrowed)

	after := requireBook(t, store, book.ID)
	assert.Equal(t, copies-1, after.AvailableCopies)
	assert.Equal(t, 1, after.BorrowCount)

	views, err := store.ListBorrowingsByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assertConsistent(t, store)
}

func concurrentReturns(t *testing.T, store ledger.Store) {
	// arrange
	const returners = 5
	book := GivenBook(t, store, 1)
	borrowing := GivenBorrowing(t, store, GivenUser(t, store), book, now())

	errs := make([]error, returners)
	start := make(chan struct{})
	var wg sync.WaitGroup

	// act
	for i := range returners {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = store.ReturnBook(context.Background(), borrowing.ID, now())
		}()
	}

	close(start)
	wg.Wait()

	// assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		assert.ErrorIs(t, err, ledger.ErrAlreadyReturned)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, requireBook(t, store, book.ID).AvailableCopies)
	assertConsistent(t, store)
}

func borrowingListings(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	user := GivenUser(t, store)
	other := GivenUser(t, store)
	first := GivenBook(t, store, 1)
	second := GivenBook(t, store, 1)
	third := GivenBook(t, store, 1)
	base := now()

	older := GivenBorrowing(t, store, user, first, base.Add(-2*time.Hour))
	newer := GivenBorrowing(t, store, user, second, base.Add(-time.Hour))
	GivenBorrowing(t, store, other, third, base)

	_, returnErr := store.ReturnBook(ctx, older.ID, base)
	require.NoError(t, returnErr)
	require.NoError(t, store.DeleteBook(ctx, first.ID))

	// act
	mine, mineErr := store.ListBorrowingsByUser(ctx, user.ID)
	all, allErr := store.ListBorrowings(ctx)

	// assert
	require.NoError(t, mineErr)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)
	require.NotNil(t, mine[0].Book)
	assert.Equal(t, second.Title, mine[0].Book.Title)
	assert.Nil(t, mine[1].Book, "the book of a returned loan may be deleted")
	assert.Nil(t, mine[0].User)

	require.NoError(t, allErr)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].UserID)
	require.NotNil(t, all[0].User)
	assert.Equal(t, other.Email, all[0].User.Email)
}

func catalogLifecycle(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	base := now()
	hobbit := ledger.NewBook(uuid.New(), "The Hobbit", "J.R.R. Tolkien", "978-0547928227", "Fantasy", "", 2, base.Add(-time.Minute))
	dune := ledger.NewBook(uuid.New(), "Dune", "Frank Herbert", "978-0441172719", "Science Fiction", "", 1, base)

	_, hobbitErr := store.CreateBook(ctx, hobbit)
	require.NoError(t, hobbitErr)
	_, duneErr := store.CreateBook(ctx, dune)
	require.NoError(t, duneErr)

	// act
	duplicate := ledger.NewBook(uuid.New(), "Dune Again", "Frank Herbert", dune.ISBN, "Science Fiction", "", 1, base)
	_, duplicateErr := store.CreateBook(ctx, duplicate)

	all, listErr := store.ListBooks(ctx, ledger.BookFilter{})
	searched, searchErr := store.ListBooks(ctx, ledger.BookFilter{Search: "tolk"})
	byGenre, genreErr := store.ListBooks(ctx, ledger.BookFilter{Genre: "science"})
	wildcard, wildcardErr := store.ListBooks(ctx, ledger.BookFilter{Search: "%"})

	isbn := hobbit.ISBN
	_, duplicateUpdateErr := store.UpdateBook(ctx, dune.ID, ledger.BookUpdate{ISBN: &isbn})

	title := "  Dune Messiah "
	renamed, renameErr := store.UpdateBook(ctx, dune.ID, ledger.BookUpdate{Title: &title})

	deleteErr := store.DeleteBook(ctx, hobbit.ID)
	_, getDeletedErr := store.GetBook(ctx, hobbit.ID)
	deleteAgainErr := store.DeleteBook(ctx, hobbit.ID)

	// assert
	assert.ErrorIs(t, duplicateErr, ledger.ErrDuplicateISBN)

	require.NoError(t, listErr)
	require.Len(t, all, 2)
	assert.Equal(t, dune.ID, all[0].ID, "newest first")

	require.NoError(t, searchErr)
	require.Len(t, searched, 1)
	assert.Equal(t, hobbit.ID, searched[0].ID)

	require.NoError(t, genreErr)
	require.Len(t, byGenre, 1)
	assert.Equal(t, dune.ID, byGenre[0].ID)

	require.NoError(t, wildcardErr)
	assert.Empty(t, wildcard, "search input is matched literally")

	assert.ErrorIs(t, duplicateUpdateErr, ledger.ErrDuplicateISBN)

	require.NoError(t, renameErr)
	assert.Equal(t, "Dune Messiah", renamed.Title)
	assert.Equal(t, dune.ISBN, renamed.ISBN)

	assert.NoError(t, deleteErr)
	assert.ErrorIs(t, getDeletedErr, ledger.ErrBookNotFound)
	assert.ErrorIs(t, deleteAgainErr, ledger.ErrBookNotFound)
}

func totalCopiesChange(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 3)
	GivenBorrowing(t, store, GivenUser(t, store), book, now())
	GivenBorrowing(t, store, GivenUser(t, store), book, now())
	grow, shrink, tooLow := 5, 2, 1

	// act
	grown, growErr := store.UpdateBook(ctx, book.ID, ledger.BookUpdate{TotalCopies: &grow})
	shrunk, shrinkErr := store.UpdateBook(ctx, book.ID, ledger.BookUpdate{TotalCopies: &shrink})
	_, tooLowErr := store.UpdateBook(ctx, book.ID, ledger.BookUpdate{TotalCopies: &tooLow})
	_, missingErr := store.UpdateBook(ctx, uuid.New(), ledger.BookUpdate{TotalCopies: &grow})

	// assert
	require.NoError(t, growErr)
	assert.Equal(t, 5, grown.TotalCopies)
	assert.Equal(t, 3, grown.AvailableCopies)

	require.NoError(t, shrinkErr)
	assert.Equal(t, 2, shrunk.TotalCopies)
	assert.Equal(t, 0, shrunk.AvailableCopies)

	assert.ErrorIs(t, tooLowErr, ledger.ErrTotalCopiesBelowActiveLoans)
	assert.ErrorIs(t, missingErr, ledger.ErrBookNotFound)

	after := requireBook(t, store, book.ID)
	assert.Equal(t, 2, after.TotalCopies, "a refused update changes nothing")
	assertConsistent(t, store)
}

func deleteBookWithActiveLoans(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	book := GivenBook(t, store, 2)
	borrowing := GivenBorrowing(t, store, GivenUser(t, store), book, now())

	// act
	activeErr := store.DeleteBook(ctx, book.ID)
	_, returnErr := store.ReturnBook(ctx, borrowing.ID, now())
	returnedErr := store.DeleteBook(ctx, book.ID)

	// assert
	assert.ErrorIs(t, activeErr, ledger.ErrBookHasActiveBorrowings)
	require.NoError(t, returnErr)
	assert.NoError(t, returnedErr)
}

func userLifecycle(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	user := GivenUser(t, store)
	clash := ledger.User{
		ID:           uuid.New(),
		Name:         "Clash",
		Email:        user.Email,
		PasswordHash: "hash",
		Role:         ledger.RoleStudent,
		CreatedAt:    now(),
	}
	librarian := ledger.RoleLibrarian

	// act
	_, duplicateErr := store.CreateUser(ctx, clash)
	byEmail, byEmailErr := store.GetUserByEmail(ctx, user.Email)
	_, unknownEmailErr := store.GetUserByEmail(ctx, "nobody@example.com")
	promoted, promoteErr := store.UpdateUser(ctx, user.ID, ledger.UserUpdate{Role: &librarian})
	_, unknownErr := store.UpdateUser(ctx, uuid.New(), ledger.UserUpdate{Role: &librarian})
	users, listErr := store.ListUsers(ctx)

	// assert
	assert.ErrorIs(t, duplicateErr, ledger.ErrDuplicateEmail)

	require.NoError(t, byEmailErr)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
	assert.ErrorIs(t, unknownEmailErr, ledger.ErrUserNotFound)

	require.NoError(t, promoteErr)
	assert.Equal(t, ledger.RoleLibrarian, promoted.Role)
	assert.Equal(t, user.Email, promoted.Email)
	assert.ErrorIs(t, unknownErr, ledger.ErrUserNotFound)

	require.NoError(t, listErr)
	assert.Len(t, users, 1)
}

func deleteUserWithActiveLoans(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	user := GivenUser(t, store)
	borrowing := GivenBorrowing(t, store, user, GivenBook(t, store, 1), now())

	// act
	activeErr := store.DeleteUser(ctx, user.ID)
	_, returnErr := store.ReturnBook(ctx, borrowing.ID, now())
	returnedErr := store.DeleteUser(ctx, user.ID)
	_, getErr := store.GetUser(ctx, user.ID)

	// assert
	assert.ErrorIs(t, activeErr, ledger.ErrUserHasActiveBorrowings)
	require.NoError(t, returnErr)
	assert.NoError(t, returnedErr)
	assert.ErrorIs(t, getErr, ledger.ErrUserNotFound)
}

func sampleBooks(t *testing.T, store ledger.Store) {
	// arrange
	ctx := context.Background()
	for range 4 {
		GivenBook(t, store, 1)
	}

	// act
	sample, err := store.SampleBooks(ctx, 3)
	everything, everythingErr := store.SampleBooks(ctx, 10)
	none, noneErr := store.SampleBooks(ctx, 0)

	// assert
	require.NoError(t, err)
	assert.Len(t, sample, 3)
	require.NoError(t, everythingErr)
	assert.Len(t, everything, 4)
	require.NoError(t, noneErr)
	assert.Empty(t, none)
}

func canceledContext(t *testing.T, store ledger.Store) {
	// arrange
	book := GivenBook(t, store, 1)
	user := GivenUser(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, err := store.BorrowBook(ctx, ledger.NewBorrowing(uuid.New(), user.ID, book.ID, now()))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, requireBook(t, store, book.ID).AvailableCopies)
	assertConsistent(t, store)
}
