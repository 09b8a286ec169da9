package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/testutil/observability/testdoubles"
)

func bookRow(book ledger.Book) []any {
	return []any{
		book.ID.String(), book.Title, book.Author, book.ISBN, book.Genre, book.Description,
		book.TotalCopies, book.AvailableCopies, book.BorrowCount, book.CreatedAt,
	}
}

func borrowingRowOf(b ledger.Borrowing) []any {
	var returnDate any
	if b.ReturnDate != nil {
		returnDate = *b.ReturnDate
	}

	return []any{b.ID.String(), b.UserID.String(), b.BookID.String(), b.BorrowDate, b.DueDate, returnDate, string(b.Status)}
}

func Test_NewFrom_RejectsNilConnections(t *testing.T) {
	_, pgxErr := NewFromPGXPool(nil)
	_, replicaErr := NewFromPGXPoolWithReplica(nil, nil)
	_, sqlErr := NewFromSQLDB(nil)
	_, sqlxErr := NewFromSQLX(nil)

	assert.ErrorIs(t, pgxErr, ledger.ErrNilDatabaseConnection)
	assert.ErrorIs(t, replicaErr, ledger.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlErr, ledger.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, ledger.ErrNilDatabaseConnection)
}

func Test_WithTableNames(t *testing.T) {
	// arrange
	db, err := sql.Open("postgres", "postgres://localhost:1/none?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// act
	store, namedErr := NewFromSQLDB(db, WithTableNames("b", "u", "l"))
	_, emptyErr := NewFromSQLDB(db, WithTableNames("b", "", "l"))
	defaults, defaultsErr := NewFromSQLDB(db)

	// assert
	require.NoError(t, namedErr)
	assert.Equal(t, "b_isbn_key", store.isbnConstraint())
	assert.Equal(t, "u_email_key", store.emailConstraint())
	assert.Equal(t, "l_one_active_loan_idx", store.activeLoanIndex())
	assert.ErrorIs(t, emptyErr, ledger.ErrEmptyTableName)

	require.NoError(t, defaultsErr)
	assert.Equal(t, "books", defaults.booksTableName)
	assert.Equal(t, "users", defaults.usersTableName)
	assert.Equal(t, "borrowings", defaults.borrowingsTableName)
}

func Test_Classify(t *testing.T) {
	store := storeWithFake(newFakeDB())

	testCases := map[string]struct {
		err      error
		expected error
	}{
		"pgx duplicate isbn":      {&pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"}, ledger.ErrDuplicateISBN},
		"pq duplicate email":      {&pq.Error{Code: "23505", Constraint: "users_email_key"}, ledger.ErrDuplicateEmail},
		"active loan index":       {&pgconn.PgError{Code: "23505", ConstraintName: "borrowings_one_active_loan_idx"}, ledger.ErrAlreadyBorrowed},
		"unknown unique":          {&pgconn.PgError{Code: "23505", ConstraintName: "books_pkey"}, ledger.ErrInconsistentState},
		"check violation":         {&pgconn.PgError{Code: "23514"}, ledger.ErrInconsistentState},
		"serialization failure":   {&pgconn.PgError{Code: "40001"}, ledger.ErrTransientConflict},
		"deadlock":                {&pq.Error{Code: "40P01"}, ledger.ErrTransientConflict},
		"connection failure":      {&pgconn.PgError{Code: "08006"}, ledger.ErrStorageUnavailable},
		"admin shutdown":          {&pq.Error{Code: "57P01"}, ledger.ErrStorageUnavailable},
		"too many connections":    {&pgconn.PgError{Code: "53300"}, ledger.ErrStorageUnavailable},
		"canceled passes through": {context.Canceled, context.Canceled},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			classified := store.classify(tc.err)

			assert.ErrorIs(t, classified, tc.expected)
			assert.ErrorIs(t, classified, tc.err, "the driver error stays in the chain")
		})
	}

	assert.NoError(t, store.classify(nil))
}

func Test_ContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off\\%`, containsPattern(`50%_off\`))
	assert.Equal(t, "%dune%", containsPattern("dune"))
}

func Test_SchemaStatements_UseConfiguredNames(t *testing.T) {
	// arrange
	store := storeWithFake(newFakeDB(), WithTableNames("t_books", "t_users", "t_borrowings"))

	// act
	ddl := strings.Join(store.schemaStatements(), "\n")

	// assert
	assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS t_books")
	assert.Contains(t, ddl, "CONSTRAINT t_books_isbn_key UNIQUE (isbn)")
	assert.Contains(t, ddl, "CONSTRAINT t_users_email_key UNIQUE (email)")
	assert.Contains(t, ddl, "CREATE UNIQUE INDEX IF NOT EXISTS t_borrowings_one_active_loan_idx ON t_borrowings (user_id, book_id) WHERE status IN ('borrowed', 'overdue')")
	assert.Contains(t, ddl, "CHECK (available_copies >= 0 AND available_copies <= total_copies)")
	assert.NotContains(t, ddl, "REFERENCES")
}

func Test_BorrowBook_CommitsAllStepsInOneTransaction(t *testing.T) {
	// arrange
	db := newFakeDB(
		scriptedStep{match: `"available_copies" > 0`, affected: 1},
		scriptedStep{match: "FOR SHARE", rows: [][]any{{uuid.NewString()}}},
		scriptedStep{match: `INSERT INTO "borrowings"`, affected: 1},
	)
	store := storeWithFake(db)
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now())

	// act
	borrowed, err := store.BorrowBook(context.Background(), borrowing)

	// assert
	require.NoError(t, err)
	assert.Equal(t, borrowing, borrowed)
	assert.True(t, db.committed)
	assert.False(t, db.rolledBack)
	assert.Zero(t, db.remaining())
}

func Test_BorrowBook_DistinguishesUnavailableFromMissingBook(t *testing.T) {
	// arrange
	book := ledger.NewBook(uuid.New(), "Dune", "Frank Herbert", "978-0441172719", "Science Fiction", "", 1, time.Now())
	book.AvailableCopies = 0

	unavailableDB := newFakeDB(
		scriptedStep{match: `UPDATE "books"`, affected: 0},
		scriptedStep{match: `FROM "books"`, rows: [][]any{bookRow(book)}},
	)
	missingDB := newFakeDB(
		scriptedStep{match: `UPDATE "books"`, affected: 0},
		scriptedStep{match: `FROM "books"`},
	)

	// act
	_, unavailableErr := storeWithFake(unavailableDB).BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), uuid.New(), book.ID, time.Now()))
	_, missingErr := storeWithFake(missingDB).BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), uuid.New(), book.ID, time.Now()))

	// assert
	assert.ErrorIs(t, unavailableErr, ledger.ErrBookUnavailable)
	assert.True(t, unavailableDB.rolledBack)
	assert.False(t, unavailableDB.committed)

	assert.ErrorIs(t, missingErr, ledger.ErrBookNotFound)
	assert.True(t, missingDB.rolledBack)
}

func Test_BorrowBook_RollsBackWhenUserIsMissing(t *testing.T) {
	// arrange
	db := newFakeDB(
		scriptedStep{match: `UPDATE "books"`, affected: 1},
		scriptedStep{match: "FOR SHARE"},
	)

	// act
	_, err := storeWithFake(db).BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now()))

	// assert
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
	assert.True(t, db.rolledBack, "the decrement is undone")
	assert.False(t, db.committed)
}

func Test_BorrowBook_MapsActiveLoanIndexViolation(t *testing.T) {
	// arrange
	db := newFakeDB(
		scriptedStep{match: `UPDATE "books"`, affected: 1},
		scriptedStep{match: "FOR SHARE", rows: [][]any{{uuid.NewString()}}},
		scriptedStep{
			match: `INSERT INTO "borrowings"`,
			err:   &pgconn.PgError{Code: "23505", ConstraintName: "borrowings_one_active_loan_idx"},
		},
	)

	// act
	_, err := storeWithFake(db).BorrowBook(context.Background(), ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now()))

	// assert
	assert.ErrorIs(t, err, ledger.ErrAlreadyBorrowed)
	assert.Equal(t, ledger.CodeAlreadyBorrowed, ledger.ErrorCode(err))
	assert.True(t, db.rolledBack)
}

func Test_ReturnBook_CommitsAndFlagsClampedIncrement(t *testing.T) {
	// arrange
	borrowing := ledger.NewBorrowing(uuid.New(), uuid.New(), uuid.New(), time.Now().Add(-time.Hour).UTC())
	returnedAt := time.Now().UTC()
	returned, err := borrowing.Return(returnedAt)
	require.NoError(t, err)

	db := newFakeDB(
		scriptedStep{match: "RETURNING", rows: [][]any{borrowingRowOf(returned)}},
		scriptedStep{match: `"available_copies" < "total_copies"`, affected: 0},
	)
	logger := testdoubles.NewContextualLoggerSpy(true)
	store := storeWithFake(db, WithContextualLogger(logger))

	// act
	result, returnErr := store.ReturnBook(context.Background(), borrowing.ID, returnedAt)

	// assert
	assert.ErrorIs(t, returnErr, ledger.ErrInconsistentState)
	assert.Equal(t, ledger.StatusReturned, result.Status)
	assert.Equal(t, borrowing.ID, result.ID)
	assert.True(t, db.committed, "the return itself is kept")
	assert.True(t, logger.HasErrorLog("LEDGER INCONSISTENCY DETECTED"))
}

func Test_ReturnBook_DistinguishesMissingFromReturned(t *testing.T) {
	// arrange
	missingDB := newFakeDB(
		scriptedStep{match: "RETURNING"},
		scriptedStep{match: `SELECT "status"`},
	)
	returnedDB := newFakeDB(
		scriptedStep{match: "RETURNING"},
		scriptedStep{match: `SELECT "status"`, rows: [][]any{{"returned"}}},
	)

	// act
	_, missingErr := storeWithFake(missingDB).ReturnBook(context.Background(), uuid.New(), time.Now())
	_, returnedErr := storeWithFake(returnedDB).ReturnBook(context.Background(), uuid.New(), time.Now())

	// assert
	assert.ErrorIs(t, missingErr, ledger.ErrBorrowingNotFound)
	assert.ErrorIs(t, returnedErr, ledger.ErrAlreadyReturned)
	assert.True(t, missingDB.rolledBack)
	assert.True(t, returnedDB.rolledBack)
}

func Test_ListBooks_EscapesSearchInput(t *testing.T) {
	// arrange
	db := newFakeDB(scriptedStep{match: "ILIKE"})

	// act
	books, err := storeWithFake(db).ListBooks(context.Background(), ledger.BookFilter{Search: "100%"})

	// assert
	require.NoError(t, err)
	assert.Empty(t, books)
	require.Len(t, db.statements, 1)
	assert.Contains(t, db.statements[0], "ILIKE '%100")
	assert.Contains(t, db.statements[0], `\%`)
	assert.Contains(t, db.statements[0], `ORDER BY "created_at" DESC, "id" DESC`)
}

func Test_UpdateBook_ReportsTotalBelowActiveLoans(t *testing.T) {
	// arrange
	book := ledger.NewBook(uuid.New(), "Dune", "Frank Herbert", "978-0441172719", "Science Fiction", "", 3, time.Now())
	book.AvailableCopies = 1
	total := 1

	db := newFakeDB(
		scriptedStep{match: "available_copies + (1 - total_copies) >= 0"},
		scriptedStep{match: `FROM "books"`, rows: [][]any{bookRow(book)}},
	)

	// act
	_, err := storeWithFake(db).UpdateBook(context.Background(), book.ID, ledger.BookUpdate{TotalCopies: &total})

	// assert
	assert.ErrorIs(t, err, ledger.ErrTotalCopiesBelowActiveLoans)
}

func Test_Store_SurfacesDriverErrorsClassified(t *testing.T) {
	// arrange
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	db := newFakeDB(scriptedStep{match: `FROM "users"`, err: errors.Join(&pgconn.PgError{Code: "57P01"})})

	// act
	_, err := storeWithFake(db, WithMetrics(metrics)).ListUsers(context.Background())

	// assert
	assert.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	assert.True(t, metrics.HasCounterRecordForMetric("ledger_operation_errors_total").
		WithOperation(opListUsers).
		WithErrorType(ledger.CodeStorageUnavailable).
		Assert())
}
