package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is the umbrella for all "referenced record is absent" failures.
var ErrNotFound = errors.New("not found")

var (
	// ErrBookNotFound is returned when the referenced Book does not exist.
	ErrBookNotFound = fmt.Errorf("book %w", ErrNotFound)

	// ErrBorrowingNotFound is returned when the referenced Borrowing does not exist.
	ErrBorrowingNotFound = fmt.Errorf("borrowing %w", ErrNotFound)

	// ErrUserNotFound is returned when the referenced User does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)

var (
	// ErrBookUnavailable is returned when a Book has no available copies left.
	ErrBookUnavailable = errors.New("book has no available copies")

	// ErrAlreadyBorrowed is returned when the user already holds an active loan for the book.
	ErrAlreadyBorrowed = errors.New("book is already borrowed by this user")

	// ErrAlreadyReturned is returned when a Borrowing is already in the terminal returned state.
	ErrAlreadyReturned = errors.New("borrowing is already returned")

	// ErrInconsistentState signals that an invariant check failed.
	// It always indicates a bug or out-of-band data manipulation and is logged at error level.
	ErrInconsistentState = errors.New("inconsistent ledger state")

	// ErrNotAuthorized is returned when the acting role may not perform the operation.
	ErrNotAuthorized = errors.New("role is not authorized for this operation")

	// ErrBookHasActiveBorrowings is returned when deleting a Book that is still on loan.
	ErrBookHasActiveBorrowings = errors.New("book has active borrowings")

	// ErrUserHasActiveBorrowings is returned when deleting a User who still holds loans.
	ErrUserHasActiveBorrowings = errors.New("user has active borrowings")

	// ErrTotalCopiesBelowActiveLoans is returned when totalCopies would drop below the number of copies on loan.
	ErrTotalCopiesBelowActiveLoans = errors.New("total copies must not be lower than the number of copies on loan")

	// ErrDuplicateISBN is returned when another Book already uses the ISBN.
	ErrDuplicateISBN = errors.New("a book with this isbn already exists")

	// ErrDuplicateEmail is returned when another User already uses the email address.
	ErrDuplicateEmail = errors.New("a user with this email already exists")

	// ErrInvalidInput is returned when an input value violates a validation rule.
	ErrInvalidInput = errors.New("invalid input")
)

var (
	// ErrTransientConflict is returned when the storage layer aborted the unit of work
	// (serialization failure, deadlock, write conflict). Nothing was applied, so retrying is safe.
	ErrTransientConflict = errors.New("transient storage conflict")

	// ErrStorageUnavailable is returned on connection loss or storage timeouts.
	// The outcome of a mutating operation is unknown in this case.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNilDatabaseConnection is returned when a Store is constructed without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table or collection name is configured.
	ErrEmptyTableName = errors.New("table name must not be empty")
)

// Error codes as exposed to API clients and used as metric labels.
const (
	CodeBookNotFound                = "book_not_found"
	CodeBorrowingNotFound           = "borrowing_not_found"
	CodeUserNotFound                = "user_not_found"
	CodeNotFound                    = "not_found"
	CodeBookUnavailable             = "book_unavailable"
	CodeAlreadyBorrowed             = "already_borrowed"
	CodeAlreadyReturned             = "already_returned"
	CodeInconsistentState           = "inconsistent_state"
	CodeNotAuthorized               = "not_authorized"
	CodeBookHasActiveBorrowings     = "book_has_active_borrowings"
	CodeUserHasActiveBorrowings     = "user_has_active_borrowings"
	CodeTotalCopiesBelowActiveLoans = "total_copies_below_active_loans"
	CodeDuplicateISBN               = "duplicate_isbn"
	CodeDuplicateEmail              = "duplicate_email"
	CodeInvalidInput                = "invalid_input"
	CodeTransientConflict           = "transient_conflict"
	CodeStorageUnavailable          = "storage_unavailable"
	CodeCanceled                    = "canceled"
	CodeTimeout                     = "timeout"
	CodeInternal                    = "internal"
	CodeNone                        = "none"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInconsistentState, CodeInconsistentState},
	{ErrBookNotFound, CodeBookNotFound},
	{ErrBorrowingNotFound, CodeBorrowingNotFound},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrNotFound, CodeNotFound},
	{ErrBookUnavailable, CodeBookUnavailable},
	{ErrAlreadyBorrowed, CodeAlreadyBorrowed},
	{ErrAlreadyReturned, CodeAlreadyReturned},
	{ErrNotAuthorized, CodeNotAuthorized},
	{ErrBookHasActiveBorrowings, CodeBookHasActiveBorrowings},
	{ErrUserHasActiveBorrowings, CodeUserHasActiveBorrowings},
	{ErrTotalCopiesBelowActiveLoans, CodeTotalCopiesBelowActiveLoans},
	{ErrDuplicateISBN, CodeDuplicateISBN},
	{ErrDuplicateEmail, CodeDuplicateEmail},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrTransientConflict, CodeTransientConflict},
	{ErrStorageUnavailable, CodeStorageUnavailable},
	{context.Canceled, CodeCanceled},
	{context.DeadlineExceeded, CodeTimeout},
}

// ErrorCode returns the stable code for err, CodeNone for nil and CodeInternal for unknown errors.
func ErrorCode(err error) string {
	if err == nil {
		return CodeNone
	}

	for _, candidate := range errorCodes {
		if errors.Is(err, candidate.err) {
			return candidate.code
		}
	}

	return CodeInternal
}

// IsDomainError reports whether err names a violated precondition or invariant of the ledger,
// as opposed to an infrastructure failure.
func IsDomainError(err error) bool {
	switch ErrorCode(err) {
	case CodeInternal, CodeNone, CodeTransientConflict, CodeStorageUnavailable, CodeCanceled, CodeTimeout:
		return false
	default:
		return true
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
