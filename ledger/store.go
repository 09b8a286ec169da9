package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the storage contract of the ledger.
//
// Every method is one atomic unit of work: it either applies completely or not at all,
// also when ctx is canceled while the operation is in flight.
// Listings are ordered newest first.
type Store interface {
	CatalogStore
	UserStore
	BorrowingStore
}

// CatalogStore holds the Book records.
type CatalogStore interface {
	// CreateBook persists a new Book. Fails with ErrDuplicateISBN.
	CreateBook(ctx context.Context, book Book) (Book, error)

	// GetBook fails with ErrBookNotFound.
	GetBook(ctx context.Context, id uuid.UUID) (Book, error)

	// ListBooks returns the books matching filter, newest first by CreatedAt.
	ListBooks(ctx context.Context, filter BookFilter) ([]Book, error)

	// SampleBooks returns up to limit books in random order.
	SampleBooks(ctx context.Context, limit int) ([]Book, error)

	// UpdateBook applies update atomically. A TotalCopies change shifts AvailableCopies by the same delta.
	// Fails with ErrBookNotFound, ErrDuplicateISBN or ErrTotalCopiesBelowActiveLoans.
	UpdateBook(ctx context.Context, id uuid.UUID, update BookUpdate) (Book, error)

	// DeleteBook fails with ErrBookNotFound or ErrBookHasActiveBorrowings. It is serialized with BorrowBook.
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// UserStore holds the User records.
type UserStore interface {
	// CreateUser fails with ErrDuplicateEmail.
	CreateUser(ctx context.Context, user User) (User, error)

	// GetUser fails with ErrUserNotFound.
	GetUser(ctx context.Context, id uuid.UUID) (User, error)

	// GetUserByEmail expects a normalized email and fails with ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// ListUsers returns all users, newest first by CreatedAt.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateUser fails with ErrUserNotFound or ErrDuplicateEmail.
	UpdateUser(ctx context.Context, id uuid.UUID, update UserUpdate) (User, error)

	// DeleteUser fails with ErrUserNotFound or ErrUserHasActiveBorrowings. It is serialized with BorrowBook.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// BorrowingStore holds the Borrowing ledger and mutates the Book counters together with it.
type BorrowingStore interface {
	// BorrowBook persists borrowing, decrements AvailableCopies and increments BorrowCount of its Book.
	// The decrement only happens while AvailableCopies > 0.
	// Fails, in this order of precedence, with ErrBookNotFound, ErrBookUnavailable, ErrUserNotFound, ErrAlreadyBorrowed.
	BorrowBook(ctx context.Context, borrowing Borrowing) (Borrowing, error)

	// ReturnBook transitions an active Borrowing to returned and increments AvailableCopies of its Book.
	// Fails with ErrBorrowingNotFound or ErrAlreadyReturned.
	// When the increment would exceed TotalCopies the counter is left clamped, the return is still
	// committed, and the returned Borrowing is accompanied by an error wrapping ErrInconsistentState.
	ReturnBook(ctx context.Context, id uuid.UUID, returnedAt time.Time) (Borrowing, error)

	// MarkOverdue transitions every borrowed Borrowing with DueDate before now to overdue
	// and returns how many were transitioned. The Book counters are not touched.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListBorrowingsByUser returns the user's borrowings joined with their Book, newest first by BorrowDate.
	ListBorrowingsByUser(ctx context.Context, userID uuid.UUID) ([]BorrowingView, error)

	// ListBorrowings returns all borrowings joined with Book and User, newest first by BorrowDate.
	ListBorrowings(ctx context.Context) ([]BorrowingView, error)

	// AuditInventory recomputes the copy counters from the ledger and returns every Book that drifted.
	AuditInventory(ctx context.Context) ([]InventoryDrift, error)
}
