package ledger

import (
	"time"

	"github.com/google/uuid"
)

// LoanPeriod is the time between borrowDate and dueDate.
const LoanPeriod = 14 * 24 * time.Hour

// BorrowingStatus is the lifecycle state of a Borrowing.
type BorrowingStatus string

const (
	// StatusBorrowed marks a loan that is out and not yet due.
	StatusBorrowed BorrowingStatus = "borrowed"

	// StatusOverdue marks a loan that is still out after its dueDate. The copy stays unavailable.
	StatusOverdue BorrowingStatus = "overdue"

	// StatusReturned is terminal.
	StatusReturned BorrowingStatus = "returned"
)

// ActiveStatuses are the statuses that hold a copy of a book.
var ActiveStatuses = []BorrowingStatus{StatusBorrowed, StatusOverdue}

// IsActive reports whether the status holds a copy.
func (s BorrowingStatus) IsActive() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// IsValid reports whether s is one of the known statuses.
func (s BorrowingStatus) IsValid() bool {
	return s.IsActive() || s == StatusReturned
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
//
//	borrowed -> returned
//	borrowed -> overdue
//	overdue  -> returned
func (s BorrowingStatus) CanTransitionTo(next BorrowingStatus) bool {
	switch s {
	case StatusBorrowed:
		return next == StatusReturned || next == StatusOverdue
	case StatusOverdue:
		return next == StatusReturned
	default:
		return false
	}
}

// Borrowing is one loan of one copy of a Book to one User.
type Borrowing struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	BookID     uuid.UUID       `json:"bookId"`
	BorrowDate time.Time       `json:"borrowDate"`
	DueDate    time.Time       `json:"dueDate"`
	ReturnDate *time.Time      `json:"returnDate,omitempty"`
	Status     BorrowingStatus `json:"status"`
}

// NewBorrowing builds a fresh loan starting at borrowedAt.
func NewBorrowing(id, userID, bookID uuid.UUID, borrowedAt time.Time) Borrowing {
	return Borrowing{
		ID:         id,
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowedAt,
		DueDate:    borrowedAt.Add(LoanPeriod),
		Status:     StatusBorrowed,
	}
}

// Validate checks a Borrowing before it is persisted by BorrowBook.
func (b Borrowing) Validate() error {
	switch {
	case b.ID == uuid.Nil:
		return invalidInput("borrowing id must be set")
	case b.UserID == uuid.Nil:
		return invalidInput("user id must be set")
	case b.BookID == uuid.Nil:
		return invalidInput("book id must be set")
	case b.Status != StatusBorrowed:
		return invalidInput("a new borrowing must have status %q", StatusBorrowed)
	case !b.DueDate.Equal(b.BorrowDate.Add(LoanPeriod)):
		return invalidInput("dueDate must be borrowDate plus the loan period")
	case b.ReturnDate != nil:
		return invalidInput("a new borrowing must not have a returnDate")
	}

	return nil
}

// IsOverdueAt reports whether a borrowed loan is past due at now.
func (b Borrowing) IsOverdueAt(now time.Time) bool {
	return b.Status == StatusBorrowed && b.DueDate.Before(now)
}

// Return transitions b to returned at returnedAt.
// It fails with ErrAlreadyReturned when b is not active.
func (b Borrowing) Return(returnedAt time.Time) (Borrowing, error) {
	if !b.Status.CanTransitionTo(StatusReturned) {
		return Borrowing{}, ErrAlreadyReturned
	}

	b.Status = StatusReturned
	b.ReturnDate = &returnedAt

	return b, nil
}

// UserSummary is the subset of a User that is joined into borrowing listings.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BorrowingView is a Borrowing joined with its Book and, for the full listing, its User.
// Book or User is nil when the referenced record no longer exists.
type BorrowingView struct {
	Borrowing
	Book *BookSummary `json:"book"`
	User *UserSummary `json:"user,omitempty"`
}
