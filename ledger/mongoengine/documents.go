package mongoengine

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Identifiers are stored as their canonical string form, so documents stay readable in the shell.

// storedTime truncates to the millisecond resolution of BSON dates,
// so the value a write returns equals the value a later read decodes.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func storedTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	stored := storedTime(*t)

	return &stored
}

type bookDocument struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Author          string    `bson:"author"`
	ISBN            string    `bson:"isbn"`
	Genre           string    `bson:"genre"`
	Description     string    `bson:"description"`
	TotalCopies     int       `bson:"totalCopies"`
	AvailableCopies int       `bson:"availableCopies"`
	BorrowCount     int       `bson:"borrowCount"`
	CreatedAt       time.Time `bson:"createdAt"`
}

func newBookDocument(book ledger.Book) bookDocument {
	return bookDocument{
		ID:              book.ID.String(),
		Title:           book.Title,
		Author:          book.Author,
		ISBN:            book.ISBN,
		Genre:           book.Genre,
		Description:     book.Description,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		BorrowCount:     book.BorrowCount,
		CreatedAt:       storedTime(book.CreatedAt),
	}
}

func (d bookDocument) toBook() (ledger.Book, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return ledger.Book{}, err
	}

	return ledger.Book{
		ID:              id,
		Title:           d.Title,
		Author:          d.Author,
		ISBN:            d.ISBN,
		Genre:           d.Genre,
		Description:     d.Description,
		TotalCopies:     d.TotalCopies,
		AvailableCopies: d.AvailableCopies,
		BorrowCount:     d.BorrowCount,
		CreatedAt:       d.CreatedAt.UTC(),
	}, nil
}

type userDocument struct {
	ID             string     `bson:"_id"`
	Name           string     `bson:"name"`
	Email          string     `bson:"email"`
	PasswordHash   string     `bson:"passwordHash"`
	Role           string     `bson:"role"`
	CreatedAt      time.Time  `bson:"createdAt"`
	LastBorrowedAt *time.Time `bson:"lastBorrowedAt,omitempty"`
}

func newUserDocument(user ledger.User) userDocument {
	return userDocument{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    storedTime(user.CreatedAt),
	}
}

func (d userDocument) toUser() (ledger.User, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return ledger.User{}, err
	}

	return ledger.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         ledger.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

// borrowingDocument carries Active redundantly to the status,
// because partial indexes can only filter on equality.
type borrowingDocument struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"userId"`
	BookID     string     `bson:"bookId"`
	BorrowDate time.Time  `bson:"borrowDate"`
	DueDate    time.Time  `bson:"dueDate"`
	ReturnDate *time.Time `bson:"returnDate,omitempty"`
	Status     string     `bson:"status"`
	Active     bool       `bson:"active"`
}

func newBorrowingDocument(borrowing ledger.Borrowing) borrowingDocument {
	return borrowingDocument{
		ID:         borrowing.ID.String(),
		UserID:     borrowing.UserID.String(),
		BookID:     borrowing.BookID.String(),
		BorrowDate: storedTime(borrowing.BorrowDate),
		DueDate:    storedTime(borrowing.DueDate),
		ReturnDate: storedTimePtr(borrowing.ReturnDate),
		Status:     string(borrowing.Status),
		Active:     borrowing.Status.IsActive(),
	}
}

func (d borrowingDocument) toBorrowing() (ledger.Borrowing, error) {
	ids := make([]uuid.UUID, 3)

	for i, raw := range []string{d.ID, d.UserID, d.BookID} {
		parsed, err := parseID(raw)
		if err != nil {
			return ledger.Borrowing{}, err
		}

		ids[i] = parsed
	}

	borrowing := ledger.Borrowing{
		ID:         ids[0],
		UserID:     ids[1],
		BookID:     ids[2],
		BorrowDate: d.BorrowDate.UTC(),
		DueDate:    d.DueDate.UTC(),
		Status:     ledger.BorrowingStatus(d.Status),
	}

	if d.ReturnDate != nil {
		returnDate := d.ReturnDate.UTC()
		borrowing.ReturnDate = &returnDate
	}

	return borrowing, nil
}

// borrowingViewDocument is the result shape of the $lookup pipelines.
type borrowingViewDocument struct {
	borrowingDocument `bson:",inline"`
	Book              *bookDocument `bson:"book,omitempty"`
	User              *userDocument `bson:"user,omitempty"`
}

func (d borrowingViewDocument) toView() (ledger.BorrowingView, error) {
	borrowing, err := d.toBorrowing()
	if err != nil {
		return ledger.BorrowingView{}, err
	}

	view := ledger.BorrowingView{Borrowing: borrowing}

	if d.Book != nil {
		book, bookErr := d.Book.toBook()
		if bookErr != nil {
			return ledger.BorrowingView{}, bookErr
		}

		summary := book.Summary()
		view.Book = &summary
	}

	if d.User != nil {
		user, userErr := d.User.toUser()
		if userErr != nil {
			return ledger.BorrowingView{}, userErr
		}

		summary := user.Summary()
		view.User = &summary
	}

	return view, nil
}

type inventoryDocument struct {
	ID               string `bson:"_id"`
	TotalCopies      int    `bson:"totalCopies"`
	AvailableCopies  int    `bson:"availableCopies"`
	ActiveBorrowings int    `bson:"activeBorrowings"`
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(ErrDecodingDocumentFailed, err)
	}

	return id, nil
}
