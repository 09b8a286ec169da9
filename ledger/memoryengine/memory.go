package memoryengine

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/internal/instrument"
)

const engineName = "memory"

// Option defines a functional option for configuring Store.
type Option func(*Store)

// WithLogger sets the logger for the Store.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Store) {
		s.instrumentation.Logger = logger
	}
}

// WithContextualLogger sets the contextual logger for the Store.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(s *Store) {
		s.instrumentation.ContextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(s *Store) {
		s.instrumentation.Metrics = collector
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(s *Store) {
		s.instrumentation.Tracing = collector
	}
}

// Store is the in-memory implementation of ledger.Store. The zero value is not usable, see New.
type Store struct {
	mu              sync.Mutex
	books           map[uuid.UUID]ledger.Book
	users           map[uuid.UUID]ledger.User
	borrowings      map[uuid.UUID]ledger.Borrowing
	instrumentation *instrument.Instrumentation
}

// New creates an empty Store.
func New(options ...Option) *Store {
	s := &Store{
		books:           make(map[uuid.UUID]ledger.Book),
		users:           make(map[uuid.UUID]ledger.User),
		borrowings:      make(map[uuid.UUID]ledger.Borrowing),
		instrumentation: &instrument.Instrumentation{Engine: engineName},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// observe wraps fn into an Observation and checks ctx before touching any state.
func (s *Store) observe(ctx context.Context, operation string, fn func() error) error {
	obs, ctx := s.instrumentation.Start(ctx, operation, nil)

	err := ctx.Err()
	if err == nil {
		s.mu.Lock()
		err = fn()
		s.mu.Unlock()
	}

	obs.Finish(err)

	return err
}

// CreateBook stores a new Book. Fails with ErrDuplicateISBN.
func (s *Store) CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error) {
	err := s.observe(ctx, "create_book", func() error {
		if err := book.Validate(); err != nil {
			return err
		}

		if _, exists := s.books[book.ID]; exists {
			return fmt.Errorf("%w: book id %s is taken", ledger.ErrInconsistentState, book.ID)
		}

		for _, other := range s.books {
			if other.ISBN == book.ISBN {
				return ledger.ErrDuplicateISBN
			}
		}

		s.books[book.ID] = book

		return nil
	})

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

// GetBook fails with ErrBookNotFound.
func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (ledger.Book, error) {
	var book ledger.Book

	err := s.observe(ctx, "get_book", func() error {
		found, ok := s.books[id]
		if !ok {
			return ledger.ErrBookNotFound
		}

		book = found

		return nil
	})

	return book, err
}

// ListBooks returns the Books matching filter, newest first.
func (s *Store) ListBooks(ctx context.Context, filter ledger.BookFilter) ([]ledger.Book, error) {
	books := make([]ledger.Book, 0)

	err := s.observe(ctx, "list_books", func() error {
		for _, book := range s.books {
			if filter.Matches(book) {
				books = append(books, book)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	slices.SortFunc(books, func(a, b ledger.Book) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})

	return books, nil
}

// SampleBooks returns up to limit Books in random order.
func (s *Store) SampleBooks(ctx context.Context, limit int) ([]ledger.Book, error) {
	books := make([]ledger.Book, 0)

	if limit <= 0 {
		return books, nil
	}

	err := s.observe(ctx, "sample_books", func() error {
		for _, book := range s.books {
			books = append(books, book)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	rand.Shuffle(len(books), func(i, j int) {
		books[i], books[j] = books[j], books[i]
	})

	return books[:min(limit, len(books))], nil
}

// UpdateBook applies the set fields of update. Fails with ErrBookNotFound or ErrDuplicateISBN.
func (s *Store) UpdateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error) {
	var updated ledger.Book
	update = update.Normalize()

	err := s.observe(ctx, "update_book", func() error {
		if err := update.Validate(); err != nil {
			return err
		}

		book, ok := s.books[id]
		if !ok {
			return ledger.ErrBookNotFound
		}

		if update.ISBN != nil {
			for _, other := range s.books {
				if other.ID != id && other.ISBN == *update.ISBN {
					return ledger.ErrDuplicateISBN
				}
			}
		}

		applied, err := update.ApplyTo(book)
		if err != nil {
			return err
		}

		s.books[id] = applied
		updated = applied

		return nil
	})

	return updated, err
}

// DeleteBook refuses with ErrBookHasActiveBorrowings while copies are out.
func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.observe(ctx, "delete_book", func() error {
		if _, ok := s.books[id]; !ok {
			return ledger.ErrBookNotFound
		}

		for _, borrowing := range s.borrowings {
			if borrowing.BookID == id && borrowing.Status.IsActive() {
				return ledger.ErrBookHasActiveBorrowings
			}
		}

		delete(s.books, id)

		return nil
	})
}

// CreateUser stores a new User. Fails with ErrDuplicateEmail.
func (s *Store) CreateUser(ctx context.Context, user ledger.User) (ledger.User, error) {
	err := s.observe(ctx, "create_user", func() error {
		if err := user.Validate(); err != nil {
			return err
		}

		if _, exists := s.users[user.ID]; exists {
			return fmt.Errorf("%w: user id %s is taken", ledger.ErrInconsistentState, user.ID)
		}

		for _, other := range s.users {
			if other.Email == user.Email {
				return ledger.ErrDuplicateEmail
			}
		}

		s.users[user.ID] = user

		return nil
	})

	if err != nil {
		return ledger.User{}, err
	}

	return user, nil
}

// GetUser fails with ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	var user ledger.User

	err := s.observe(ctx, "get_user", func() error {
		found, ok := s.users[id]
		if !ok {
			return ledger.ErrUserNotFound
		}

		user = found

		return nil
	})

	return user, err
}

// GetUserByEmail matches the email exactly. Fails with ErrUserNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	var user ledger.User

	err := s.observe(ctx, "get_user_by_email", func() error {
		for _, candidate := range s.users {
			if candidate.Email == email {
				user = candidate
				return nil
			}
		}

		return ledger.ErrUserNotFound
	})

	return user, err
}

// ListUsers returns all Users, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]ledger.User, error) {
	users := make([]ledger.User, 0)

	err := s.observe(ctx, "list_users", func() error {
		for _, user := range s.users {
			users = append(users, user)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	slices.SortFunc(users, func(a, b ledger.User) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})

	return users, nil
}

// UpdateUser applies the set fields of update. Fails with ErrUserNotFound or ErrDuplicateEmail.
func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error) {
	var updated ledger.User
	update = update.Normalize()

	err := s.observe(ctx, "update_user", func() error {
		if err := update.Validate(); err != nil {
			return err
		}

		user, ok := s.users[id]
		if !ok {
			return ledger.ErrUserNotFound
		}

		if update.Email != nil {
			for _, other := range s.users {
				if other.ID != id && other.Email == *update.Email {
					return ledger.ErrDuplicateEmail
				}
			}
		}

		updated = update.ApplyTo(user)
		s.users[id] = updated

		return nil
	})

	return updated, err
}

// DeleteUser refuses with ErrUserHasActiveBorrowings while the User holds a loan.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.observe(ctx, "delete_user", func() error {
		if _, ok := s.users[id]; !ok {
			return ledger.ErrUserNotFound
		}

		for _, borrowing := range s.borrowings {
			if borrowing.UserID == id && borrowing.Status.IsActive() {
				return ledger.ErrUserHasActiveBorrowings
			}
		}

		delete(s.users, id)

		return nil
	})
}

// BorrowBook decrements the Book counters and records the Borrowing under one lock.
func (s *Store) BorrowBook(ctx context.Context, borrowing ledger.Borrowing) (ledger.Borrowing, error) {
	err := s.observe(ctx, "borrow_book", func() error {
		if err := borrowing.Validate(); err != nil {
			return err
		}

		book, ok := s.books[borrowing.BookID]
		if !ok {
			return ledger.ErrBookNotFound
		}

		if book.AvailableCopies <= 0 {
			return ledger.ErrBookUnavailable
		}

		if _, userExists := s.users[borrowing.UserID]; !userExists {
			return ledger.ErrUserNotFound
		}

		for _, other := range s.borrowings {
			if other.UserID == borrowing.UserID && other.BookID == borrowing.BookID && other.Status.IsActive() {
				return ledger.ErrAlreadyBorrowed
			}
		}

		if _, taken := s.borrowings[borrowing.ID]; taken {
			return fmt.Errorf("%w: borrowing id %s is taken", ledger.ErrInconsistentState, borrowing.ID)
		}

		book.AvailableCopies--
		book.BorrowCount++
		s.books[book.ID] = book
		s.borrowings[borrowing.ID] = cloneBorrowing(borrowing)

		return nil
	})

	if err != nil {
		return ledger.Borrowing{}, err
	}

	return borrowing, nil
}

// ReturnBook transitions an active Borrowing to returned and gives the copy back.
func (s *Store) ReturnBook(ctx context.Context, id uuid.UUID, returnedAt time.Time) (ledger.Borrowing, error) {
	var returned ledger.Borrowing

	err := s.observe(ctx, "return_book", func() error {
		borrowing, ok := s.borrowings[id]
		if !ok {
			return ledger.ErrBorrowingNotFound
		}

		var err error
		if returned, err = borrowing.Return(returnedAt); err != nil {
			return err
		}

		s.borrowings[id] = cloneBorrowing(returned)

		book, bookExists := s.books[returned.BookID]
		if !bookExists || book.AvailableCopies >= book.TotalCopies {
			return fmt.Errorf(
				"%w: available copies of book %s already at total when returning borrowing %s",
				ledger.ErrInconsistentState, returned.BookID, returned.ID,
			)
		}

		book.AvailableCopies++
		s.books[book.ID] = book

		return nil
	})

	if err != nil && returned.ID == uuid.Nil {
		return ledger.Borrowing{}, err
	}

	return cloneBorrowing(returned), err
}

// MarkOverdue transitions every borrowed Borrowing due before now and reports how many changed.
func (s *Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var transitioned int64

	err := s.observe(ctx, "mark_overdue", func() error {
		for id, borrowing := range s.borrowings {
			if borrowing.IsOverdueAt(now) {
				borrowing.Status = ledger.StatusOverdue
				s.borrowings[id] = borrowing
				transitioned++
			}
		}

		return nil
	})

	return transitioned, err
}

// ListBorrowingsByUser returns the Borrowings of one User with their Book, newest first.
func (s *Store) ListBorrowingsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.BorrowingView, error) {
	return s.listBorrowings(ctx, "list_borrowings_by_user", false, func(b ledger.Borrowing) bool {
		return b.UserID == userID
	})
}

// ListBorrowings returns every Borrowing with its Book and User, newest first.
func (s *Store) ListBorrowings(ctx context.Context) ([]ledger.BorrowingView, error) {
	return s.listBorrowings(ctx, "list_borrowings", true, func(ledger.Borrowing) bool {
		return true
	})
}

func (s *Store) listBorrowings(
	ctx context.Context,
	operation string,
	withUser bool,
	include func(ledger.Borrowing) bool,
) ([]ledger.BorrowingView, error) {

	views := make([]ledger.BorrowingView, 0)

	err := s.observe(ctx, operation, func() error {
		for _, borrowing := range s.borrowings {
			if !include(borrowing) {
				continue
			}

			view := ledger.BorrowingView{Borrowing: cloneBorrowing(borrowing)}

			if book, ok := s.books[borrowing.BookID]; ok {
				summary := book.Summary()
				view.Book = &summary
			}

			if user, ok := s.users[borrowing.UserID]; ok && withUser {
				summary := user.Summary()
				view.User = &summary
			}

			views = append(views, view)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	slices.SortFunc(views, func(a, b ledger.BorrowingView) int {
		return newestFirst(a.BorrowDate, b.BorrowDate, a.ID, b.ID)
	})

	return views, nil
}

// AuditInventory reports the Books whose available counter disagrees with their active Borrowings.
func (s *Store) AuditInventory(ctx context.Context) ([]ledger.InventoryDrift, error) {
	drifts := make([]ledger.InventoryDrift, 0)

	err := s.observe(ctx, "audit_inventory", func() error {
		active := make(map[uuid.UUID]int, len(s.books))
		for _, borrowing := range s.borrowings {
			if borrowing.Status.IsActive() {
				active[borrowing.BookID]++
			}
		}

		for id, book := range s.books {
			if drift, violated := ledger.CheckInventory(id, book.TotalCopies, book.AvailableCopies, active[id]); violated {
				drifts = append(drifts, drift)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	slices.SortFunc(drifts, func(a, b ledger.InventoryDrift) int {
		return cmp.Compare(a.BookID.String(), b.BookID.String())
	})

	return drifts, nil
}

// ForceAvailableCopies overwrites the available counter of a Book without any checks.
// It simulates out-of-band manipulation in tests of the inconsistency handling.
func (s *Store) ForceAvailableCopies(id uuid.UUID, available int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book, ok := s.books[id]; ok {
		book.AvailableCopies = available
		s.books[id] = book
	}
}

func newestFirst(aTime, bTime time.Time, aID, bID uuid.UUID) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}

	return cmp.Compare(bID.String(), aID.String())
}

func cloneBorrowing(b ledger.Borrowing) ledger.Borrowing {
	if b.ReturnDate != nil {
		returnDate := *b.ReturnDate
		b.ReturnDate = &returnDate
	}

	return b
}
