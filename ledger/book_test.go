package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

func Test_NewBook_DefaultsToOneCopy(t *testing.T) {
	// act
	book := ledger.NewBook(uuid.New(), " Dune ", "Frank Herbert", "978-0441172719", "Science Fiction", "", 0, time.Now())

	// assert
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 1, book.TotalCopies)
	assert.Equal(t, 1, book.AvailableCopies)
	assert.Equal(t, 0, book.BorrowCount)
	assert.NoError(t, book.Validate())
}

func Test_Book_Validate_RejectsMissingAttributes(t *testing.T) {
	valid := ledger.NewBook(uuid.New(), "1984", "George Orwell", "978-0451524935", "Dystopian", "", 4, time.Now())

	testCases := map[string]func(b *ledger.Book){
		"no title":           func(b *ledger.Book) { b.Title = "" },
		"no author":          func(b *ledger.Book) { b.Author = "" },
		"no isbn":            func(b *ledger.Book) { b.ISBN = "" },
		"no genre":           func(b *ledger.Book) { b.Genre = "" },
		"no copies":          func(b *ledger.Book) { b.TotalCopies = 0 },
		"available > total":  func(b *ledger.Book) { b.AvailableCopies = b.TotalCopies + 1 },
		"negative available": func(b *ledger.Book) { b.AvailableCopies = -1 },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			book := valid
			mutate(&book)

			assert.ErrorIs(t, book.Validate(), ledger.ErrInvalidInput)
		})
	}
}

func Test_BookUpdate_ApplyTo_ShiftsAvailableByTotalDelta(t *testing.T) {
	// arrange
	book := ledger.Book{TotalCopies: 5, AvailableCopies: 3}
	lower, higher := 2, 8

	// act
	shrunk, shrinkErr := ledger.BookUpdate{TotalCopies: &lower}.ApplyTo(book)
	grown, growErr := ledger.BookUpdate{TotalCopies: &higher}.ApplyTo(book)

	// assert
	require.NoError(t, shrinkErr)
	assert.Equal(t, 2, shrunk.TotalCopies)
	assert.Equal(t, 0, shrunk.AvailableCopies)
	assert.Equal(t, book.ActiveBorrowings(), shrunk.ActiveBorrowings())

	require.NoError(t, growErr)
	assert.Equal(t, 8, grown.TotalCopies)
	assert.Equal(t, 6, grown.AvailableCopies)
}

func Test_BookUpdate_ApplyTo_RejectsTotalBelowActiveLoans(t *testing.T) {
	// arrange
	book := ledger.Book{TotalCopies: 5, AvailableCopies: 3}
	tooLow := 1

	// act
	_, err := ledger.BookUpdate{TotalCopies: &tooLow}.ApplyTo(book)

	// assert
	assert.ErrorIs(t, err, ledger.ErrTotalCopiesBelowActiveLoans)
}

func Test_BookUpdate_Validate(t *testing.T) {
	// arrange
	blank := "   "
	zero := 0

	// act & assert
	assert.ErrorIs(t, ledger.BookUpdate{Title: &blank}.Normalize().Validate(), ledger.ErrInvalidInput)
	assert.ErrorIs(t, ledger.BookUpdate{TotalCopies: &zero}.Validate(), ledger.ErrInvalidInput)
	assert.NoError(t, ledger.BookUpdate{Description: &blank}.Normalize().Validate(), "description may be blank")
	assert.True(t, ledger.BookUpdate{}.IsEmpty())
}

func Test_BookFilter_Matches(t *testing.T) {
	// arrange
	book := ledger.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "978-0547928227", Genre: "Fantasy"}

	// act & assert
	assert.True(t, ledger.BookFilter{}.Matches(book))
	assert.True(t, ledger.BookFilter{Search: "hobb"}.Matches(book))
	assert.True(t, ledger.BookFilter{Search: "TOLKIEN"}.Matches(book))
	assert.True(t, ledger.BookFilter{Search: "0547"}.Matches(book))
	assert.True(t, ledger.BookFilter{Genre: "fant"}.Matches(book))
	assert.False(t, ledger.BookFilter{Search: "dune"}.Matches(book))
	assert.False(t, ledger.BookFilter{Search: "hobbit", Genre: "thriller"}.Matches(book))
}
