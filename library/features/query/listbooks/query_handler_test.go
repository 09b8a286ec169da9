package listbooks_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/listbooks"
)

var fakeClock = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func givenCatalog(t *testing.T, store *memoryengine.Store) {
	t.Helper()

	books := []ledger.Book{
		ledger.NewBook(uuid.New(), "The Hobbit", "J.R.R. Tolkien", "978-0547928227", "Fantasy", "", 4, fakeClock),
		ledger.NewBook(uuid.New(), "Dune", "Frank Herbert", "978-0441172719", "Science Fiction", "", 3, fakeClock.Add(time.Minute)),
		ledger.NewBook(uuid.New(), "The Lord of the Rings", "J.R.R. Tolkien", "978-0544003415", "Fantasy", "", 2, fakeClock.Add(2*time.Minute)),
	}

	for _, book := range books {
		_, err := store.CreateBook(context.Background(), book)
		require.NoError(t, err)
	}
}

func titles(books []ledger.Book) []string {
	result := make([]string, 0, len(books))
	for _, book := range books {
		result = append(result, book.Title)
	}

	return result
}

func Test_QueryHandler_Handle_Filters(t *testing.T) {
	store := memoryengine.New()
	givenCatalog(t, store)
	handler := listbooks.NewQueryHandler(store)

	testCases := []struct {
		name     string
		query    listbooks.Query
		expected []string
	}{
		{"no filter newest first", listbooks.BuildQuery("", ""), []string{"The Lord of the Rings", "Dune", "The Hobbit"}},
		{"search by author", listbooks.BuildQuery("tolkien", ""), []string{"The Lord of the Rings", "The Hobbit"}},
		{"search by isbn", listbooks.BuildQuery("0441172719", ""), []string{"Dune"}},
		{"genre substring", listbooks.BuildQuery("", " fiction "), []string{"Dune"}},
		{"search and genre", listbooks.BuildQuery("the", "FANTASY"), []string{"The Lord of the Rings", "The Hobbit"}},
		{"no match", listbooks.BuildQuery("gatsby", ""), []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result, err := handler.Handle(context.Background(), tc.query)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expected, titles(result.Books))
			assert.Equal(t, len(tc.expected), result.Count)
		})
	}
}
