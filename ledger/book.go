package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTotalCopies is used when a Book is added without a copy count.
const DefaultTotalCopies = 1

// Book is a catalog entry together with its denormalized availability counters.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Genre           string    `json:"genre"`
	Description     string    `json:"description,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	BorrowCount     int       `json:"borrowCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BookSummary is the subset of a Book that is joined into borrowing listings.
type BookSummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
	ISBN   string    `json:"isbn"`
	Genre  string    `json:"genre"`
}

// Summary returns the BookSummary of b.
func (b Book) Summary() BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN, Genre: b.Genre}
}

// ActiveBorrowings derives the number of copies on loan from the counters.
func (b Book) ActiveBorrowings() int {
	return b.TotalCopies - b.AvailableCopies
}

// NewBook builds a Book with all copies available and applies the catalog defaults.
func NewBook(id uuid.UUID, title, author, isbn, genre, description string, totalCopies int, createdAt time.Time) Book {
	if totalCopies == 0 {
		totalCopies = DefaultTotalCopies
	}

	return Book{
		ID:              id,
		Title:           strings.TrimSpace(title),
		Author:          strings.TrimSpace(author),
		ISBN:            strings.TrimSpace(isbn),
		Genre:           strings.TrimSpace(genre),
		Description:     strings.TrimSpace(description),
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		CreatedAt:       createdAt,
	}
}

// Validate checks the attribute rules of a Book before it is created.
func (b Book) Validate() error {
	switch {
	case b.ID == uuid.Nil:
		return invalidInput("book id must be set")
	case b.Title == "":
		return invalidInput("title must not be empty")
	case b.Author == "":
		return invalidInput("author must not be empty")
	case b.ISBN == "":
		return invalidInput("isbn must not be empty")
	case b.Genre == "":
		return invalidInput("genre must not be empty")
	case b.TotalCopies < 1:
		return invalidInput("totalCopies must be at least 1")
	case b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies:
		return invalidInput("availableCopies must be between 0 and totalCopies")
	case b.BorrowCount < 0:
		return invalidInput("borrowCount must not be negative")
	}

	return nil
}

// BookUpdate carries a partial catalog change. Nil fields are left untouched.
//
// A change of TotalCopies shifts AvailableCopies by the same delta, so the number of copies on loan stays intact.
type BookUpdate struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	ISBN        *string `json:"isbn,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Description *string `json:"description,omitempty"`
	TotalCopies *int    `json:"totalCopies,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.ISBN == nil &&
		u.Genre == nil && u.Description == nil && u.TotalCopies == nil
}

// Normalize returns a copy of u with all string fields trimmed.
func (u BookUpdate) Normalize() BookUpdate {
	u.Title = trimmed(u.Title)
	u.Author = trimmed(u.Author)
	u.ISBN = trimmed(u.ISBN)
	u.Genre = trimmed(u.Genre)
	u.Description = trimmed(u.Description)

	return u
}

// Validate checks that no required attribute is blanked and totalCopies stays positive.
func (u BookUpdate) Validate() error {
	required := []struct {
		name  string
		value *string
	}{
		{"title", u.Title},
		{"author", u.Author},
		{"isbn", u.ISBN},
		{"genre", u.Genre},
	}

	for _, field := range required {
		if field.value != nil && *field.value == "" {
			return invalidInput("%s must not be empty", field.name)
		}
	}

	if u.TotalCopies != nil && *u.TotalCopies < 1 {
		return invalidInput("totalCopies must be at least 1")
	}

	return nil
}

// ApplyTo returns b with the update applied, or ErrTotalCopiesBelowActiveLoans when
// the new total cannot cover the copies on loan.
func (u BookUpdate) ApplyTo(b Book) (Book, error) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.ISBN != nil {
		b.ISBN = *u.ISBN
	}
	if u.Genre != nil {
		b.Genre = *u.Genre
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.TotalCopies != nil {
		available := b.AvailableCopies + (*u.TotalCopies - b.TotalCopies)
		if available < 0 {
			return Book{}, ErrTotalCopiesBelowActiveLoans
		}

		b.TotalCopies = *u.TotalCopies
		b.AvailableCopies = available
	}

	return b, nil
}

// BookFilter narrows a catalog listing.
// Search matches title, author or isbn, Genre matches the genre, both case-insensitive substrings.
type BookFilter struct {
	Search string
	Genre  string
}

// Matches reports whether b passes the filter.
func (f BookFilter) Matches(b Book) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Author), needle) &&
			!strings.Contains(strings.ToLower(b.ISBN), needle) {
			return false
		}
	}

	if f.Genre != "" && !strings.Contains(strings.ToLower(b.Genre), strings.ToLower(f.Genre)) {
		return false
	}

	return true
}

// DefaultRecommendationCount is the number of books a recommendation listing returns.
const DefaultRecommendationCount = 10

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)

	return &t
}
