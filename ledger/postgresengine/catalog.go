package postgresengine

import (
	"context"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	opCreateBook  = "create_book"
	opGetBook     = "get_book"
	opListBooks   = "list_books"
	opSampleBooks = "sample_books"
	opUpdateBook  = "update_book"
	opDeleteBook  = "delete_book"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring pattern for ILIKE with the default escape character.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func bookColumns(qualifier string) []any {
	columns := []string{
		colID, colTitle, colAuthor, colISBN, colGenre, colDescription,
		colTotalCopies, colAvailableCopies, colBorrowCount, colCreatedAt,
	}

	result := make([]any, 0, len(columns))
	for _, column := range columns {
		if qualifier == "" {
			result = append(result, goqu.C(column))
			continue
		}

		result = append(result, goqu.I(qualifier+"."+column))
	}

	return result
}

func scanBook(rows adapters.DBRows) (ledger.Book, error) {
	var book ledger.Book
	var id string

	if err := rows.Scan(
		&id, &book.Title, &book.Author, &book.ISBN, &book.Genre, &book.Description,
		&book.TotalCopies, &book.AvailableCopies, &book.BorrowCount, &book.CreatedAt,
	); err != nil {
		return ledger.Book{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	parsed, err := parseID(id)
	if err != nil {
		return ledger.Book{}, err
	}

	book.ID = parsed
	book.CreatedAt = book.CreatedAt.UTC()

	return book, nil
}

// CreateBook persists a new Book. Fails with ErrDuplicateISBN.
func (s Store) CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error) {
	obs, ctx := s.start(ctx, opCreateBook, map[string]string{attrBookID: book.ID.String()})

	err := book.Validate()
	if err == nil {
		stmt := builder().Insert(s.booksTableName).Rows(goqu.Record{
			colID:              book.ID.String(),
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colISBN:            book.ISBN,
			colGenre:           book.Genre,
			colDescription:     book.Description,
			colTotalCopies:     book.TotalCopies,
			colAvailableCopies: book.AvailableCopies,
			colBorrowCount:     book.BorrowCount,
			colCreatedAt:       book.CreatedAt,
		})

		_, err = s.exec(ctx, s.db, opCreateBook, stmt)
	}

	obs.Finish(err, logAttrBookID, book.ID.String())

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

// GetBook fails with ErrBookNotFound.
func (s Store) GetBook(ctx context.Context, id uuid.UUID) (ledger.Book, error) {
	obs, ctx := s.start(ctx, opGetBook, map[string]string{attrBookID: id.String()})

	book, err := s.getBook(ctx, s.db, id)
	obs.Finish(err, logAttrBookID, id.String())

	return book, err
}

func (s Store) getBook(ctx context.Context, q adapters.DBQuerier, id uuid.UUID) (ledger.Book, error) {
	stmt := builder().From(s.booksTableName).
		Select(bookColumns("")...).
		Where(goqu.C(colID).Eq(id.String()))

	book, found, err := queryOne(ctx, s, q, opGetBook, stmt, scanBook)
	if err != nil {
		return ledger.Book{}, err
	}

	if !found {
		return ledger.Book{}, ledger.ErrBookNotFound
	}

	return book, nil
}

// ListBooks returns the books matching filter, newest first.
func (s Store) ListBooks(ctx context.Context, filter ledger.BookFilter) ([]ledger.Book, error) {
	obs, ctx := s.start(ctx, opListBooks, nil)

	stmt := builder().From(s.booksTableName).
		Select(bookColumns("")...).
		Order(goqu.C(colCreatedAt).Desc(), goqu.C(colID).Desc())

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		stmt = stmt.Where(goqu.Or(
			goqu.C(colTitle).ILike(pattern),
			goqu.C(colAuthor).ILike(pattern),
			goqu.C(colISBN).ILike(pattern),
		))
	}

	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		stmt = stmt.Where(goqu.C(colGenre).ILike(containsPattern(genre)))
	}

	books, err := queryAll(ctx, s, s.db, opListBooks, stmt, scanBook)
	obs.Finish(err, logAttrCount, len(books))

	return books, err
}

// SampleBooks returns up to limit books in random order.
func (s Store) SampleBooks(ctx context.Context, limit int) ([]ledger.Book, error) {
	if limit <= 0 {
		return []ledger.Book{}, nil
	}

	obs, ctx := s.start(ctx, opSampleBooks, nil)

	stmt := builder().From(s.booksTableName).
		Select(bookColumns("")...).
		Order(goqu.L("random()").Asc()).
		Limit(uint(limit))

	books, err := queryAll(ctx, s, s.db, opSampleBooks, stmt, scanBook)
	obs.Finish(err, logAttrCount, len(books))

	return books, err
}

// UpdateBook applies update in a single conditional statement.
// A TotalCopies change shifts available_copies by the same delta and is refused when that would go negative.
func (s Store) UpdateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error) {
	obs, ctx := s.start(ctx, opUpdateBook, map[string]string{attrBookID: id.String()})

	book, err := s.updateBook(ctx, id, update.Normalize())
	obs.Finish(err, logAttrBookID, id.String())

	return book, err
}

func (s Store) updateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error) {
	if err := update.Validate(); err != nil {
		return ledger.Book{}, err
	}

	if update.IsEmpty() {
		return s.getBook(ctx, s.db, id)
	}

	record := goqu.Record{}
	conditions := []goqu.Expression{goqu.C(colID).Eq(id.String())}

	if update.Title != nil {
		record[colTitle] = *update.Title
	}
	if update.Author != nil {
		record[colAuthor] = *update.Author
	}
	if update.ISBN != nil {
		record[colISBN] = *update.ISBN
	}
	if update.Genre != nil {
		record[colGenre] = *update.Genre
	}
	if update.Description != nil {
		record[colDescription] = *update.Description
	}
	if update.TotalCopies != nil {
		shifted := goqu.L("available_copies + (? - total_copies)", *update.TotalCopies)
		record[colTotalCopies] = *update.TotalCopies
		record[colAvailableCopies] = shifted
		conditions = append(conditions, goqu.L("available_copies + (? - total_copies) >= 0", *update.TotalCopies))
	}

	stmt := builder().Update(s.booksTableName).
		Set(record).
		Where(conditions...).
		Returning(bookColumns("")...)

	book, found, err := queryOne(ctx, s, s.db, opUpdateBook, stmt, scanBook)
	if err != nil {
		return ledger.Book{}, err
	}

	if found {
		return book, nil
	}

	if _, getErr := s.getBook(ctx, s.db, id); getErr != nil {
		return ledger.Book{}, getErr
	}

	return ledger.Book{}, ledger.ErrTotalCopiesBelowActiveLoans
}

// DeleteBook removes a Book that has no active borrowings.
// The row lock serializes it with BorrowBook, which updates the same row.
func (s Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	obs, ctx := s.start(ctx, opDeleteBook, map[string]string{attrBookID: id.String()})

	err := s.inTx(ctx, func(tx adapters.DBTx) error {
		lockStmt := builder().From(s.booksTableName).
			Select(goqu.C(colID)).
			Where(goqu.C(colID).Eq(id.String())).
			ForUpdate(goqu.Wait)

		_, found, lockErr := queryOne(ctx, s, tx, opDeleteBook, lockStmt, scanID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return ledger.ErrBookNotFound
		}

		active, countErr := s.countActiveBorrowings(ctx, tx, colBookID, id)
		if countErr != nil {
			return countErr
		}

		if active > 0 {
			return ledger.ErrBookHasActiveBorrowings
		}

		deleteStmt := builder().Delete(s.booksTableName).Where(goqu.C(colID).Eq(id.String()))
		_, deleteErr := s.exec(ctx, tx, opDeleteBook, deleteStmt)

		return deleteErr
	})

	obs.Finish(err, logAttrBookID, id.String())

	return err
}

func (s Store) countActiveBorrowings(ctx context.Context, q adapters.DBQuerier, column string, id uuid.UUID) (int64, error) {
	stmt := builder().From(s.borrowingsTableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(column).Eq(id.String()),
			goqu.C(colStatus).In(activeStatuses()...),
		)

	count, _, err := queryOne(ctx, s, q, "count_active_borrowings", stmt, scanCount)

	return count, err
}
