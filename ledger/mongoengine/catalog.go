package mongoengine

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	opCreateBook  = "create_book"
	opGetBook     = "get_book"
	opListBooks   = "list_books"
	opSampleBooks = "sample_books"
	opUpdateBook  = "update_book"
	opDeleteBook  = "delete_book"
)

// containsRegex matches s as a case-insensitive substring.
func containsRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// literal keeps a string starting with "$" from being read as a field path inside an update pipeline.
func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

func newestFirst(timeField string) bson.D {
	return bson.D{{Key: timeField, Value: -1}, {Key: fieldID, Value: -1}}
}

// CreateBook persists a new Book. Fails with ErrDuplicateISBN.
func (s Store) CreateBook(ctx context.Context, book ledger.Book) (ledger.Book, error) {
	obs, ctx := s.start(ctx, opCreateBook, map[string]string{attrBookID: book.ID.String()})
	book.CreatedAt = storedTime(book.CreatedAt)

	err := book.Validate()
	if err == nil {
		start := time.Now()
		_, err = s.books().InsertOne(ctx, newBookDocument(book))
		s.logCommand(ctx, opCreateBook, "insert "+s.booksCollectionName, start)
		err = s.classify(ctx, err)
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

	book, err := s.getBook(ctx, s.readCollection(ctx, s.booksCollectionName), id)
	obs.Finish(err, logAttrBookID, id.String())

	return book, err
}

func (s Store) getBook(ctx context.Context, books *mongo.Collection, id uuid.UUID) (ledger.Book, error) {
	var document bookDocument

	start := time.Now()
	err := books.FindOne(ctx, bson.M{fieldID: id.String()}).Decode(&document)
	s.logCommand(ctx, opGetBook, "findOne "+s.booksCollectionName, start)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.Book{}, ledger.ErrBookNotFound
	}

	if err != nil {
		return ledger.Book{}, s.classify(ctx, err)
	}

	return document.toBook()
}

// ListBooks returns the books matching filter, newest first.
func (s Store) ListBooks(ctx context.Context, filter ledger.BookFilter) ([]ledger.Book, error) {
	obs, ctx := s.start(ctx, opListBooks, nil)

	query := bson.M{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query["$or"] = bson.A{
			bson.M{fieldTitle: containsRegex(search)},
			bson.M{fieldAuthor: containsRegex(search)},
			bson.M{fieldISBN: containsRegex(search)},
		}
	}

	if genre := strings.TrimSpace(filter.Genre); genre != "" {
		query[fieldGenre] = containsRegex(genre)
	}

	books, err := s.findBooks(ctx, opListBooks, query, options.Find().SetSort(newestFirst(fieldCreatedAt)))
	obs.Finish(err, logAttrCount, len(books))

	return books, err
}

func (s Store) findBooks(ctx context.Context, action string, query bson.M, opts *options.FindOptions) ([]ledger.Book, error) {
	start := time.Now()
	cursor, err := s.readCollection(ctx, s.booksCollectionName).Find(ctx, query, opts)
	s.logCommand(ctx, action, "find "+s.booksCollectionName, start)

	if err != nil {
		return nil, s.classify(ctx, err)
	}

	return toBooks(decodeAll[bookDocument](ctx, s, cursor))
}

func toBooks(documents []bookDocument, err error) ([]ledger.Book, error) {
	if err != nil {
		return nil, err
	}

	books := make([]ledger.Book, 0, len(documents))

	for _, document := range documents {
		book, convErr := document.toBook()
		if convErr != nil {
			return nil, convErr
		}

		books = append(books, book)
	}

	return books, nil
}

// SampleBooks returns up to limit books in random order using $sample.
func (s Store) SampleBooks(ctx context.Context, limit int) ([]ledger.Book, error) {
	if limit <= 0 {
		return make([]ledger.Book, 0), nil
	}

	obs, ctx := s.start(ctx, opSampleBooks, nil)

	pipeline := mongo.Pipeline{{{Key: "$sample", Value: bson.M{"size": limit}}}}

	start := time.Now()
	cursor, err := s.readCollection(ctx, s.booksCollectionName).Aggregate(ctx, pipeline)
	s.logCommand(ctx, opSampleBooks, "aggregate "+s.booksCollectionName, start)

	var books []ledger.Book

	if err != nil {
		err = s.classify(ctx, err)
	} else {
		books, err = toBooks(decodeAll[bookDocument](ctx, s, cursor))
	}

	obs.Finish(err, logAttrCount, len(books))

	return books, err
}

// UpdateBook applies update with one conditional findAndModify.
// A TotalCopies change is an update pipeline that shifts the available copies by the delta,
// guarded so the available copies cannot become negative.
func (s Store) UpdateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error) {
	obs, ctx := s.start(ctx, opUpdateBook, map[string]string{attrBookID: id.String()})

	book, err := s.updateBook(ctx, id, update.Normalize())
	obs.Finish(err, logAttrBookID, id.String())

	if err != nil {
		return ledger.Book{}, err
	}

	return book, nil
}

func (s Store) updateBook(ctx context.Context, id uuid.UUID, update ledger.BookUpdate) (ledger.Book, error) {
	if err := update.Validate(); err != nil {
		return ledger.Book{}, err
	}

	if update.IsEmpty() {
		return s.getBook(ctx, s.books(), id)
	}

	set := bson.M{}
	filter := bson.M{fieldID: id.String()}

	if update.Title != nil {
		set[fieldTitle] = literal(*update.Title)
	}
	if update.Author != nil {
		set[fieldAuthor] = literal(*update.Author)
	}
	if update.ISBN != nil {
		set[fieldISBN] = literal(*update.ISBN)
	}
	if update.Genre != nil {
		set[fieldGenre] = literal(*update.Genre)
	}
	if update.Description != nil {
		set[fieldDescription] = literal(*update.Description)
	}
	if update.TotalCopies != nil {
		shifted := bson.M{"$add": bson.A{
			"$" + fieldAvailableCopies,
			bson.M{"$subtract": bson.A{*update.TotalCopies, "$" + fieldTotalCopies}},
		}}

		set[fieldTotalCopies] = *update.TotalCopies
		set[fieldAvailableCopies] = shifted
		filter["$expr"] = bson.M{"$gte": bson.A{shifted, 0}}
	}

	// Expressions in one $set stage read the document as it was before the stage, so the shift sees the old total.
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	var document bookDocument

	start := time.Now()
	err := s.books().FindOneAndUpdate(ctx, filter, pipeline, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&document)
	s.logCommand(ctx, opUpdateBook, "findAndModify "+s.booksCollectionName, start)

	if err == nil {
		return document.toBook()
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.Book{}, s.classify(ctx, err)
	}

	if _, getErr := s.getBook(ctx, s.books(), id); getErr != nil {
		return ledger.Book{}, getErr
	}

	return ledger.Book{}, ledger.ErrTotalCopiesBelowActiveLoans
}

// DeleteBook removes a Book that has no active borrowings.
// BorrowBook writes the same book document, so the transactions conflict and one of them retries.
func (s Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	obs, ctx := s.start(ctx, opDeleteBook, map[string]string{attrBookID: id.String()})

	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		if _, getErr := s.getBook(sc, s.books(), id); getErr != nil {
			return getErr
		}

		active, countErr := s.countActiveBorrowings(sc, opDeleteBook, bson.M{fieldBookID: id.String()})
		if countErr != nil {
			return countErr
		}

		if active > 0 {
			return ledger.ErrBookHasActiveBorrowings
		}

		start := time.Now()
		_, deleteErr := s.books().DeleteOne(sc, bson.M{fieldID: id.String()})
		s.logCommand(sc, opDeleteBook, "delete "+s.booksCollectionName, start)

		return s.classify(sc, deleteErr)
	})

	obs.Finish(err, logAttrBookID, id.String())

	return err
}

func (s Store) countActiveBorrowings(ctx context.Context, action string, filter bson.M) (int64, error) {
	filter[fieldActive] = true

	start := time.Now()
	count, err := s.borrowings().CountDocuments(ctx, filter)
	s.logCommand(ctx, action, "count "+s.borrowingsCollectionName, start)

	if err != nil {
		return 0, s.classify(ctx, err)
	}

	return count, nil
}
