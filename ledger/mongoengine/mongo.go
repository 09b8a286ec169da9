package mongoengine

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/internal/instrument"
)

const (
	engineName                      = "mongo"
	defaultBooksCollectionName      = "books"
	defaultUsersCollectionName      = "users"
	defaultBorrowingsCollectionName = "borrowings"
	logMsgCloseCursorFailed         = "failed to close mongodb cursor"
	logAttrBookID                   = "book_id"
	logAttrUserID                   = "user_id"
	logAttrBorrowingID              = "borrowing_id"
	logAttrCount                    = "count"
	attrBookID                      = "ledger.book_id"
	attrUserID                      = "ledger.user_id"
	attrBorrowingID                 = "ledger.borrowing_id"
	attrReturnedAt                  = "ledger.returned_at"
	attrConsistency                 = "ledger.consistency"
	fieldID                         = "_id"
	fieldTitle                      = "title"
	fieldAuthor                     = "author"
	fieldISBN                       = "isbn"
	fieldGenre                      = "genre"
	fieldDescription                = "description"
	fieldTotalCopies                = "totalCopies"
	fieldAvailableCopies            = "availableCopies"
	fieldBorrowCount                = "borrowCount"
	fieldCreatedAt                  = "createdAt"
	fieldName                       = "name"
	fieldEmail                      = "email"
	fieldPasswordHash               = "passwordHash"
	fieldRole                       = "role"
	fieldLastBorrowedAt             = "lastBorrowedAt"
	fieldUserID                     = "userId"
	fieldBookID                     = "bookId"
	fieldBorrowDate                 = "borrowDate"
	fieldDueDate                    = "dueDate"
	fieldReturnDate                 = "returnDate"
	fieldStatus                     = "status"
	fieldActive                     = "active"
	fieldBook                       = "book"
	fieldUser                       = "user"
	fieldActiveBorrowings           = "activeBorrowings"
	defaultTransactionMaxCommitTime = 5 * time.Second
)

// Store is the MongoDB implementation of ledger.Store.
type Store struct {
	db                       *mongo.Database
	booksCollectionName      string
	usersCollectionName      string
	borrowingsCollectionName string
	instrumentation          *instrument.Instrumentation
}

// New creates a new Store on db with optional configuration.
func New(db *mongo.Database, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	s := Store{
		db:                       db,
		booksCollectionName:      defaultBooksCollectionName,
		usersCollectionName:      defaultUsersCollectionName,
		borrowingsCollectionName: defaultBorrowingsCollectionName,
		instrumentation:          &instrument.Instrumentation{Engine: engineName},
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

func (s Store) start(ctx context.Context, operation string, attrs map[string]string) (*instrument.Observation, context.Context) {
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}
	attrs[attrConsistency] = ledger.GetConsistencyLevel(ctx).String()

	return s.instrumentation.Start(ctx, operation, attrs)
}

// collection returns the named collection for writes and strongly consistent reads.
func (s Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// readCollection returns the named collection with the read preference matching the consistency level of ctx.
func (s Store) readCollection(ctx context.Context, name string) *mongo.Collection {
	if ledger.GetConsistencyLevel(ctx) == ledger.EventualConsistency {
		return s.db.Collection(name, options.Collection().SetReadPreference(readpref.SecondaryPreferred()))
	}

	return s.db.Collection(name)
}

func (s Store) books() *mongo.Collection {
	return s.collection(s.booksCollectionName)
}

func (s Store) users() *mongo.Collection {
	return s.collection(s.usersCollectionName)
}

func (s Store) borrowings() *mongo.Collection {
	return s.collection(s.borrowingsCollectionName)
}

// inTx runs fn in a snapshot transaction with majority write concern.
// The driver retries fn on TransientTransactionError, so fn must only assign its results.
// A transient failure that outlives the retries is reported as ErrTransientConflict.
func (s Store) inTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return s.classify(ctx, err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	txOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxCommitTime(ptr(defaultTransactionMaxCommitTime))

	_, txErr := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	}, txOptions)

	return s.classify(ctx, txErr)
}

// logCommand logs one executed command at debug level.
func (s Store) logCommand(ctx context.Context, action, command string, start time.Time) {
	s.instrumentation.LogStatement(ctx, action, command, time.Since(start))
}

func decodeAll[T any](ctx context.Context, s Store, cursor *mongo.Cursor) ([]T, error) {
	defer func() {
		if closeErr := cursor.Close(context.WithoutCancel(ctx)); closeErr != nil {
			s.instrumentation.LogWarn(ctx, logMsgCloseCursorFailed, closeErr)
		}
	}()

	documents := make([]T, 0)
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, s.classify(ctx, errors.Join(ErrDecodingDocumentFailed, err))
	}

	return documents, nil
}

func activeStatuses() bson.A {
	statuses := make(bson.A, 0, len(ledger.ActiveStatuses))
	for _, status := range ledger.ActiveStatuses {
		statuses = append(statuses, string(status))
	}

	return statuses
}

func ptr[T any](v T) *T {
	return &v
}
