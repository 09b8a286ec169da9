package mongoengine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	indexBooksISBN         = "books_isbn_unique"
	indexBooksCreatedAt    = "books_created_at_desc"
	indexUsersEmail        = "users_email_unique"
	indexUsersCreatedAt    = "users_created_at_desc"
	indexOneActiveLoan     = "borrowings_one_active_loan"
	indexBorrowingsByUser  = "borrowings_user_borrow_date"
	indexBorrowingsByBook  = "borrowings_book_active"
	indexBorrowingsOverdue = "borrowings_status_due_date"

	logActionMigrate = "migrate"
	logActionDrop    = "drop"
)

func (s Store) indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		s.booksCollectionName: {
			{Keys: bson.D{{Key: fieldISBN, Value: 1}}, Options: options.Index().SetName(indexBooksISBN).SetUnique(true)},
			{Keys: bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: -1}}, Options: options.Index().SetName(indexBooksCreatedAt)},
		},
		s.usersCollectionName: {
			{Keys: bson.D{{Key: fieldEmail, Value: 1}}, Options: options.Index().SetName(indexUsersEmail).SetUnique(true)},
			{Keys: bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: -1}}, Options: options.Index().SetName(indexUsersCreatedAt)},
		},
		s.borrowingsCollectionName: {
			{
				Keys:    bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldBookID, Value: 1}},
				Options: options.Index().
					SetName(indexOneActiveLoan).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{fieldActive: true}),
			},
			{Keys: bson.D{{Key: fieldUserID, Value: 1}, {Key: fieldBorrowDate, Value: -1}}, Options: options.Index().SetName(indexBorrowingsByUser)},
			{Keys: bson.D{{Key: fieldBookID, Value: 1}, {Key: fieldActive, Value: 1}}, Options: options.Index().SetName(indexBorrowingsByBook)},
			{Keys: bson.D{{Key: fieldStatus, Value: 1}, {Key: fieldDueDate, Value: 1}}, Options: options.Index().SetName(indexBorrowingsOverdue)},
		},
	}
}

// Migrate creates the collections' indexes if they do not exist yet. It is idempotent.
func (s Store) Migrate(ctx context.Context) error {
	for collection, models := range s.indexModels() {
		start := time.Now()
		_, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models)
		s.instrumentation.LogStatement(ctx, logActionMigrate, "createIndexes "+collection, time.Since(start))

		if err != nil {
			return s.classify(ctx, err)
		}
	}

	return nil
}

// DropCollections removes the ledger collections. It exists for test cleanup and the CLI reset.
func (s Store) DropCollections(ctx context.Context) error {
	for _, collection := range []string{s.borrowingsCollectionName, s.booksCollectionName, s.usersCollectionName} {
		start := time.Now()
		err := s.db.Collection(collection).Drop(ctx)
		s.instrumentation.LogStatement(ctx, logActionDrop, "drop "+collection, time.Since(start))

		if err != nil {
			return s.classify(ctx, err)
		}
	}

	return nil
}
