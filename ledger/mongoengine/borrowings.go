package mongoengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	opBorrowBook           = "borrow_book"
	opReturnBook           = "return_book"
	opMarkOverdue          = "mark_overdue"
	opListBorrowingsByUser = "list_borrowings_by_user"
	opListBorrowings       = "list_borrowings"
	opAuditInventory       = "audit_inventory"
)

// BorrowBook runs the borrow as one transaction:
// the conditional decrement of the Book counters, the stamp on the User, and the insert of the Borrowing.
func (s Store) BorrowBook(ctx context.Context, borrowing ledger.Borrowing) (ledger.Borrowing, error) {
	obs, ctx := s.start(ctx, opBorrowBook, map[string]string{
		attrBorrowingID: borrowing.ID.String(),
		attrBookID:      borrowing.BookID.String(),
		attrUserID:      borrowing.UserID.String(),
	})

	borrowing.BorrowDate = storedTime(borrowing.BorrowDate)
	borrowing.DueDate = storedTime(borrowing.DueDate)
	borrowing.ReturnDate = storedTimePtr(borrowing.ReturnDate)

	err := borrowing.Validate()
	if err == nil {
		err = s.inTx(ctx, func(sc mongo.SessionContext) error {
			return s.borrowBook(sc, borrowing)
		})
	}

	obs.Finish(err,
		logAttrBorrowingID, borrowing.ID.String(),
		logAttrBookID, borrowing.BookID.String(),
		logAttrUserID, borrowing.UserID.String())

	if err != nil {
		return ledger.Borrowing{}, err
	}

	return borrowing, nil
}

func (s Store) borrowBook(ctx context.Context, borrowing ledger.Borrowing) error {
	start := time.Now()
	decremented, err := s.books().UpdateOne(
		ctx,
		bson.M{fieldID: borrowing.BookID.String(), fieldAvailableCopies: bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{fieldAvailableCopies: -1, fieldBorrowCount: 1}},
	)
	s.logCommand(ctx, opBorrowBook, "update "+s.booksCollectionName, start)

	if err != nil {
		return s.classify(ctx, err)
	}

	if decremented.MatchedCount == 0 {
		if _, getErr := s.getBook(ctx, s.books(), borrowing.BookID); getErr != nil {
			return getErr
		}

		return ledger.ErrBookUnavailable
	}

	start = time.Now()
	stamped, err := s.users().UpdateOne(
		ctx,
		bson.M{fieldID: borrowing.UserID.String()},
		bson.M{"$set": bson.M{fieldLastBorrowedAt: borrowing.BorrowDate}},
	)
	s.logCommand(ctx, opBorrowBook, "update "+s.usersCollectionName, start)

	if err != nil {
		return s.classify(ctx, err)
	}

	if stamped.MatchedCount == 0 {
		return ledger.ErrUserNotFound
	}

	start = time.Now()
	_, err = s.borrowings().InsertOne(ctx, newBorrowingDocument(borrowing))
	s.logCommand(ctx, opBorrowBook, "insert "+s.borrowingsCollectionName, start)

	return s.classify(ctx, err)
}

// ReturnBook runs the return as one transaction: the conditional status transition and the guarded increment.
// When the increment is refused because the counter already equals the total,
// the return is still committed and the error wraps ErrInconsistentState.
func (s Store) ReturnBook(ctx context.Context, id uuid.UUID, returnedAt time.Time) (ledger.Borrowing, error) {
	obs, ctx := s.start(ctx, opReturnBook, map[string]string{
		attrBorrowingID: id.String(),
		attrReturnedAt:  returnedAt.UTC().Format(time.RFC3339Nano),
	})

	var returned ledger.Borrowing
	var clamped bool

	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		var returnErr error
		returned, clamped, returnErr = s.returnBook(sc, id, returnedAt)

		return returnErr
	})

	if err != nil {
		obs.Finish(err, logAttrBorrowingID, id.String())
		return ledger.Borrowing{}, err
	}

	if clamped {
		err = fmt.Errorf(
			"%w: available copies of book %s already at total when returning borrowing %s",
			ledger.ErrInconsistentState, returned.BookID, returned.ID,
		)
	}

	obs.Finish(err, logAttrBorrowingID, id.String(), logAttrBookID, returned.BookID.String())

	return returned, err
}

// returnBook reports clamped when the increment was refused.
func (s Store) returnBook(ctx context.Context, id uuid.UUID, returnedAt time.Time) (ledger.Borrowing, bool, error) {
	var document borrowingDocument

	start := time.Now()
	err := s.borrowings().FindOneAndUpdate(
		ctx,
		bson.M{fieldID: id.String(), fieldStatus: bson.M{"$in": activeStatuses()}},
		bson.M{"$set": bson.M{
			fieldStatus:     string(ledger.StatusReturned),
			fieldReturnDate: storedTime(returnedAt),
			fieldActive:     false,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&document)
	s.logCommand(ctx, opReturnBook, "findAndModify "+s.borrowingsCollectionName, start)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.Borrowing{}, false, s.explainNotReturned(ctx, id)
	}

	if err != nil {
		return ledger.Borrowing{}, false, s.classify(ctx, err)
	}

	returned, err := document.toBorrowing()
	if err != nil {
		return ledger.Borrowing{}, false, err
	}

	start = time.Now()
	incremented, err := s.books().UpdateOne(
		ctx,
		bson.M{
			fieldID: returned.BookID.String(),
			"$expr": bson.M{"$lt": bson.A{"$" + fieldAvailableCopies, "$" + fieldTotalCopies}},
		},
		bson.M{"$inc": bson.M{fieldAvailableCopies: 1}},
	)
	s.logCommand(ctx, opReturnBook, "update "+s.booksCollectionName, start)

	if err != nil {
		return ledger.Borrowing{}, false, s.classify(ctx, err)
	}

	return returned, incremented.MatchedCount == 0, nil
}

// explainNotReturned tells a missing borrowing from one that was returned already.
func (s Store) explainNotReturned(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	count, err := s.borrowings().CountDocuments(ctx, bson.M{fieldID: id.String()})
	s.logCommand(ctx, opReturnBook, "count "+s.borrowingsCollectionName, start)

	switch {
	case err != nil:
		return s.classify(ctx, err)
	case count == 0:
		return ledger.ErrBorrowingNotFound
	default:
		return ledger.ErrAlreadyReturned
	}
}

// MarkOverdue transitions every borrowed Borrowing with a due date before now in one updateMany.
func (s Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	obs, ctx := s.start(ctx, opMarkOverdue, nil)

	start := time.Now()
	result, err := s.borrowings().UpdateMany(
		ctx,
		bson.M{fieldStatus: string(ledger.StatusBorrowed), fieldDueDate: bson.M{"$lt": now}},
		bson.M{"$set": bson.M{fieldStatus: string(ledger.StatusOverdue)}},
	)
	s.logCommand(ctx, opMarkOverdue, "updateMany "+s.borrowingsCollectionName, start)

	var transitioned int64

	if err != nil {
		err = s.classify(ctx, err)
	} else {
		transitioned = result.ModifiedCount
		obs.RecordRowsAffected(transitioned)
	}

	obs.Finish(err, logAttrCount, transitioned)

	return transitioned, err
}

func (s Store) joinedBorrowings(match bson.M, withUser bool) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: newestFirst(fieldBorrowDate)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.booksCollectionName,
			"localField":   fieldBookID,
			"foreignField": fieldID,
			"as":           fieldBook,
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$" + fieldBook, "preserveNullAndEmptyArrays": true}}},
	}

	if withUser {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         s.usersCollectionName,
				"localField":   fieldUserID,
				"foreignField": fieldID,
				"as":           fieldUser,
			}}},
			bson.D{{Key: "$unwind", Value: bson.M{"path": "$" + fieldUser, "preserveNullAndEmptyArrays": true}}},
		)
	}

	return pipeline
}

func (s Store) listBorrowings(ctx context.Context, action string, pipeline mongo.Pipeline) ([]ledger.BorrowingView, error) {
	start := time.Now()
	cursor, err := s.readCollection(ctx, s.borrowingsCollectionName).Aggregate(ctx, pipeline)
	s.logCommand(ctx, action, "aggregate "+s.borrowingsCollectionName, start)

	if err != nil {
		return nil, s.classify(ctx, err)
	}

	documents, err := decodeAll[borrowingViewDocument](ctx, s, cursor)
	if err != nil {
		return nil, err
	}

	views := make([]ledger.BorrowingView, 0, len(documents))

	for _, document := range documents {
		view, convErr := document.toView()
		if convErr != nil {
			return nil, convErr
		}

		views = append(views, view)
	}

	return views, nil
}

// ListBorrowingsByUser returns the user's borrowings joined with their Book, newest first.
func (s Store) ListBorrowingsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.BorrowingView, error) {
	obs, ctx := s.start(ctx, opListBorrowingsByUser, map[string]string{attrUserID: userID.String()})

	views, err := s.listBorrowings(ctx, opListBorrowingsByUser, s.joinedBorrowings(bson.M{fieldUserID: userID.String()}, false))
	obs.Finish(err, logAttrUserID, userID.String(), logAttrCount, len(views))

	return views, err
}

// ListBorrowings returns all borrowings joined with Book and User, newest first.
func (s Store) ListBorrowings(ctx context.Context) ([]ledger.BorrowingView, error) {
	obs, ctx := s.start(ctx, opListBorrowings, nil)

	views, err := s.listBorrowings(ctx, opListBorrowings, s.joinedBorrowings(bson.M{}, true))
	obs.Finish(err, logAttrCount, len(views))

	return views, err
}

// AuditInventory compares the counters of every Book with the number of its active borrowings.
func (s Store) AuditInventory(ctx context.Context) ([]ledger.InventoryDrift, error) {
	obs, ctx := s.start(ctx, opAuditInventory, nil)

	drifts, err := s.auditInventory(ctx)
	obs.Finish(err, logAttrCount, len(drifts))

	return drifts, err
}

func (s Store) auditInventory(ctx context.Context) ([]ledger.InventoryDrift, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         s.borrowingsCollectionName,
			"localField":   fieldID,
			"foreignField": fieldBookID,
			"as":           "loans",
		}}},
		{{Key: "$project", Value: bson.M{
			fieldTotalCopies:      1,
			fieldAvailableCopies:  1,
			fieldActiveBorrowings: bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$loans",
				"as":    "loan",
				"cond":  bson.M{"$eq": bson.A{"$$loan." + fieldActive, true}},
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: fieldID, Value: 1}}}},
	}

	start := time.Now()
	cursor, err := s.books().Aggregate(ctx, pipeline)
	s.logCommand(ctx, opAuditInventory, "aggregate "+s.booksCollectionName, start)

	if err != nil {
		return nil, s.classify(ctx, err)
	}

	documents, err := decodeAll[inventoryDocument](ctx, s, cursor)
	if err != nil {
		return nil, err
	}

	drifts := make([]ledger.InventoryDrift, 0)

	for _, document := range documents {
		bookID, parseErr := parseID(document.ID)
		if parseErr != nil {
			return nil, parseErr
		}

		drift, violated := ledger.CheckInventory(bookID, document.TotalCopies, document.AvailableCopies, document.ActiveBorrowings)
		if violated {
			drifts = append(drifts, drift)
		}
	}

	return drifts, nil
}
