package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	opBorrowBook           = "borrow_book"
	opReturnBook           = "return_book"
	opMarkOverdue          = "mark_overdue"
	opListBorrowingsByUser = "list_borrowings_by_user"
	opListBorrowings       = "list_borrowings"
	opAuditInventory       = "audit_inventory"
)

func borrowingColumns(qualifier string) []any {
	columns := []string{colID, colUserID, colBookID, colBorrowDate, colDueDate, colReturnDate, colStatus}

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

// borrowingRow holds the scan targets of borrowingColumns.
type borrowingRow struct {
	id, userID, bookID string
	borrowDate         time.Time
	dueDate            time.Time
	returnDate         sql.NullTime
	status             string
}

func (r *borrowingRow) targets() []any {
	return []any{&r.id, &r.userID, &r.bookID, &r.borrowDate, &r.dueDate, &r.returnDate, &r.status}
}

func (r *borrowingRow) toBorrowing() (ledger.Borrowing, error) {
	ids := make([]uuid.UUID, 3)

	for i, raw := range []string{r.id, r.userID, r.bookID} {
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
		BorrowDate: r.borrowDate.UTC(),
		DueDate:    r.dueDate.UTC(),
		Status:     ledger.BorrowingStatus(r.status),
	}

	if r.returnDate.Valid {
		returnDate := r.returnDate.Time.UTC()
		borrowing.ReturnDate = &returnDate
	}

	return borrowing, nil
}

func scanBorrowing(rows adapters.DBRows) (ledger.Borrowing, error) {
	var row borrowingRow

	if err := rows.Scan(row.targets()...); err != nil {
		return ledger.Borrowing{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	return row.toBorrowing()
}

func scanStatus(rows adapters.DBRows) (ledger.BorrowingStatus, error) {
	var status string

	if err := rows.Scan(&status); err != nil {
		return "", errors.Join(ErrScanningDBRowFailed, err)
	}

	return ledger.BorrowingStatus(status), nil
}

// BorrowBook runs the borrow as one transaction:
// the conditional decrement of the Book counters, the share lock on the User, and the insert of the Borrowing.
func (s Store) BorrowBook(ctx context.Context, borrowing ledger.Borrowing) (ledger.Borrowing, error) {
	obs, ctx := s.start(ctx, opBorrowBook, map[string]string{
		attrBorrowingID: borrowing.ID.String(),
		attrBookID:      borrowing.BookID.String(),
		attrUserID:      borrowing.UserID.String(),
	})

	err := borrowing.Validate()
	if err == nil {
		err = s.inTx(ctx, func(tx adapters.DBTx) error {
			return s.borrowBook(ctx, tx, borrowing)
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

func (s Store) borrowBook(ctx context.Context, tx adapters.DBTx, borrowing ledger.Borrowing) error {
	decrementStmt := builder().Update(s.booksTableName).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(exprDecrementAvailableCopies),
			colBorrowCount:     goqu.L(exprIncrementBorrowCount),
		}).
		Where(
			goqu.C(colID).Eq(borrowing.BookID.String()),
			goqu.C(colAvailableCopies).Gt(0),
		)

	decremented, err := s.exec(ctx, tx, opBorrowBook, decrementStmt)
	if err != nil {
		return err
	}

	if decremented == 0 {
		if _, getErr := s.getBook(ctx, tx, borrowing.BookID); getErr != nil {
			return getErr
		}

		return ledger.ErrBookUnavailable
	}

	userStmt := builder().From(s.usersTableName).
		Select(goqu.C(colID)).
		Where(goqu.C(colID).Eq(borrowing.UserID.String())).
		ForShare(goqu.Wait)

	_, userFound, userErr := queryOne(ctx, s, tx, opBorrowBook, userStmt, scanID)
	if userErr != nil {
		return userErr
	}

	if !userFound {
		return ledger.ErrUserNotFound
	}

	insertStmt := builder().Insert(s.borrowingsTableName).Rows(goqu.Record{
		colID:         borrowing.ID.String(),
		colUserID:     borrowing.UserID.String(),
		colBookID:     borrowing.BookID.String(),
		colBorrowDate: borrowing.BorrowDate,
		colDueDate:    borrowing.DueDate,
		colStatus:     string(borrowing.Status),
	})

	_, insertErr := s.exec(ctx, tx, opBorrowBook, insertStmt)

	return insertErr
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

	err := s.inTx(ctx, func(tx adapters.DBTx) error {
		var returnErr error
		returned, clamped, returnErr = s.returnBook(ctx, tx, id, returnedAt)

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
func (s Store) returnBook(
	ctx context.Context,
	tx adapters.DBTx,
	id uuid.UUID,
	returnedAt time.Time,
) (ledger.Borrowing, bool, error) {

	transitionStmt := builder().Update(s.borrowingsTableName).
		Set(goqu.Record{
			colStatus:     string(ledger.StatusReturned),
			colReturnDate: returnedAt,
		}).
		Where(
			goqu.C(colID).Eq(id.String()),
			goqu.C(colStatus).In(activeStatuses()...),
		).
		Returning(borrowingColumns("")...)

	returned, found, err := queryOne(ctx, s, tx, opReturnBook, transitionStmt, scanBorrowing)
	if err != nil {
		return ledger.Borrowing{}, false, err
	}

	if !found {
		statusStmt := builder().From(s.borrowingsTableName).
			Select(goqu.C(colStatus)).
			Where(goqu.C(colID).Eq(id.String()))

		_, exists, statusErr := queryOne(ctx, s, tx, opReturnBook, statusStmt, scanStatus)
		if statusErr != nil {
			return ledger.Borrowing{}, false, statusErr
		}

		if !exists {
			return ledger.Borrowing{}, false, ledger.ErrBorrowingNotFound
		}

		return ledger.Borrowing{}, false, ledger.ErrAlreadyReturned
	}

	incrementStmt := builder().Update(s.booksTableName).
		Set(goqu.Record{colAvailableCopies: goqu.L(exprIncrementAvailableCopies)}).
		Where(
			goqu.C(colID).Eq(returned.BookID.String()),
			goqu.C(colAvailableCopies).Lt(goqu.I(colTotalCopies)),
		)

	incremented, incrementErr := s.exec(ctx, tx, opReturnBook, incrementStmt)
	if incrementErr != nil {
		return ledger.Borrowing{}, false, incrementErr
	}

	return returned, incremented == 0, nil
}

// MarkOverdue transitions every borrowed Borrowing with a due date before now in one statement.
func (s Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	obs, ctx := s.start(ctx, opMarkOverdue, nil)

	stmt := builder().Update(s.borrowingsTableName).
		Set(goqu.Record{colStatus: string(ledger.StatusOverdue)}).
		Where(
			goqu.C(colStatus).Eq(string(ledger.StatusBorrowed)),
			goqu.C(colDueDate).Lt(now),
		)

	transitioned, err := s.exec(ctx, s.db, opMarkOverdue, stmt)
	if err == nil {
		obs.RecordRowsAffected(transitioned)
	}

	obs.Finish(err, logAttrCount, transitioned)

	return transitioned, err
}

// joinedRow holds the scan targets of a borrowing joined with its book and optionally its user.
type joinedRow struct {
	borrowingRow
	bookID, bookTitle, bookAuthor, bookISBN, bookGenre sql.NullString
	userID, userName, userEmail                        sql.NullString
}

func (s Store) joinedBorrowings(withUser bool) *goqu.SelectDataset {
	columns := borrowingColumns(aliasBorrowings)
	for _, column := range []string{colID, colTitle, colAuthor, colISBN, colGenre} {
		columns = append(columns, goqu.I(aliasBooks+"."+column))
	}

	stmt := builder().From(goqu.T(s.borrowingsTableName).As(aliasBorrowings)).
		LeftJoin(
			goqu.T(s.booksTableName).As(aliasBooks),
			goqu.On(goqu.I(aliasBooks+"."+colID).Eq(goqu.I(aliasBorrowings+"."+colBookID))),
		)

	if withUser {
		for _, column := range []string{colID, colName, colEmail} {
			columns = append(columns, goqu.I(aliasUsers+"."+column))
		}

		stmt = stmt.LeftJoin(
			goqu.T(s.usersTableName).As(aliasUsers),
			goqu.On(goqu.I(aliasUsers+"."+colID).Eq(goqu.I(aliasBorrowings+"."+colUserID))),
		)
	}

	return stmt.Select(columns...).
		Order(goqu.I(aliasBorrowings+"."+colBorrowDate).Desc(), goqu.I(aliasBorrowings+"."+colID).Desc())
}

func scanJoined(withUser bool) func(adapters.DBRows) (ledger.BorrowingView, error) {
	return func(rows adapters.DBRows) (ledger.BorrowingView, error) {
		var row joinedRow

		targets := append(row.targets(), &row.bookID, &row.bookTitle, &row.bookAuthor, &row.bookISBN, &row.bookGenre)
		if withUser {
			targets = append(targets, &row.userID, &row.userName, &row.userEmail)
		}

		if err := rows.Scan(targets...); err != nil {
			return ledger.BorrowingView{}, errors.Join(ErrScanningDBRowFailed, err)
		}

		borrowing, err := row.toBorrowing()
		if err != nil {
			return ledger.BorrowingView{}, err
		}

		view := ledger.BorrowingView{Borrowing: borrowing}

		if row.bookID.Valid {
			view.Book = &ledger.BookSummary{
				ID:     borrowing.BookID,
				Title:  row.bookTitle.String,
				Author: row.bookAuthor.String,
				ISBN:   row.bookISBN.String,
				Genre:  row.bookGenre.String,
			}
		}

		if row.userID.Valid {
			view.User = &ledger.UserSummary{
				ID:    borrowing.UserID,
				Name:  row.userName.String,
				Email: row.userEmail.String,
			}
		}

		return view, nil
	}
}

// ListBorrowingsByUser returns the user's borrowings joined with their Book, newest first.
func (s Store) ListBorrowingsByUser(ctx context.Context, userID uuid.UUID) ([]ledger.BorrowingView, error) {
	obs, ctx := s.start(ctx, opListBorrowingsByUser, map[string]string{attrUserID: userID.String()})

	stmt := s.joinedBorrowings(false).
		Where(goqu.I(aliasBorrowings + "." + colUserID).Eq(userID.String()))

	views, err := queryAll(ctx, s, s.db, opListBorrowingsByUser, stmt, scanJoined(false))
	obs.Finish(err, logAttrUserID, userID.String(), logAttrCount, len(views))

	return views, err
}

// ListBorrowings returns all borrowings joined with Book and User, newest first.
func (s Store) ListBorrowings(ctx context.Context) ([]ledger.BorrowingView, error) {
	obs, ctx := s.start(ctx, opListBorrowings, nil)

	views, err := queryAll(ctx, s, s.db, opListBorrowings, s.joinedBorrowings(true), scanJoined(true))
	obs.Finish(err, logAttrCount, len(views))

	return views, err
}

type inventoryRow struct {
	bookID           uuid.UUID
	totalCopies      int
	availableCopies  int
	activeBorrowings int
}

func scanInventory(rows adapters.DBRows) (inventoryRow, error) {
	var row inventoryRow
	var id string

	if err := rows.Scan(&id, &row.totalCopies, &row.availableCopies, &row.activeBorrowings); err != nil {
		return inventoryRow{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	parsed, err := parseID(id)
	if err != nil {
		return inventoryRow{}, err
	}

	row.bookID = parsed

	return row, nil
}

// AuditInventory compares the counters of every Book with the number of its active borrowings.
func (s Store) AuditInventory(ctx context.Context) ([]ledger.InventoryDrift, error) {
	obs, ctx := s.start(ctx, opAuditInventory, nil)

	stmt := builder().From(goqu.T(s.booksTableName).As(aliasBooks)).
		LeftJoin(
			goqu.T(s.borrowingsTableName).As(aliasBorrowings),
			goqu.On(
				goqu.I(aliasBorrowings+"."+colBookID).Eq(goqu.I(aliasBooks+"."+colID)),
				goqu.I(aliasBorrowings+"."+colStatus).In(activeStatuses()...),
			),
		).
		Select(
			goqu.I(aliasBooks+"."+colID),
			goqu.I(aliasBooks+"."+colTotalCopies),
			goqu.I(aliasBooks+"."+colAvailableCopies),
			goqu.COUNT(goqu.I(aliasBorrowings+"."+colID)),
		).
		GroupBy(goqu.I(aliasBooks + "." + colID)).
		Order(goqu.I(aliasBooks + "." + colID).Asc())

	rows, err := queryAll(ctx, s, s.db, opAuditInventory, stmt, scanInventory)
	if err != nil {
		obs.Finish(err)
		return nil, err
	}

	drifts := make([]ledger.InventoryDrift, 0)

	for _, row := range rows {
		if drift, violated := ledger.CheckInventory(row.bookID, row.totalCopies, row.availableCopies, row.activeBorrowings); violated {
			drifts = append(drifts, drift)
		}
	}

	obs.Finish(nil, logAttrCount, len(drifts))

	return drifts, nil
}
