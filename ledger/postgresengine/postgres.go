package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/internal/instrument"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	engineName                   = "postgres"
	dialectPostgres              = "postgres"
	defaultBooksTableName        = "books"
	defaultUsersTableName        = "users"
	defaultBorrowingsTableName   = "borrowings"
	logMsgRollbackFailed         = "failed to roll back transaction"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logAttrBookID                = "book_id"
	logAttrUserID                = "user_id"
	logAttrBorrowingID           = "borrowing_id"
	logAttrCount                 = "count"
	attrBookID                   = "ledger.book_id"
	attrUserID                   = "ledger.user_id"
	attrBorrowingID              = "ledger.borrowing_id"
	attrReturnedAt               = "ledger.returned_at"
	attrConsistency              = "ledger.consistency"
	aliasBooks                   = "bk"
	aliasUsers                   = "u"
	aliasBorrowings              = "br"
	colID                        = "id"
	colTitle                     = "title"
	colAuthor                    = "author"
	colISBN                      = "isbn"
	colGenre                     = "genre"
	colDescription               = "description"
	colTotalCopies               = "total_copies"
	colAvailableCopies           = "available_copies"
	colBorrowCount               = "borrow_count"
	colCreatedAt                 = "created_at"
	colName                      = "name"
	colEmail                     = "email"
	colPasswordHash              = "password_hash"
	colRole                      = "role"
	colUserID                    = "user_id"
	colBookID                    = "book_id"
	colBorrowDate                = "borrow_date"
	colDueDate                   = "due_date"
	colReturnDate                = "return_date"
	colStatus                    = "status"
	exprDecrementAvailableCopies = "available_copies - 1"
	exprIncrementAvailableCopies = "available_copies + 1"
	exprIncrementBorrowCount     = "borrow_count + 1"
)

// Store is the PostgreSQL implementation of ledger.Store.
type Store struct {
	db                  adapters.DBAdapter
	booksTableName      string
	usersTableName      string
	borrowingsTableName string
	instrumentation     *instrument.Instrumentation
}

// sqlBuilder is satisfied by every goqu dataset.
type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// NewFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options)
}

// NewFromPGXPoolWithReplica creates a new Store using a primary and a replica pgx Pool.
// Reads on a context marked with ledger.WithEventualConsistency are served by the replica.
func NewFromPGXPoolWithReplica(primary *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Store, error) {
	if primary == nil || replica == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(primary, replica), options)
}

// NewFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options)
}

// NewFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options)
}

func newStore(db adapters.DBAdapter, options []Option) (Store, error) {
	s := Store{
		db:                  db,
		booksTableName:      defaultBooksTableName,
		usersTableName:      defaultUsersTableName,
		borrowingsTableName: defaultBorrowingsTableName,
		instrumentation:     &instrument.Instrumentation{Engine: engineName},
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (s Store) start(ctx context.Context, operation string, attrs map[string]string) (*instrument.Observation, context.Context) {
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}
	attrs[attrConsistency] = ledger.GetConsistencyLevel(ctx).String()

	return s.instrumentation.Start(ctx, operation, attrs)
}

func (s Store) build(stmt sqlBuilder) (string, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// exec runs a statement and returns the number of rows it affected.
func (s Store) exec(ctx context.Context, q adapters.DBQuerier, action string, stmt sqlBuilder) (int64, error) {
	sqlQuery, err := s.build(stmt)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	result, execErr := q.Exec(ctx, sqlQuery)
	s.instrumentation.LogStatement(ctx, action, sqlQuery, time.Since(start))

	if execErr != nil {
		return 0, s.classify(execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return 0, s.classify(rowsErr)
	}

	return rowsAffected, nil
}

// queryAll runs a query and scans every row. The rows are closed before it returns,
// so the next statement can run on the same transaction.
func queryAll[T any](
	ctx context.Context,
	s Store,
	q adapters.DBQuerier,
	action string,
	stmt sqlBuilder,
	scan func(adapters.DBRows) (T, error),
) ([]T, error) {

	sqlQuery, err := s.build(stmt)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, queryErr := q.Query(ctx, sqlQuery)
	s.instrumentation.LogStatement(ctx, action, sqlQuery, time.Since(start))

	if queryErr != nil {
		return nil, s.classify(queryErr)
	}
	defer s.closeRows(ctx, rows)

	result := make([]T, 0)

	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		result = append(result, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.classify(rowsErr)
	}

	return result, nil
}

// queryOne runs a query and scans the first row, found is false when there is none.
func queryOne[T any](
	ctx context.Context,
	s Store,
	q adapters.DBQuerier,
	action string,
	stmt sqlBuilder,
	scan func(adapters.DBRows) (T, error),
) (T, bool, error) {

	var empty T

	items, err := queryAll(ctx, s, q, action, stmt, scan)
	if err != nil || len(items) == 0 {
		return empty, false, err
	}

	return items[0], true, nil
}

func (s Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.instrumentation.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// inTx runs fn in a transaction on the primary. The transaction is rolled back when fn fails
// or the commit does not happen, also when ctx is canceled in between.
func (s Store) inTx(ctx context.Context, fn func(tx adapters.DBTx) error) error {
	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		return s.classify(beginErr)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.instrumentation.LogWarn(ctx, logMsgRollbackFailed, rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return s.classify(commitErr)
	}

	committed = true

	return nil
}

func scanID(rows adapters.DBRows) (uuid.UUID, error) {
	var id string

	if err := rows.Scan(&id); err != nil {
		return uuid.Nil, errors.Join(ErrScanningDBRowFailed, err)
	}

	return parseID(id)
}

func scanCount(rows adapters.DBRows) (int64, error) {
	var count int64

	if err := rows.Scan(&count); err != nil {
		return 0, errors.Join(ErrScanningDBRowFailed, err)
	}

	return count, nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(ErrScanningDBRowFailed, err)
	}

	return id, nil
}

func activeStatuses() []any {
	statuses := make([]any, 0, len(ledger.ActiveStatuses))
	for _, status := range ledger.ActiveStatuses {
		statuses = append(statuses, string(status))
	}

	return statuses
}
