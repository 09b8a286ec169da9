package postgresengine

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	pgCodeUniqueViolation      = "23505"
	pgCodeCheckViolation       = "23514"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeTooManyConnections   = "53300"
	pgCodeAdminShutdown        = "57P01"
	pgCodeCrashShutdown        = "57P02"
	pgCodeCannotConnectNow     = "57P03"
	pgClassConnectionException = "08"
)

var (
	// ErrBuildingQueryFailed is returned when goqu fails to render a statement.
	ErrBuildingQueryFailed = errors.New("building the sql statement failed")

	// ErrScanningDBRowFailed is returned when a result row does not match the expected columns.
	ErrScanningDBRowFailed = errors.New("scanning a database row failed")
)

// pgError is the driver-independent view of a PostgreSQL error.
type pgError struct {
	code       string
	constraint string
}

func asPGError(err error) (pgError, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgError{code: pgxErr.Code, constraint: pgxErr.ConstraintName}, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgError{code: string(pqErr.Code), constraint: pqErr.Constraint}, true
	}

	return pgError{}, false
}

// classify maps a driver error to the ledger error taxonomy, keeping the original error in the chain.
// Context errors are returned unchanged.
func (s Store) classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if ledger.IsDomainError(err) || errors.Is(err, ledger.ErrTransientConflict) || errors.Is(err, ledger.ErrStorageUnavailable) {
		return err
	}

	if pgErr, ok := asPGError(err); ok {
		switch {
		case pgErr.code == pgCodeUniqueViolation:
			return errors.Join(s.uniqueViolation(pgErr.constraint), err)

		case pgErr.code == pgCodeCheckViolation:
			return errors.Join(ledger.ErrInconsistentState, err)

		case pgErr.code == pgCodeSerializationFailure, pgErr.code == pgCodeDeadlockDetected:
			return errors.Join(ledger.ErrTransientConflict, err)

		case strings.HasPrefix(pgErr.code, pgClassConnectionException),
			pgErr.code == pgCodeTooManyConnections,
			pgErr.code == pgCodeAdminShutdown,
			pgErr.code == pgCodeCrashShutdown,
			pgErr.code == pgCodeCannotConnectNow:
			return errors.Join(ledger.ErrStorageUnavailable, err)
		}

		return err
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, pq.ErrSSLNotSupported) {
		return errors.Join(ledger.ErrStorageUnavailable, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errors.Join(ledger.ErrStorageUnavailable, err)
	}

	return err
}

func (s Store) uniqueViolation(constraint string) error {
	switch constraint {
	case s.isbnConstraint():
		return ledger.ErrDuplicateISBN
	case s.emailConstraint():
		return ledger.ErrDuplicateEmail
	case s.activeLoanIndex():
		return ledger.ErrAlreadyBorrowed
	default:
		return ledger.ErrInconsistentState
	}
}
