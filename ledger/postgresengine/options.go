package postgresengine

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTableNames sets the table names for books, users and borrowings.
func WithTableNames(books, users, borrowings string) Option {
	return func(s *Store) error {
		if books == "" || users == "" || borrowings == "" {
			return ledger.ErrEmptyTableName
		}

		s.booksTableName = books
		s.usersTableName = users
		s.borrowingsTableName = borrowings

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Operation outcomes and durations, rejected operations (production-safe)
// Warn level: Non-critical issues like rollback failures
// Error level: Critical failures and detected inconsistencies.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Store) error {
		s.instrumentation.Logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives operation durations, call and error counters, and rows affected.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(s *Store) error {
		s.instrumentation.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// Every Store operation becomes one span named "ledger.<operation>".
func WithTracing(collector ledger.TracingCollector) Option {
	return func(s *Store) error {
		s.instrumentation.Tracing = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It takes precedence over WithLogger and correlates log records with the active trace.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(s *Store) error {
		s.instrumentation.ContextualLogger = logger
		return nil
	}
}
