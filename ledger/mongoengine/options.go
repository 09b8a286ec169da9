package mongoengine

import (
	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithCollectionNames sets the collection names for books, users and borrowings.
func WithCollectionNames(books, users, borrowings string) Option {
	return func(s *Store) error {
		if books == "" || users == "" || borrowings == "" {
			return ledger.ErrEmptyTableName
		}

		s.booksCollectionName = books
		s.usersCollectionName = users
		s.borrowingsCollectionName = borrowings

		return nil
	}
}

// WithLogger sets the logger for the Store.
// Commands are logged at Debug, outcomes at Info, cleanup problems at Warn, failures at Error.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Store) error {
		s.instrumentation.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store. It takes precedence over WithLogger.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(s *Store) error {
		s.instrumentation.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(s *Store) error {
		s.instrumentation.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(s *Store) error {
		s.instrumentation.Tracing = collector
		return nil
	}
}
