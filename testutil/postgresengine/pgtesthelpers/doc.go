// Package pgtesthelpers provides test utilities for running the PostgreSQL ledger Store against a real database.
//
// The adapter under test is selected with the ADAPTER_TYPE environment variable:
//
//	pgx.pool: wraps pgx.Pool (default)
//	sql.db:   wraps database/sql with the lib/pq driver
//	sqlx.db:  wraps sqlx.DB with the lib/pq driver
//
// Tests are skipped unless LIBRARY_TEST_POSTGRES_DSN is set. Every Store gets its own tables,
// so tests can run in parallel against one database, and the tables are dropped on cleanup.
package pgtesthelpers
