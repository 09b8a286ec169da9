// Package postgresengine provides a PostgreSQL implementation of ledger.Store.
//
// Statements are built with goqu and run through one of three adapters (pgxpool.Pool, sql.DB, sqlx.DB).
// Multistep operations run in a single transaction with conditional updates, so the copy counters
// can never go negative or exceed the total under concurrent borrowing:
//
//	UPDATE books SET available_copies = available_copies - 1 WHERE id = $1 AND available_copies > 0
//
// A partial unique index enforces at most one active loan per user and book.
// Driver errors are classified into the ledger error taxonomy, see ledger.ErrorCode.
//
// With NewFromPGXPoolWithReplica, reads on a context marked with ledger.WithEventualConsistency
// go to the replica. Everything else runs on the primary.
package postgresengine
