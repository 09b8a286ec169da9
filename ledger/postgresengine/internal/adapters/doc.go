// Package adapters provide database adapter implementations for the PostgreSQL ledger store.
//
// Three PostgreSQL libraries are supported behind one DBAdapter interface: pgxpool.Pool, sql.DB and sqlx.DB.
// Every adapter can open a transaction on the primary database, the pgx adapter can additionally
// route eventually consistent reads to a replica pool.
package adapters
