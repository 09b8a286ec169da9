package pgtesthelpers

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine"
)

const (
	EnvTestDSN     = "LIBRARY_TEST_POSTGRES_DSN"
	EnvAdapterType = "ADAPTER_TYPE"

	AdapterPGXPool = "pgx.pool"
	AdapterSQLDB   = "sql.db"
	AdapterSQLX    = "sqlx.db"

	defaultMaxConnections = 20
	defaultConnectTimeout = 5 * time.Second
)

// TestDSN returns the DSN of the test database or skips the test.
func TestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvTestDSN)
	}

	return dsn
}

// AdapterType returns the adapter selected with ADAPTER_TYPE, pgx.pool if none is set.
func AdapterType() string {
	if adapterType := os.Getenv(EnvAdapterType); adapterType != "" {
		return adapterType
	}

	return AdapterPGXPool
}

// NewPGXPool opens a pgx.Pool on the test database that is closed with t.
func NewPGXPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbConfig, err := pgxpool.ParseConfig(TestDSN(t))
	require.NoError(t, err)

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(context.Background()))

	return pool
}

// NewSQLDB opens a sql.DB on the test database that is closed with t.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", TestDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(defaultMaxConnections)
	require.NoError(t, db.PingContext(context.Background()))

	return db
}

// NewSQLX opens a sqlx.DB on the test database that is closed with t.
func NewSQLX(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("postgres", TestDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(defaultMaxConnections)
	require.NoError(t, db.PingContext(context.Background()))

	return db
}

// UniqueTableNames returns books, users and borrowings table names no other test uses.
func UniqueTableNames() (string, string, string) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	return "books_" + suffix, "users_" + suffix, "borrowings_" + suffix
}

// NewStore creates a migrated Store on fresh tables with the adapter selected by ADAPTER_TYPE.
// The tables are dropped and the connection is closed with t.
func NewStore(t *testing.T, options ...postgresengine.Option) postgresengine.Store {
	t.Helper()

	books, users, borrowings := UniqueTableNames()
	options = append([]postgresengine.Option{postgresengine.WithTableNames(books, users, borrowings)}, options...)

	var store postgresengine.Store
	var err error

	switch AdapterType() {
	case AdapterSQLDB:
		store, err = postgresengine.NewFromSQLDB(NewSQLDB(t), options...)
	case AdapterSQLX:
		store, err = postgresengine.NewFromSQLX(NewSQLX(t), options...)
	default:
		store, err = postgresengine.NewFromPGXPool(NewPGXPool(t), options...)
	}

	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		if dropErr := store.DropTables(context.Background()); dropErr != nil {
			t.Logf("dropping test tables failed: %v", dropErr)
		}
	})

	return store
}
