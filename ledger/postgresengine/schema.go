package postgresengine

import (
	"context"
	"fmt"
	"time"
)

const (
	logActionMigrate = "migrate"
	logActionDrop    = "drop"
)

func (s Store) isbnConstraint() string {
	return s.booksTableName + "_isbn_key"
}

func (s Store) emailConstraint() string {
	return s.usersTableName + "_email_key"
}

func (s Store) activeLoanIndex() string {
	return s.borrowingsTableName + "_one_active_loan_idx"
}

// schemaStatements renders the DDL for the configured table names.
// Borrowings carry no foreign keys so that the ledger survives the deletion of returned books and users.
func (s Store) schemaStatements() []string {
	books, users, borrowings := s.booksTableName, s.usersTableName, s.borrowingsTableName

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
    id               uuid PRIMARY KEY,
    title            text NOT NULL,
    author           text NOT NULL,
    isbn             text NOT NULL,
    genre            text NOT NULL,
    description      text NOT NULL DEFAULT '',
    total_copies     integer NOT NULL,
    available_copies integer NOT NULL,
    borrow_count     integer NOT NULL DEFAULT 0,
    created_at       timestamp with time zone NOT NULL,
    CONSTRAINT %[2]s UNIQUE (isbn),
    CONSTRAINT %[1]s_total_copies_check CHECK (total_copies >= 1),
    CONSTRAINT %[1]s_available_copies_check CHECK (available_copies >= 0 AND available_copies <= total_copies),
    CONSTRAINT %[1]s_borrow_count_check CHECK (borrow_count >= 0)
)`, books, s.isbnConstraint()),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_created_at_idx ON %[1]s (created_at DESC, id DESC)`, books),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
    id            uuid PRIMARY KEY,
    name          text NOT NULL,
    email         text NOT NULL,
    password_hash text NOT NULL,
    role          text NOT NULL,
    created_at    timestamp with time zone NOT NULL,
    CONSTRAINT %[2]s UNIQUE (email),
    CONSTRAINT %[1]s_role_check CHECK (role IN ('student', 'librarian', 'admin'))
)`, users, s.emailConstraint()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
    id          uuid PRIMARY KEY,
    user_id     uuid NOT NULL,
    book_id     uuid NOT NULL,
    borrow_date timestamp with time zone NOT NULL,
    due_date    timestamp with time zone NOT NULL,
    return_date timestamp with time zone,
    status      text NOT NULL,
    CONSTRAINT %[1]s_status_check CHECK (status IN ('borrowed', 'overdue', 'returned')),
    CONSTRAINT %[1]s_return_date_check CHECK ((status = 'returned') = (return_date IS NOT NULL))
)`, borrowings),

		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %[2]s ON %[1]s (user_id, book_id) WHERE status IN ('borrowed', 'overdue')`,
			borrowings, s.activeLoanIndex()),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_user_borrow_date_idx ON %[1]s (user_id, borrow_date DESC, id DESC)`, borrowings),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_active_book_idx ON %[1]s (book_id) WHERE status IN ('borrowed', 'overdue')`, borrowings),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_due_date_idx ON %[1]s (due_date) WHERE status = 'borrowed'`, borrowings),
	}
}

// Migrate creates the tables and indexes if they do not exist yet. It is idempotent.
func (s Store) Migrate(ctx context.Context) error {
	for _, statement := range s.schemaStatements() {
		start := time.Now()
		_, err := s.db.Exec(ctx, statement)
		s.instrumentation.LogStatement(ctx, logActionMigrate, statement, time.Since(start))

		if err != nil {
			return s.classify(err)
		}
	}

	return nil
}

// DropTables removes the ledger tables. It exists for test cleanup and the CLI reset.
func (s Store) DropTables(ctx context.Context) error {
	statement := fmt.Sprintf("DROP TABLE IF EXISTS %s, %s, %s", s.borrowingsTableName, s.booksTableName, s.usersTableName)

	start := time.Now()
	_, err := s.db.Exec(ctx, statement)
	s.instrumentation.LogStatement(ctx, logActionDrop, statement, time.Since(start))

	return s.classify(err)
}
