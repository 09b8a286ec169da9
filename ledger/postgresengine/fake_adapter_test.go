package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine/internal/adapters"
)

// scriptedStep is the canned answer to one statement. The statement must contain match.
type scriptedStep struct {
	match    string
	rows     [][]any
	affected int64
	err      error
}

// fakeDB is a DBAdapter that answers statements in script order and records what happened.
type fakeDB struct {
	mu         sync.Mutex
	script     []scriptedStep
	statements []string
	committed  bool
	rolledBack bool
}

func newFakeDB(script ...scriptedStep) *fakeDB {
	return &fakeDB{script: script}
}

func (f *fakeDB) next(query string) (scriptedStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statements = append(f.statements, query)

	if len(f.script) == 0 {
		return scriptedStep{}, fmt.Errorf("unexpected statement: %s", query)
	}

	step := f.script[0]
	f.script = f.script[1:]

	if !strings.Contains(query, step.match) {
		return scriptedStep{}, fmt.Errorf("statement %q does not contain %q", query, step.match)
	}

	return step, nil
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	step, err := f.next(query)
	if err != nil {
		return nil, err
	}

	if step.err != nil {
		return nil, step.err
	}

	return &fakeRows{rows: step.rows, index: -1}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	step, err := f.next(query)
	if err != nil {
		return nil, err
	}

	if step.err != nil {
		return nil, step.err
	}

	return fakeResult(step.affected), nil
}

func (f *fakeDB) BeginTx(_ context.Context) (adapters.DBTx, error) {
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.script)
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Query(ctx context.Context, query string) (adapters.DBRows, error) {
	return t.db.Query(ctx, query)
}

func (t *fakeTx) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	return t.db.Exec(ctx, query)
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.committed = true

	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rolledBack = true

	return nil
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) {
	return int64(r), nil
}

type fakeRows struct {
	rows  [][]any
	index int
}

func (r *fakeRows) Next() bool {
	r.index++
	return r.index < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.index]
	if len(row) != len(dest) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}

	for i, value := range row {
		if err := assign(dest[i], value); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

func assign(dest, value any) error {
	switch d := dest.(type) {
	case *string:
		*d = value.(string)
	case *int:
		*d = value.(int)
	case *int64:
		*d = value.(int64)
	case *time.Time:
		*d = value.(time.Time)
	case sql.Scanner:
		return d.Scan(value)
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}

	return nil
}

func storeWithFake(db *fakeDB, options ...Option) Store {
	store, err := newStore(db, options)
	if err != nil {
		panic(err)
	}

	return store
}
