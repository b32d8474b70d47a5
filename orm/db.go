package orm

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier runs statements for a Query. *DB and *Tx implement it; the
// dialect method keeps other implementations inside this package.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	dialect() Dialect
}

// Logger sees every statement before it is sent.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// session is what a DB hands down to its transactions.
type session struct {
	d   Dialect
	log Logger
}

func (s session) trace(ctx context.Context, query string, args []any) {
	if s.log != nil {
		s.log.Log(ctx, query, args...)
	}
}

func (s session) dialect() Dialect { return s.d }

// DB is a connection pool speaking one Dialect.
type DB struct {
	session
	raw *sql.DB
}

func New(db *sql.DB, d Dialect) *DB {
	return &DB{session: session{d: d}, raw: db}
}

// Debug returns a DB sharing the pool with db whose statements, and those
// of its transactions, go to l. db itself is unchanged.
func (db *DB) Debug(l Logger) *DB {
	return &DB{session: session{d: db.d, log: l}, raw: db.raw}
}

// Dialect returns the dialect the DB was opened with.
func (db *DB) Dialect() Dialect { return db.d }

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db.trace(ctx, query, args)
	return db.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db.trace(ctx, query, args)
	return db.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.raw.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("orm: begin: %w", err)
	}
	return &Tx{session: db.session, raw: tx}, nil
}

// Transaction runs fn in a transaction, committing when fn returns nil and
// rolling back when it fails or panics.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("orm: commit: %w", err)
	}
	return nil
}

func (db *DB) PingContext(ctx context.Context) error { return db.raw.PingContext(ctx) } //nolint:wrapcheck // thin wrapper

func (db *DB) Close() error { return db.raw.Close() } //nolint:wrapcheck // thin wrapper

// Tx is a transaction started by DB.Begin or DB.Transaction.
type Tx struct {
	session
	raw *sql.Tx
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx.trace(ctx, query, args)
	return tx.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx.trace(ctx, query, args)
	return tx.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (tx *Tx) Commit() error { return tx.raw.Commit() } //nolint:wrapcheck // thin wrapper

func (tx *Tx) Rollback() error { return tx.raw.Rollback() } //nolint:wrapcheck // thin wrapper
