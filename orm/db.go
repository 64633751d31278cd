package orm

import (
	"context"
	"database/sql"
)

// Querier is implemented by DB and Tx. Generated query factories and
// association helpers accept a Querier so they run inside or outside a
// transaction alike.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	dialect() Dialect
}

// Logger receives every statement before it is sent to the database.
type Logger interface {
	Log(ctx context.Context, query string, args ...any)
}

// session is the state a Tx inherits from the DB that began it.
type session struct {
	d      Dialect
	logger Logger
}

func (s session) dialect() Dialect { return s.d }

func (s session) log(ctx context.Context, query string, args []any) {
	if s.logger != nil {
		s.logger.Log(ctx, query, args...)
	}
}

// DB wraps *sql.DB with a Dialect and satisfies Querier.
type DB struct {
	session
	raw *sql.DB
}

// New wraps a *sql.DB with the given Dialect.
func New(db *sql.DB, d Dialect) *DB {
	return &DB{session: session{d: d}, raw: db}
}

// Debug returns a copy of db that passes every statement to l, including
// those of transactions it begins. db itself is unchanged.
func (db *DB) Debug(l Logger) *DB {
	return &DB{session: session{d: db.d, logger: l}, raw: db.raw}
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db.log(ctx, query, args)
	return db.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db.log(ctx, query, args)
	return db.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

// Begin starts a transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.raw.BeginTx(ctx, nil)
	if err != nil {
		return nil, err //nolint:wrapcheck // thin wrapper
	}
	return &Tx{session: db.session, raw: tx}, nil
}

// Transaction runs fn in a transaction, committing when fn returns nil
// and rolling back when it returns an error or panics.
func (db *DB) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying *sql.DB.
func (db *DB) Close() error { return db.raw.Close() } //nolint:wrapcheck // thin wrapper

// Tx wraps *sql.Tx and satisfies Querier.
type Tx struct {
	session
	raw *sql.Tx
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	tx.log(ctx, query, args)
	return tx.raw.QueryContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx.log(ctx, query, args)
	return tx.raw.ExecContext(ctx, query, args...) //nolint:wrapcheck // thin wrapper
}

// Commit commits the transaction.
func (tx *Tx) Commit() error { return tx.raw.Commit() } //nolint:wrapcheck // thin wrapper

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error { return tx.raw.Rollback() } //nolint:wrapcheck // thin wrapper
