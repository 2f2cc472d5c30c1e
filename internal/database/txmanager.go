// Package database provides database connection management and transaction utilities.
package database

import (
	"context"
	"database/sql"
	"time"
)

// txKey is a context key type for storing database transactions.
type txKey struct{}

// Querier represents a database query executor (either *sql.DB or *sql.Tx).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager manages database transactions.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// sqlTxManager implements TxManager for SQL databases. Every transaction is
// bounded by opTimeout so a stalled persistence layer surfaces as a context
// deadline error instead of holding a request open indefinitely.
type sqlTxManager struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewTxManager creates a new TxManager for the given database. A non-positive
// opTimeout disables the per-transaction deadline.
func NewTxManager(db *sql.DB, opTimeout time.Duration) TxManager {
	return &sqlTxManager{db: db, opTimeout: opTimeout}
}

// WithTx executes the function within a database transaction. Any error from fn
// rolls the transaction back; the transaction commits only if fn returns nil.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opTimeout)
		defer cancel()
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return tx.Commit()
}

// GetTx retrieves a transaction from context, or returns the DB connection.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
