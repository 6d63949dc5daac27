package postgres

import (
	"context"

	"worklog/ports"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Transactor implements ports.Transactor over sqlx. The open transaction is
// carried in the context so repositories in this package transparently join it.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor creates a transactor bound to the database pool
func NewTransactor(db *sqlx.DB) ports.Transactor {
	return &Transactor{db: db}
}

// InTx runs fn inside a transaction. A nested call joins the outer
// transaction instead of opening a second one.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// ext returns the transaction bound to ctx when present, otherwise the pool.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
