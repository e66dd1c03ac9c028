package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// TxFromContext returns the transaction attached to ctx by RunInTx, or
// nil when the caller is not inside a transaction. Repositories consult
// this before falling back to the pool, so a service composing several
// repository calls inside RunInTx gets all statements on one
// transaction without the repositories knowing about each other.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Runner is the injectable form of RunInTx. Services take a Runner so
// tests can substitute a pass-through without a live pool.
type Runner func(ctx context.Context, fn func(ctx context.Context) error) error

// NewRunner binds RunInTx to a pool.
func NewRunner(pool *pgxpool.Pool) Runner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return RunInTx(ctx, pool, fn)
	}
}

// RunInTx runs fn inside a single transaction. The transaction is
// rolled back on any error (including a panic unwinding through fn) and
// committed only when fn returns nil, so the connection is released on
// every exit path. Nested calls reuse the outer transaction.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
