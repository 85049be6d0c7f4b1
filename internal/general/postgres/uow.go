package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driver-portal/internal/ports"
)

type ctxKey struct{}

var txKey = ctxKey{}

// unitOfWork runs store calls inside pgx transactions.
type unitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewUnitOfWork binds a unit of work to pool. Session rows are tiny and
// per-device, so read committed is enough.
func NewUnitOfWork(pool *pgxpool.Pool) ports.UnitOfWork {
	return &unitOfWork{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithinTx runs fn in a transaction carried by the ctx it receives. A ctx that
// already holds one is reused, so calls nest. pgx rolls back on error or panic.
func (uow *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return pgx.BeginTxFunc(ctx, uow.pool, uow.opts, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// TxFromContext returns the transaction WithinTx stored in ctx.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok
}

// MustTxFromContext is TxFromContext for store methods that only run inside WithinTx.
func MustTxFromContext(ctx context.Context) (pgx.Tx, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx, nil
	}
	return nil, errors.New("postgres: session store called outside a transaction")
}
