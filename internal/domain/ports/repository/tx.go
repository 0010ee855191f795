package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX marks the non-transactional path when calling repositories directly.
var NoTX Tx

// TransactionManager executes a function within a storage transaction,
// passing the underlying transaction handle via `tx`.
//
// Repositories accept the handle as an opaque `Tx` so use-case interfaces
// stay free of driver types; the implementation side detects a live
// transaction and switches to tx-bound Exec/Query plus SELECT ... FOR UPDATE
// where row-level locking is needed. Repositories MUST gracefully accept a
// nil handle (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
