package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/repository"
)

var _ repository.TransitionLogRepository = (*transitionLogRepo)(nil)

const transitionColumns = `id, payment_id, from_status, to_status, reason, actor, created_at`

// transitionLogRepo is append-only. There is intentionally no UPDATE or
// DELETE statement in this file.
type transitionLogRepo struct{ pool *pgxpool.Pool }

func NewTransitionLogRepo(pool *pgxpool.Pool) *transitionLogRepo {
	return &transitionLogRepo{pool: pool}
}

func (r *transitionLogRepo) Append(ctx context.Context, tx repository.Tx, rec *model.TransitionRecord) error {
	const q = `
INSERT INTO payment_transitions (id, payment_id, from_status, to_status, reason, actor, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.PaymentID, rec.FromStatus, rec.ToStatus, rec.Reason, rec.Actor, rec.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transitionLogRepo) History(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.TransitionRecord, error) {
	const q = `SELECT ` + transitionColumns + ` FROM payment_transitions WHERE payment_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func (r *transitionLogRepo) ListAfter(ctx context.Context, tx repository.Tx, afterID string, limit int) ([]*model.TransitionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + transitionColumns + ` FROM payment_transitions WHERE id > $1 ORDER BY id ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, afterID, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func scanTransitions(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*model.TransitionRecord, error) {
	var out []*model.TransitionRecord
	for rows.Next() {
		rec := new(model.TransitionRecord)
		if err := rows.Scan(&rec.ID, &rec.PaymentID, &rec.FromStatus, &rec.ToStatus, &rec.Reason, &rec.Actor, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
