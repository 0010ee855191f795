package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentColumns = `id, order_id, amount, currency, method, status, acquirer_payment_id, confirmation_url, idempotence_key, created_at, updated_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, amount, currency, method, status, acquirer_payment_id, confirmation_url, idempotence_key, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.OrderID, p.Amount, p.Currency, p.Method, p.Status, p.AcquirerPaymentID, p.ConfirmationURL, p.IdempotenceKey, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateIdempotenceKey
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByAcquirerID(ctx context.Context, tx repository.Tx, acquirerID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE acquirer_payment_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, acquirerID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	const q = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// SetAcquirerIdentity writes the acquirer-assigned ID and confirmation URL.
// The guarded WHERE clause makes the ID set-once: a second call reports
// false instead of overwriting.
func (r *paymentRepo) SetAcquirerIdentity(ctx context.Context, tx repository.Tx, id, acquirerID string, confirmationURL *string) (bool, error) {
	const q = `
UPDATE payments
   SET acquirer_payment_id = $2,
       confirmation_url = $3,
       updated_at = NOW()
 WHERE id = $1
   AND acquirer_payment_id IS NULL;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, acquirerID, confirmationURL)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListStaleInFlight(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status IN ('pending','waiting_for_capture') AND updated_at < $1 ORDER BY updated_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := new(model.Payment)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.AcquirerPaymentID, &p.ConfirmationURL, &p.IdempotenceKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.AcquirerPaymentID, &p.ConfirmationURL, &p.IdempotenceKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
