// File: internal/usecase/state_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/repository"
	"payment-lifecycle/internal/infra/metrics"
)

// Compile-time check
var _ StateUseCase = (*stateUC)(nil)

// StateUseCase is the single authority for mutating a payment's status. Both
// the orchestration path and the webhook path converge here, so per-payment
// mutations are linearized by the row lock taken inside Transition.
type StateUseCase interface {
	// Transition moves the payment to newStatus after validating the edge
	// against the transition matrix, appending one transition record in the
	// same transaction. Requesting the current status is an idempotent no-op:
	// no record is written and no error returned.
	Transition(ctx context.Context, paymentID string, newStatus model.PaymentStatus, reason model.TransitionReason, actor string) (*model.Payment, error)
}

type stateUC struct {
	payments    repository.PaymentRepository
	transitions repository.TransitionLogRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewStateUseCase(payments repository.PaymentRepository, transitions repository.TransitionLogRepository, tm repository.TransactionManager, logger *zerolog.Logger) *stateUC {
	return &stateUC{payments: payments, transitions: transitions, tm: tm, log: logger}
}

func (u *stateUC) Transition(ctx context.Context, paymentID string, newStatus model.PaymentStatus, reason model.TransitionReason, actor string) (*model.Payment, error) {
	var out *model.Payment
	var noop bool

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// FindByID locks the row (FOR UPDATE) when called inside a tx, so a
		// racing webhook/cancel observes the committed status and is rejected
		// by the matrix instead of silently overwriting.
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == newStatus {
			noop = true
			out = p
			return nil
		}
		if err := model.ValidateTransition(p.Status, newStatus); err != nil {
			return err
		}
		if err := u.payments.UpdateStatus(ctx, tx, p.ID, newStatus); err != nil {
			return err
		}
		now := time.Now()
		rec := &model.TransitionRecord{
			ID:         ulid.Make().String(),
			PaymentID:  p.ID,
			FromStatus: p.Status,
			ToStatus:   newStatus,
			Reason:     reason,
			Actor:      actor,
			CreatedAt:  now,
		}
		if err := u.transitions.Append(ctx, tx, rec); err != nil {
			return err
		}
		p.Status = newStatus
		p.UpdatedAt = now
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if noop {
		u.log.Debug().Str("payment_id", paymentID).Str("status", string(newStatus)).Msg("transition no-op")
		return out, nil
	}
	metrics.IncTransition(string(out.Status), string(reason))
	u.log.Info().
		Str("payment_id", out.ID).
		Str("status", string(out.Status)).
		Str("reason", string(reason)).
		Str("actor", actor).
		Msg("payment transitioned")
	return out, nil
}
