// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/domain/ports/repository"
	"payment-lifecycle/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

var supportedMethods = map[string]bool{
	"bank_card": true,
	"sbp":       true,
	"wallet":    true,
}

type CreateParams struct {
	OrderID        string
	Amount         int64 // minor currency units
	Currency       string
	Method         string
	IdempotenceKey string // generated when empty
	Description    string
	ReturnURL      string
}

type PaymentUseCase interface {
	// Create persists a new pending payment and submits it to the acquirer.
	// A gateway failure commits the FAILED transition before the error is
	// raised, so the system of record never disagrees with what the caller
	// was told.
	Create(ctx context.Context, params CreateParams) (*model.Payment, error)
	// Cancel requests cancellation of a not-yet-captured payment.
	Cancel(ctx context.Context, paymentID, actor string) (*model.Payment, error)
	// Refund records a refund request for a succeeded payment. Fund movement
	// and approval happen downstream.
	Refund(ctx context.Context, paymentID, actor string) (*model.Payment, error)
	Get(ctx context.Context, paymentID string) (*model.Payment, error)
	GetByAcquirerID(ctx context.Context, acquirerID string) (*model.Payment, error)
	History(ctx context.Context, paymentID string) ([]*model.TransitionRecord, error)
}

type paymentUC struct {
	payments    repository.PaymentRepository
	transitions repository.TransitionLogRepository
	state       StateUseCase
	gateway     adapter.AcquirerGateway
	log         *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, transitions repository.TransitionLogRepository, state StateUseCase, gateway adapter.AcquirerGateway, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{payments: payments, transitions: transitions, state: state, gateway: gateway, log: logger}
}

func (u *paymentUC) Create(ctx context.Context, params CreateParams) (*model.Payment, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	key := params.IdempotenceKey
	if key == "" {
		key = uuid.NewString()
	}
	now := time.Now()
	p := &model.Payment{
		ID:             uuid.NewString(),
		OrderID:        params.OrderID,
		Amount:         params.Amount,
		Currency:       params.Currency,
		Method:         params.Method,
		Status:         model.PaymentStatusPending,
		IdempotenceKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	// The gateway call completes before any status-mutating transaction
	// opens, so a slow provider never holds a row lock.
	res := u.gateway.Create(ctx, adapter.CreateRequest{
		IdempotenceKey: key,
		OrderID:        params.OrderID,
		Amount:         params.Amount,
		Currency:       params.Currency,
		Method:         params.Method,
		Description:    params.Description,
		ReturnURL:      params.ReturnURL,
	})
	if res.Failure != nil {
		// Commit the FAILED transition in its own unit of work before
		// raising the typed error. A storage error while recording the
		// failure is logged, never allowed to mask the gateway failure.
		if _, terr := u.state.Transition(ctx, p.ID, model.PaymentStatusFailed, model.ReasonGatewayFailure, "system"); terr != nil {
			u.log.Error().Err(terr).Str("payment_id", p.ID).Msg("recording gateway failure did not commit")
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		u.log.Warn().
			Str("payment_id", p.ID).
			Str("order_id", p.OrderID).
			Str("code", res.Failure.Code).
			Msg("acquirer rejected payment creation")
		return nil, &domain.CreationFailedError{Code: res.Failure.Code, Message: res.Failure.Message}
	}

	ok, err := u.payments.SetAcquirerIdentity(ctx, repository.NoTX, p.ID, res.AcquirerPaymentID, optional(res.ConfirmationURL))
	if err != nil {
		return nil, err
	}
	if !ok {
		u.log.Warn().Str("payment_id", p.ID).Msg("acquirer identity already set; retried creation")
	} else {
		acqID := res.AcquirerPaymentID
		p.AcquirerPaymentID = &acqID
		p.ConfirmationURL = optional(res.ConfirmationURL)
	}

	mapped, err := model.StatusFromAcquirer(res.Status)
	if err != nil {
		// A success result without a usable status should not happen per the
		// acquirer contract; fail loudly instead of leaving the payment
		// correct-but-unconfirmed.
		return nil, err
	}
	if mapped != p.Status {
		updated, err := u.state.Transition(ctx, p.ID, mapped, model.ReasonGatewayStatusUpdate, "system")
		if err != nil {
			return nil, err
		}
		p.Status = updated.Status
		p.UpdatedAt = updated.UpdatedAt
		metrics.IncPayment(string(p.Status))
	}
	return p, nil
}

func (u *paymentUC) Cancel(ctx context.Context, paymentID, actor string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	// Eligibility is the transition matrix, nothing else: cancellable means
	// an edge to CANCELED exists from the current status.
	if !model.CanTransition(p.Status, model.PaymentStatusCanceled) {
		return nil, &model.InvalidStatusError{
			Operation: "cancel",
			Current:   p.Status,
			Allowed:   model.AllowedSources(model.PaymentStatusCanceled),
		}
	}

	if p.AcquirerPaymentID != nil {
		// Deterministic key: a retried cancel lands in the provider's
		// idempotency window instead of issuing a second operation.
		res := u.gateway.Cancel(ctx, p.IdempotenceKey+":cancel", *p.AcquirerPaymentID)
		if res.Failure != nil {
			u.log.Warn().
				Str("payment_id", p.ID).
				Str("code", res.Failure.Code).
				Msg("acquirer rejected cancel")
			return nil, fmt.Errorf("%w: cancel rejected: %s (code=%s)", domain.ErrOperationFailed, res.Failure.Message, res.Failure.Code)
		}
	}

	updated, err := u.state.Transition(ctx, p.ID, model.PaymentStatusCanceled, model.ReasonCancelRequested, actor)
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusCanceled))
	return updated, nil
}

func (u *paymentUC) Refund(ctx context.Context, paymentID, actor string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(p.Status, model.PaymentStatusRefundRequested) {
		return nil, &model.InvalidStatusError{
			Operation: "refund",
			Current:   p.Status,
			Allowed:   model.AllowedSources(model.PaymentStatusRefundRequested),
		}
	}

	updated, err := u.state.Transition(ctx, p.ID, model.PaymentStatusRefundRequested, model.ReasonRefundRequested, actor)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Lost the race with a concurrent mutation; surface the guard
			// failure the caller would have seen.
			return nil, err
		}
		return nil, fmt.Errorf("%w: record refund request: %w", domain.ErrOperationFailed, err)
	}
	metrics.IncPayment(string(model.PaymentStatusRefundRequested))
	return updated, nil
}

func (u *paymentUC) Get(ctx context.Context, paymentID string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, repository.NoTX, paymentID)
}

func (u *paymentUC) GetByAcquirerID(ctx context.Context, acquirerID string) (*model.Payment, error) {
	return u.payments.FindByAcquirerID(ctx, repository.NoTX, acquirerID)
}

func (u *paymentUC) History(ctx context.Context, paymentID string) ([]*model.TransitionRecord, error) {
	if _, err := u.payments.FindByID(ctx, repository.NoTX, paymentID); err != nil {
		return nil, err
	}
	return u.transitions.History(ctx, repository.NoTX, paymentID)
}

func validateCreate(params CreateParams) error {
	if params.OrderID == "" {
		return fmt.Errorf("%w: order_id is required", domain.ErrInvalidArgument)
	}
	if params.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if params.Currency == "" {
		return fmt.Errorf("%w: currency is required", domain.ErrInvalidArgument)
	}
	if !supportedMethods[params.Method] {
		return fmt.Errorf("%w: unsupported payment method %q", domain.ErrInvalidArgument, params.Method)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
