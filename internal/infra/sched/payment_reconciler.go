package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/domain/ports/repository"
	"payment-lifecycle/internal/usecase"
)

// PaymentReconciler periodically scans for stale in-flight payments and asks
// the acquirer for their current state, converging them through the state
// service. This covers payments whose webhook was lost or whose process
// crashed between the gateway call and the status update.
type PaymentReconciler struct {
	payments   repository.PaymentRepository
	state      usecase.StateUseCase
	gateway    adapter.AcquirerGateway
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	log        *zerolog.Logger
}

func NewPaymentReconciler(payments repository.PaymentRepository, state usecase.StateUseCase, gateway adapter.AcquirerGateway, interval, staleAfter time.Duration, batchSize int, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &PaymentReconciler{
		payments:   payments,
		state:      state,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		log:        logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListStaleInFlight(ctx, repository.NoTX, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list stale payments failed")
		return
	}
	for _, p := range stale {
		if p.AcquirerPaymentID == nil {
			// Never reached the acquirer; a crashed create. Leave it for the
			// caller to retry with the same idempotence key.
			continue
		}
		w.reconcile(ctx, p)
	}
}

func (w *PaymentReconciler) reconcile(ctx context.Context, p *model.Payment) {
	res := w.gateway.Fetch(ctx, *p.AcquirerPaymentID)
	if res.Failure != nil {
		w.log.Warn().
			Str("payment_id", p.ID).
			Str("code", res.Failure.Code).
			Msg("reconciler: acquirer fetch failed")
		return
	}
	mapped, err := model.StatusFromAcquirer(res.Status)
	if err != nil {
		w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconciler: unmappable acquirer status")
		return
	}
	if mapped == p.Status {
		return
	}
	if _, err := w.state.Transition(ctx, p.ID, mapped, model.ReasonReconcilerSync, "reconciler"); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconciler: transition rejected")
			return
		}
		w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconciler: transition failed")
		return
	}
	w.log.Info().Str("payment_id", p.ID).Str("status", string(mapped)).Msg("reconciler: payment converged")
}
