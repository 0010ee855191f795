// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/domain/ports/repository"
	"payment-lifecycle/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookAuth carries the credentials attached to an incoming notification.
// Token is the pre-shared secret header; Signature, when present, is an
// HMAC-SHA256 of the body.
type WebhookAuth struct {
	Token     string
	Signature string
}

type WebhookUseCase interface {
	// Handle authenticates, resolves and applies one acquirer notification.
	// Duplicate deliveries are no-ops; out-of-order deliveries are rejected
	// by the transition matrix, logged, and swallowed so the provider still
	// receives an acknowledgment.
	Handle(ctx context.Context, body []byte, auth WebhookAuth) error
}

type webhookUC struct {
	authn    adapter.WebhookAuthenticator
	payments repository.PaymentRepository
	state    StateUseCase
	events   repository.WebhookEventStore
	log      *zerolog.Logger
}

func NewWebhookUseCase(authn adapter.WebhookAuthenticator, payments repository.PaymentRepository, state StateUseCase, events repository.WebhookEventStore, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{authn: authn, payments: payments, state: state, events: events, log: logger}
}

// acquirerNotification is the provider-defined webhook payload.
type acquirerNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

func (u *webhookUC) Handle(ctx context.Context, body []byte, auth WebhookAuth) error {
	// Authentication happens before any database lookup so unauthenticated
	// callers learn nothing about which payments exist.
	if !u.authn.Authenticate(body, auth.Token, auth.Signature) {
		metrics.IncWebhook("auth_failed")
		return domain.ErrWebhookAuthenticationFailed
	}

	var n acquirerNotification
	if err := json.Unmarshal(body, &n); err != nil {
		metrics.IncWebhook("malformed")
		return fmt.Errorf("%w: malformed notification: %v", domain.ErrInvalidArgument, err)
	}
	if n.Object.ID == "" {
		metrics.IncWebhook("malformed")
		return fmt.Errorf("%w: notification carries no payment id", domain.ErrInvalidArgument)
	}

	eventID := n.Event + ":" + n.Object.ID + ":" + n.Object.Status
	if u.events != nil {
		seen, err := u.events.Seen(ctx, eventID)
		if err != nil {
			u.log.Warn().Err(err).Msg("webhook dedup lookup failed; continuing")
		} else if seen {
			metrics.IncWebhook("duplicate")
			u.log.Debug().Str("event_id", eventID).Msg("duplicate notification skipped")
			return nil
		}
	}

	p, err := u.payments.FindByAcquirerID(ctx, repository.NoTX, n.Object.ID)
	if err != nil {
		// Legitimately possible on a shared endpoint: a notification about a
		// payment this system never created.
		metrics.IncWebhook("unmatched")
		return err
	}

	mapped, err := model.StatusFromAcquirer(n.Object.Status)
	if err != nil {
		metrics.IncWebhook("unknown_status")
		return err
	}

	if mapped == p.Status {
		metrics.IncWebhook("noop")
		u.mark(ctx, eventID)
		return nil
	}

	if _, err := u.state.Transition(ctx, p.ID, mapped, model.ReasonWebhookNotification, "acquirer"); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// A notification describing an earlier state than the one already
			// recorded. Log and acknowledge; retrying cannot make it legal.
			metrics.IncWebhook("out_of_order")
			u.log.Warn().
				Err(err).
				Str("payment_id", p.ID).
				Str("acquirer_status", n.Object.Status).
				Msg("out-of-order notification rejected")
			u.mark(ctx, eventID)
			return nil
		}
		return err
	}
	metrics.IncWebhook("applied")
	u.mark(ctx, eventID)
	return nil
}

func (u *webhookUC) mark(ctx context.Context, eventID string) {
	if u.events == nil {
		return
	}
	if err := u.events.Mark(ctx, eventID); err != nil {
		u.log.Warn().Err(err).Str("event_id", eventID).Msg("webhook dedup mark failed")
	}
}
