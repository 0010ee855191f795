package repository

import (
	"context"
	"time"

	"payment-lifecycle/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByAcquirerID(ctx context.Context, tx Tx, acquirerID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus) error
	// SetAcquirerIdentity records the acquirer-assigned payment ID and
	// confirmation URL. The ID is set at most once; returns false when it was
	// already set.
	SetAcquirerIdentity(ctx context.Context, tx Tx, id, acquirerID string, confirmationURL *string) (bool, error)
	// ListStaleInFlight returns payments still awaiting a definite acquirer
	// outcome whose last update is older than the cutoff, oldest first.
	ListStaleInFlight(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}

// -----------------------------
// Transition log
// -----------------------------

// TransitionLogRepository is append-only: no update or delete exists.
type TransitionLogRepository interface {
	// Append writes one immutable record; callers run it in the same
	// transaction as the status mutation it documents.
	Append(ctx context.Context, tx Tx, rec *model.TransitionRecord) error
	// History returns the ordered sequence of records, oldest first.
	History(ctx context.Context, tx Tx, paymentID string) ([]*model.TransitionRecord, error)
	// ListAfter pages records with ID greater than afterID in ULID order,
	// across all payments. Used by the transition event publisher.
	ListAfter(ctx context.Context, tx Tx, afterID string, limit int) ([]*model.TransitionRecord, error)
}
