package model

import "time"

// TransitionReason is the machine-readable cause recorded with every status
// change.
type TransitionReason string

const (
	ReasonGatewayStatusUpdate TransitionReason = "gateway-status-update"
	ReasonGatewayFailure      TransitionReason = "gateway-failure"
	ReasonWebhookNotification TransitionReason = "webhook-notification"
	ReasonCancelRequested     TransitionReason = "cancel-requested"
	ReasonRefundRequested     TransitionReason = "refund-requested"
	ReasonReconcilerSync      TransitionReason = "reconciler-sync"
)

// TransitionRecord is one immutable audit entry. Records are ULID-keyed so
// their IDs sort chronologically; replaying a payment's records oldest-first
// reproduces its current status.
type TransitionRecord struct {
	ID         string // ULID
	PaymentID  string
	FromStatus PaymentStatus
	ToStatus   PaymentStatus
	Reason     TransitionReason
	Actor      string // "system", "reconciler", "acquirer" or a caller identity
	CreatedAt  time.Time
}
