package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"             // created locally, acquirer not yet confirmed
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture" // authorized at acquirer, funds on hold
	PaymentStatusSucceeded         PaymentStatus = "succeeded"           // captured
	PaymentStatusCanceled          PaymentStatus = "canceled"            // canceled before capture
	PaymentStatusFailed            PaymentStatus = "failed"              // acquirer rejected or unreachable
	PaymentStatusRefundRequested   PaymentStatus = "refund_requested"    // refund recorded; fund movement handled downstream
)

// Payment is the aggregate root of the payment lifecycle. Rows are never
// deleted; terminal statuses are retained for audit and reconciliation.
type Payment struct {
	ID                string // UUID
	OrderID           string // opaque identifier from the order-management collaborator
	Amount            int64  // minor currency units
	Currency          string
	Method            string // e.g. "bank_card"
	Status            PaymentStatus
	AcquirerPaymentID *string // assigned by the acquirer; set at most once
	ConfirmationURL   *string // redirect URL for the payer, if the acquirer issued one
	IdempotenceKey    string  // unique per logical payment attempt
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// InFlight reports whether the payment still awaits a definite outcome from
// the acquirer.
func (p *Payment) InFlight() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusWaitingForCapture
}
