package adapter

import "context"

// Failure is the normalized error surface of the acquirer. Transport-level
// problems (timeout, connection refused, malformed response) are folded into
// a Failure as well, so callers only ever branch on code/message, never on
// error type.
type Failure struct {
	Code    string
	Message string
}

type CreateRequest struct {
	IdempotenceKey string
	OrderID        string
	Amount         int64 // minor currency units
	Currency       string
	Method         string
	Description    string
	ReturnURL      string
}

type CreateResult struct {
	AcquirerPaymentID string
	ConfirmationURL   string
	Status            string // acquirer vocabulary; mapped by the caller
	Failure           *Failure
}

type CancelResult struct {
	Status  string
	Failure *Failure
}

type FetchResult struct {
	AcquirerPaymentID string
	Status            string
	Failure           *Failure
}

// AcquirerGateway abstracts the external payment provider. Create and Cancel
// are idempotent at the provider via the idempotence key passed through; the
// client itself adds no retry logic.
type AcquirerGateway interface {
	Name() string
	Create(ctx context.Context, req CreateRequest) CreateResult
	Cancel(ctx context.Context, idempotenceKey, acquirerPaymentID string) CancelResult
	// Fetch reads the current provider-side state of a payment. Used by the
	// reconciler to converge payments whose webhook was lost.
	Fetch(ctx context.Context, acquirerPaymentID string) FetchResult
}

// WebhookAuthenticator verifies that a webhook notification originated from
// the acquirer before any local state is consulted.
type WebhookAuthenticator interface {
	Authenticate(body []byte, token, signature string) bool
}
