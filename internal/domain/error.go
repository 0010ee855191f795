package domain

import (
	"errors"
	"fmt"
)

var (
	// Payment lifecycle errors
	ErrPaymentNotFound             = errors.New("payment not found")
	ErrInvalidTransition           = errors.New("invalid status transition")
	ErrInvalidStatusForOperation   = errors.New("operation not allowed in current status")
	ErrPaymentCreationFailed       = errors.New("payment creation failed at acquirer")
	ErrOperationFailed             = errors.New("operation failed")
	ErrWebhookAuthenticationFailed = errors.New("webhook authentication failed")
	ErrUnknownAcquirerStatus       = errors.New("unknown acquirer status")
	ErrDuplicateIdempotenceKey     = errors.New("idempotence key already used")

	// Common errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// CreationFailedError carries the acquirer's machine code and human-readable
// message for a rejected payment creation.
type CreationFailedError struct {
	Code    string
	Message string
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("payment creation failed: %s (code=%s)", e.Message, e.Code)
}

func (e *CreationFailedError) Unwrap() error { return ErrPaymentCreationFailed }
