package model

import (
	"fmt"
	"sort"

	"payment-lifecycle/internal/domain"
)

// transitions is the fixed directed graph of legal status changes. Statuses
// with an empty slice are terminal. Eligibility checks for cancel/refund are
// answered by this table only; there is no second set of guard predicates.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:           {PaymentStatusWaitingForCapture, PaymentStatusSucceeded, PaymentStatusCanceled, PaymentStatusFailed},
	PaymentStatusWaitingForCapture: {PaymentStatusSucceeded, PaymentStatusCanceled, PaymentStatusFailed},
	PaymentStatusSucceeded:         {PaymentStatusRefundRequested},
	PaymentStatusCanceled:          {},
	PaymentStatusFailed:            {},
	PaymentStatusRefundRequested:   {},
}

// InvalidTransitionError carries the attempted edge of an illegal transition.
type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return domain.ErrInvalidTransition }

// InvalidStatusError reports a use-case guard failure, naming the current
// status and the statuses from which the operation is allowed.
type InvalidStatusError struct {
	Operation string
	Current   PaymentStatus
	Allowed   []PaymentStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("cannot %s payment in status %s (allowed from: %v)", e.Operation, e.Current, e.Allowed)
}

func (e *InvalidStatusError) Unwrap() error { return domain.ErrInvalidStatusForOperation }

// CanTransition checks if the edge from -> to is in the matrix.
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an *InvalidTransitionError when the edge is not
// permitted. Same-status requests are a caller-side no-op and never reach
// this function.
func ValidateTransition(from, to PaymentStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// AllowedSources returns every status from which `to` is reachable, sorted
// for stable error messages.
func AllowedSources(to PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for from, tos := range transitions {
		for _, s := range tos {
			if s == to {
				out = append(out, from)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Terminal reports whether no edges leave the status.
func (s PaymentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// acquirerStatuses maps the provider's status vocabulary to ours. An
// unrecognized value must fail loudly rather than default to a guess.
var acquirerStatuses = map[string]PaymentStatus{
	"pending":             PaymentStatusPending,
	"waiting_for_capture": PaymentStatusWaitingForCapture,
	"succeeded":           PaymentStatusSucceeded,
	"canceled":            PaymentStatusCanceled,
	"failed":              PaymentStatusFailed,
}

// StatusFromAcquirer translates an acquirer-reported status into the internal
// enumeration.
func StatusFromAcquirer(s string) (PaymentStatus, error) {
	st, ok := acquirerStatuses[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAcquirerStatus, s)
	}
	return st, nil
}
