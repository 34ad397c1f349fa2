// Package apperrors defines the error taxonomy of the purchase lifecycle.
// Every user-visible failure carries a machine-readable code so the mini-app
// can branch on it instead of parsing human text.
package apperrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeLedgerUnavailable    Code = "ledger_unavailable"
	CodePaymentNotFound      Code = "payment_not_found"
	CodeDuplicateTransaction Code = "duplicate_transaction"
	CodeActivePurchase       Code = "active_purchase_exists"
	CodeNotFound             Code = "not_found"
	CodeAlreadyRefunded      Code = "already_refunded"
	CodeAlreadyCompleted     Code = "already_completed"
	CodeRefundFailed         Code = "refund_failed"
	CodePayoutTimeout        Code = "payout_timeout"
	CodeInvalidAmount        Code = "invalid_amount"
	CodeInvalidAddress       Code = "invalid_address"
)

// Error is a sentinel with a stable code. Instances below are compared with
// errors.Is, so wrap them with fmt.Errorf("...: %w", err) to add context.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrLedgerUnavailable — transient transport/5xx failure of the ledger
	// endpoint. The matcher absorbs it; it only reaches a handler from the
	// read-only passthrough endpoints.
	ErrLedgerUnavailable = &Error{CodeLedgerUnavailable, "ledger temporarily unavailable"}

	// ErrPaymentNotFound — no matching transaction after all retry attempts.
	ErrPaymentNotFound = &Error{CodePaymentNotFound, "payment not found in recent transactions"}

	// ErrDuplicateTransaction — a purchase already references this tx hash.
	ErrDuplicateTransaction = &Error{CodeDuplicateTransaction, "transaction already processed"}

	// ErrActivePurchaseExists — the user already has a purchase that is
	// neither completed nor refunded.
	ErrActivePurchaseExists = &Error{CodeActivePurchase, "user already has an active purchase"}

	ErrNotFound         = &Error{CodeNotFound, "purchase not found"}
	ErrAlreadyRefunded  = &Error{CodeAlreadyRefunded, "refund already processed"}
	ErrAlreadyCompleted = &Error{CodeAlreadyCompleted, "purchase already completed"}

	// ErrRefundFailed — the payout sender reported failure; the purchase
	// record was not modified.
	ErrRefundFailed  = &Error{CodeRefundFailed, "failed to send refund"}
	ErrPayoutTimeout = &Error{CodePayoutTimeout, "refund payout timed out"}

	ErrInvalidAmount  = &Error{CodeInvalidAmount, "invalid TON amount"}
	ErrInvalidAddress = &Error{CodeInvalidAddress, "invalid TON address"}
)

// CodeOf extracts the taxonomy code from an error chain, or "" if the error
// is not part of the taxonomy.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Wrap attaches context while keeping the sentinel reachable via errors.Is.
func Wrap(sentinel *Error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
