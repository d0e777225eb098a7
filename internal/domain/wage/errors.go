package wage

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid employer withdrawal config")
	ErrCorruptLedger     = errors.New("ledger totals are inconsistent")
	ErrRejected          = errors.New("withdrawal request rejected")
	ErrInvalidAttendance = errors.New("invalid attendance entry")
)

type Reason string

const (
	ReasonBelowMinimum        Reason = "below_minimum"
	ReasonAboveMaximum        Reason = "above_maximum"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonInvalidAddress      Reason = "invalid_address"
	ReasonInvalidAmount       Reason = "invalid_amount"
)

// RejectionError is returned by ValidateWithdrawal. Message is meant for the
// person filling in the form.
type RejectionError struct {
	Reason  Reason
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

func reject(reason Reason, message string) error {
	return &RejectionError{Reason: reason, Message: message}
}

// RejectionReason extracts the reason from a validation error, if there is one.
func RejectionReason(err error) (Reason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}
