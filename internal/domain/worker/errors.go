package worker

import "errors"

var (
	ErrProfileNotFound = errors.New("worker profile not found")
	ErrNoActiveLedger  = errors.New("no active wage ledger found")
	ErrPayoutFailed    = errors.New("withdrawal processing failed")
	ErrInvalidUPI      = errors.New("invalid UPI ID")
)
