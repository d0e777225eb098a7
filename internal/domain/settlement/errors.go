package settlement

import "errors"

var (
	ErrNoActiveLedgers = errors.New("no active ledgers for month")
	ErrInvalidMonth    = errors.New("month must be YYYY-MM")
	ErrNotFound        = errors.New("settlement not found")
)
