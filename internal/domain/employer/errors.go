package employer

import "errors"

var (
	ErrProfileNotFound = errors.New("employer profile not found")
	ErrWorkerNotFound  = errors.New("worker not found for this employer")
	ErrEmptyUpdate     = errors.New("no fields to update")
	ErrNoEntries       = errors.New("no attendance entries")
	ErrInvalidWorker   = errors.New("invalid worker details")
	ErrInvalidPhone    = errors.New("phone number must look like +91 followed by 10 digits")
)
