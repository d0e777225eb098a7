package portal

import (
	"errors"
	"fmt"

	"earnedpay/internal/session"
)

var (
	ErrNotAuthorized      = errors.New("not authorized for this view")
	ErrSessionChanged     = errors.New("session changed before the response arrived")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrNoEntries          = errors.New("at least one attendance entry is required")
	ErrInvalidUPI         = errors.New("invalid UPI ID format")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters")
	ErrInvalidMonth       = errors.New("month must be YYYY-MM")
	ErrEmptyUpdate        = errors.New("nothing to update")
)

const minPasswordLength = 4

// authorize runs the role guard and returns the snapshot the call must use.
func authorize(s *session.Session, role session.Role) (session.Snapshot, error) {
	if d := s.RequireRole(role); d.Outcome != session.Render {
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNotAuthorized, d.Outcome)
	}
	snap := s.Snapshot()
	if snap.Role != role || snap.Token == "" {
		return session.Snapshot{}, ErrNotAuthorized
	}
	return snap, nil
}
