package session

// LoginPath is the unauthenticated entry point guards redirect to.
const LoginPath = "/login"

type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is what a protected view should do before rendering.
type Decision struct {
	Outcome Outcome
	Target  string
}

// RequireRole is evaluated by every protected view.
func (s *Session) RequireRole(expected Role) Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return Decision{Outcome: Loading}
	}
	if s.identity == nil || !expected.Valid() || s.role != expected {
		return Decision{Outcome: Redirect, Target: LoginPath}
	}
	return Decision{Outcome: Render}
}

type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateAuthorized
	StateUnauthorized
)

func (st State) String() string {
	switch st {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateAuthorized:
		return "authorized"
	default:
		return "unauthorized"
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.pending:
		return StateResolving
	case !s.ready:
		return StateUninitialized
	case s.identity != nil && s.role.Valid():
		return StateAuthorized
	default:
		return StateUnauthorized
	}
}
