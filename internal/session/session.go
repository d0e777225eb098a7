// Package session is the single source of truth for who is signed in and
// which role-specific views they may see.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"earnedpay/internal/client"
	"earnedpay/internal/identity"
)

var (
	ErrNoIdentity    = errors.New("no signed-in identity")
	ErrInvalidRole   = errors.New("role must be worker or employer")
	ErrSuperseded    = errors.New("session changed while the request was in flight")
	ErrAlreadyActive = errors.New("identity is already registered")
)

// Provider is the identity provider's sign-out hook.
type Provider interface {
	SignOut(ctx context.Context) error
}

// Resolver maps a bearer token to the backend account.
type Resolver interface {
	CurrentUser(ctx context.Context, token string) (client.User, error)
}

// Registrar creates the backend account for a verified identity.
type Registrar interface {
	VerifyToken(ctx context.Context, token, role string) (client.User, error)
}

// Session must be shared by pointer. Its methods are the only write path.
type Session struct {
	provider Provider
	resolver Resolver

	mu       sync.RWMutex
	identity identity.Identity
	token    string
	role     Role
	profile  Profile
	ready    bool
	pending  bool
	// seq advances on every identity report and every clear. A resolution
	// started under an older seq may not write.
	seq uint64
	// epoch advances only when the signed-in user changes or the session is
	// cleared. A token refresh for the same uid keeps it, so view loads in
	// flight across the refresh still land.
	epoch uint64
}

func New(provider Provider, resolver Resolver) *Session {
	return &Session{provider: provider, resolver: resolver}
}

// Snapshot is a consistent copy of the session fields.
type Snapshot struct {
	Identity identity.Identity
	Token    string
	Role     Role
	Profile  Profile
	Ready    bool
	Epoch    uint64
}

func (s Snapshot) Worker() (*WorkerProfile, bool) {
	p, ok := s.Profile.(*WorkerProfile)
	return p, ok
}

func (s Snapshot) Employer() (*EmployerProfile, bool) {
	p, ok := s.Profile.(*EmployerProfile)
	return p, ok
}

// NeedsRegistration is true for a signed-in identity the backend does not
// know yet.
func (s Snapshot) NeedsRegistration() bool {
	return s.Ready && s.Identity != nil && s.Role == RoleUnresolved
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Identity: s.identity,
		Token:    s.token,
		Role:     s.role,
		Profile:  s.profile,
		Ready:    s.ready,
		Epoch:    s.epoch,
	}
}

// Epoch names the signed-in user. It survives token refreshes.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Current reports whether epoch still names the live, authorized session.
func (s *Session) Current(epoch uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch == epoch && s.identity != nil && s.role.Valid()
}

// OnIdentityChange is called by the identity provider on every sign-in state
// change, including the initial report. A nil id means signed out.
func (s *Session) OnIdentityChange(ctx context.Context, id identity.Identity) {
	seq := s.begin()
	defer s.finish(seq)

	if id == nil {
		s.clearIfCurrent(seq)
		return
	}

	token, err := id.IDToken(ctx)
	if err != nil {
		slog.Warn("identity token fetch failed", "uid", id.UID(), "err", err)
		s.clearIfCurrent(seq)
		return
	}
	if !s.adoptIdentity(seq, id, token) {
		return
	}

	user, err := s.resolver.CurrentUser(ctx, token)
	switch {
	case err == nil:
		role, profile, perr := profileFromUser(user)
		if perr != nil {
			slog.Warn("session role resolution failed", "uid", id.UID(), "err", perr)
			s.clearIfCurrent(seq)
			return
		}
		s.applyIfCurrent(seq, func() {
			s.role = role
			s.profile = profile
		})
	case client.IsNotRegistered(err):
		s.applyIfCurrent(seq, func() {
			s.role = RoleUnresolved
			s.profile = nil
		})
	default:
		slog.Warn("session verification failed", "uid", id.UID(), "err", err)
		s.clearIfCurrent(seq)
	}
}

// Register completes sign-up for an identity the backend does not know yet.
// It is the explicit role-selection step; OnIdentityChange never registers.
func (s *Session) Register(ctx context.Context, registrar Registrar, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	snap := s.Snapshot()
	if snap.Identity == nil || snap.Token == "" {
		return ErrNoIdentity
	}
	if snap.Role.Valid() {
		return ErrAlreadyActive
	}

	user, err := registrar.VerifyToken(ctx, snap.Token, string(role))
	if err != nil {
		return err
	}
	resolved, profile, err := profileFromUser(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != snap.Epoch || s.identity == nil {
		return ErrSuperseded
	}
	s.role = resolved
	s.profile = profile
	return nil
}

// SignOut revokes the provider session and clears every field in one step.
// The local clear happens even when the provider call fails.
func (s *Session) SignOut(ctx context.Context) error {
	var providerErr error
	if s.provider != nil {
		providerErr = s.provider.SignOut(ctx)
	}
	s.mu.Lock()
	s.seq++
	s.clearLocked()
	s.mu.Unlock()
	if providerErr != nil {
		return fmt.Errorf("identity provider sign out: %w", providerErr)
	}
	return nil
}

func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending = true
	return s.seq
}

func (s *Session) finish(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	if s.seq == seq {
		s.pending = false
	}
}

func (s *Session) adoptIdentity(seq uint64, id identity.Identity, token string) bool {
	return s.applyIfCurrent(seq, func() {
		if s.identity == nil || s.identity.UID() != id.UID() {
			s.epoch++
			s.role = RoleUnresolved
			s.profile = nil
		}
		s.identity = id
		s.token = token
	})
}

func (s *Session) applyIfCurrent(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq {
		return false
	}
	fn()
	return true
}

func (s *Session) clearIfCurrent(seq uint64) {
	s.applyIfCurrent(seq, s.clearLocked)
}

// clearLocked leaves ready alone: the provider has still reported.
func (s *Session) clearLocked() {
	s.epoch++
	s.identity = nil
	s.token = ""
	s.role = RoleUnresolved
	s.profile = nil
	s.pending = false
}
