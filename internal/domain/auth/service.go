package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"earnedpay/internal/domain/audit"
)

type Service struct {
	Store StoreAPI
	Audit audit.Recorder
}

func NewService(store StoreAPI, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{Store: store, Audit: recorder}
}

// VerifyToken returns the registered user for p, creating it with role when
// it does not exist yet. An existing user keeps the role it registered with.
func (s *Service) VerifyToken(ctx context.Context, p Principal, role string) (User, error) {
	if !ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	user, err := s.Store.UserByUID(ctx, p.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("load user: %w", err)
	}

	hash, err := HashPassword(DefaultPassword)
	if err != nil {
		return User{}, err
	}
	user, err = s.Store.CreateUser(ctx, Registration{
		UID:         p.UID,
		Role:        role,
		PhoneNumber: p.PhoneNumber,
		Email:       p.Email,
	}, hash)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	if err := s.Audit.Record(ctx, audit.Entry{
		ActorUID:   p.UID,
		Action:     audit.ActionUserRegistered,
		EntityType: "user",
		EntityID:   p.UID,
		After:      map[string]string{"role": user.Role, "custom_id": user.CustomID},
	}); err != nil {
		slog.Warn("audit user registration", "uid", p.UID, "err", err)
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, uid string) (User, error) {
	return s.Store.UserByUID(ctx, uid)
}

// Role satisfies the middleware role lookup.
func (s *Service) Role(ctx context.Context, uid string) (string, error) {
	return s.Store.RoleOf(ctx, uid)
}
