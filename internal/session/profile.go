package session

import (
	"errors"
	"fmt"

	"earnedpay/internal/client"
	"earnedpay/internal/domain/wage"
)

type Role string

const (
	RoleUnresolved Role = ""
	RoleWorker     Role = client.RoleWorker
	RoleEmployer   Role = client.RoleEmployer
)

func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleEmployer
}

func (r Role) String() string {
	if r == RoleUnresolved {
		return "unresolved"
	}
	return string(r)
}

var ErrUnknownRole = errors.New("backend returned an unknown role")

// Profile is either *WorkerProfile or *EmployerProfile, matching the
// session's role.
type Profile interface {
	Role() Role
	isProfile()
}

type WorkerProfile struct {
	UID        string
	CustomID   string
	FullName   string
	Phone      string
	UPIID      string
	EmployerID string
}

func (*WorkerProfile) Role() Role { return RoleWorker }
func (*WorkerProfile) isProfile() {}

type EmployerProfile struct {
	UID         string
	CustomID    string
	CompanyName string
	Phone       string
	GSTNumber   string
	Config      wage.EmployerConfig
}

func (*EmployerProfile) Role() Role { return RoleEmployer }
func (*EmployerProfile) isProfile() {}

func profileFromUser(user client.User) (Role, Profile, error) {
	switch Role(user.Role) {
	case RoleWorker:
		return RoleWorker, &WorkerProfile{
			UID:        user.UID,
			CustomID:   user.CustomID,
			FullName:   user.FullName,
			Phone:      user.PhoneNumber,
			UPIID:      user.UPIID,
			EmployerID: user.EmployerID,
		}, nil
	case RoleEmployer:
		cfg := wage.DefaultEmployerConfig()
		if user.WithdrawalConfig != nil {
			cfg = user.WithdrawalConfig.WithDefaults()
		}
		return RoleEmployer, &EmployerProfile{
			UID:         user.UID,
			CustomID:    user.CustomID,
			CompanyName: user.CompanyName,
			Phone:       user.PhoneNumber,
			GSTNumber:   user.GSTNumber,
			Config:      cfg,
		}, nil
	default:
		return RoleUnresolved, nil, fmt.Errorf("%w: %q", ErrUnknownRole, user.Role)
	}
}
