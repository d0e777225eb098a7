package auth

import (
	"time"

	"earnedpay/internal/domain/wage"
)

const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
)

// User is the registered account as returned by /auth/me.
type User struct {
	UID              string               `json:"uid"`
	Role             string               `json:"role"`
	PhoneNumber      string               `json:"phone_number"`
	Email            string               `json:"email,omitempty"`
	CustomID         string               `json:"custom_id"`
	FullName         string               `json:"full_name,omitempty"`
	UPIID            string               `json:"upi_id,omitempty"`
	EmployerID       string               `json:"employer_id,omitempty"`
	CompanyName      string               `json:"company_name,omitempty"`
	GSTNumber        string               `json:"gst_number,omitempty"`
	WithdrawalConfig *wage.EmployerConfig `json:"withdrawal_config,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// Principal is the verified identity behind a request. Role is empty until
// the user has registered.
type Principal struct {
	UID         string
	PhoneNumber string
	Email       string
	Role        string
}

type Registration struct {
	UID         string
	Role        string
	PhoneNumber string
	Email       string
}

func ValidRole(role string) bool {
	return role == RoleWorker || role == RoleEmployer
}
