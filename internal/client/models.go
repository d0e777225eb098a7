package client

import (
	"time"

	"earnedpay/internal/domain/wage"
)

const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
)

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

type Worker struct {
	ID                   string    `json:"id"`
	EmployerID           string    `json:"employer_id"`
	FullName             string    `json:"full_name"`
	PhoneNumber          string    `json:"phone_number"`
	UPIID                string    `json:"upi_id"`
	IsActive             bool      `json:"is_active"`
	JoinedAt             time.Time `json:"joined_at"`
	CurrentMonthEarnings float64   `json:"current_month_earnings"`
	TotalWithdrawn       float64   `json:"total_withdrawn"`
	NextPayday           time.Time `json:"next_payday"`
}

type NewWorker struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	UPIID       string `json:"upi_id"`
}

type WithdrawalReceipt struct {
	ID                  string    `json:"id"`
	Amount              float64   `json:"amount"`
	Status              string    `json:"status"`
	RequestedAt         time.Time `json:"requested_at"`
	EstimatedCompletion string    `json:"estimated_completion"`
	Message             string    `json:"message"`
	TransactionID       string    `json:"transaction_id,omitempty"`
}

type Employer struct {
	ID               string              `json:"id"`
	CompanyName      string              `json:"company_name"`
	PhoneNumber      string              `json:"phone_number"`
	GSTNumber        string              `json:"gst_number,omitempty"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	WithdrawalConfig wage.EmployerConfig `json:"withdrawal_config"`
}

type EmployerUpdate struct {
	CompanyName      *string              `json:"company_name,omitempty"`
	PhoneNumber      *string              `json:"phone_number,omitempty"`
	GSTNumber        *string              `json:"gst_number,omitempty"`
	WithdrawalConfig *wage.EmployerConfig `json:"withdrawal_config,omitempty"`
}

type Dashboard struct {
	TotalWorkers              int       `json:"total_workers"`
	ActiveWorkers             int       `json:"active_workers"`
	TotalEarningsThisMonth    float64   `json:"total_earnings_this_month"`
	TotalWithdrawalsThisMonth float64   `json:"total_withdrawals_this_month"`
	PendingSettlement         float64   `json:"pending_settlement"`
	NextPayday                time.Time `json:"next_payday"`
}

type AttendanceLine struct {
	WorkerID string  `json:"worker_id"`
	Date     string  `json:"date"`
	Earned   float64 `json:"earned"`
}

type AttendanceResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Entries []AttendanceLine `json:"entries"`
}

type SettlementSummary struct {
	ID               string    `json:"id"`
	Month            string    `json:"month"`
	TotalWorkers     int       `json:"total_workers"`
	TotalEarnings    float64   `json:"total_earnings"`
	TotalWithdrawals float64   `json:"total_withdrawals"`
	NetSettlement    float64   `json:"net_settlement"`
	SettledAt        time.Time `json:"settled_at"`
	Status           string    `json:"status"`
}

type SettlementResult struct {
	Success          bool    `json:"success"`
	SettlementID     string  `json:"settlement_id"`
	Message          string  `json:"message"`
	TotalEarnings    float64 `json:"total_earnings"`
	TotalWithdrawals float64 `json:"total_withdrawals"`
	NetSettlement    float64 `json:"net_settlement"`
	WorkersCount     int     `json:"workers_count"`
}
