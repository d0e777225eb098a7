package employer

import (
	"strings"
	"time"

	"earnedpay/internal/domain/wage"
)

type Employer struct {
	ID               string              `json:"id"`
	CompanyName      string              `json:"company_name"`
	PhoneNumber      string              `json:"phone_number"`
	GSTNumber        string              `json:"gst_number,omitempty"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	WithdrawalConfig wage.EmployerConfig `json:"withdrawal_config"`
}

// Update carries only the fields the employer sent.
type Update struct {
	CompanyName      *string              `json:"company_name,omitempty"`
	PhoneNumber      *string              `json:"phone_number,omitempty"`
	GSTNumber        *string              `json:"gst_number,omitempty"`
	WithdrawalConfig *wage.EmployerConfig `json:"withdrawal_config,omitempty"`
}

func (u Update) IsEmpty() bool {
	return u.CompanyName == nil && u.PhoneNumber == nil && u.GSTNumber == nil && u.WithdrawalConfig == nil
}

type NewWorker struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	UPIID       string `json:"upi_id"`
}

func (w NewWorker) normalize() NewWorker {
	w.FullName = strings.TrimSpace(w.FullName)
	w.PhoneNumber = strings.TrimSpace(w.PhoneNumber)
	w.UPIID = strings.TrimSpace(w.UPIID)
	return w
}

type Dashboard struct {
	TotalWorkers              int       `json:"total_workers"`
	ActiveWorkers             int       `json:"active_workers"`
	TotalEarningsThisMonth    float64   `json:"total_earnings_this_month"`
	TotalWithdrawalsThisMonth float64   `json:"total_withdrawals_this_month"`
	PendingSettlement         float64   `json:"pending_settlement"`
	NextPayday                time.Time `json:"next_payday"`
}

// Shift is a validated attendance entry with its computed earnings.
type Shift struct {
	ID     string
	Entry  wage.AttendanceEntry
	Month  string
	Earned float64
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

// PaydayTarget is an active employer with its outstanding month totals.
type PaydayTarget struct {
	EmployerID  string
	CompanyName string
	PhoneNumber string
	Email       string
	PaydayDay   int
	Pending     float64
}
