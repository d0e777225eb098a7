package settlement

import "time"

const StatusCompleted = "completed"

// Summary is a settlement as listed to its employer.
type Summary struct {
	ID               string    `json:"id"`
	Month            string    `json:"month"`
	TotalWorkers     int       `json:"total_workers"`
	TotalEarnings    float64   `json:"total_earnings"`
	TotalWithdrawals float64   `json:"total_withdrawals"`
	NetSettlement    float64   `json:"net_settlement"`
	SettledAt        time.Time `json:"settled_at"`
	Status           string    `json:"status"`
}

// Line is one worker's share of a settlement.
type Line struct {
	WorkerID   string  `json:"worker_id"`
	WorkerName string  `json:"worker_name"`
	Phone      string  `json:"phone_number"`
	Earned     float64 `json:"earned"`
	Withdrawn  float64 `json:"withdrawn"`
	NetPaid    float64 `json:"net_paid"`
}

type Settlement struct {
	Summary
	EmployerID  string `json:"employer_id"`
	CompanyName string `json:"-"`
	GSTNumber   string `json:"-"`
	Lines       []Line `json:"lines"`
}

type Result struct {
	Success          bool    `json:"success"`
	SettlementID     string  `json:"settlement_id"`
	Message          string  `json:"message"`
	TotalEarnings    float64 `json:"total_earnings"`
	TotalWithdrawals float64 `json:"total_withdrawals"`
	NetSettlement    float64 `json:"net_settlement"`
	WorkersCount     int     `json:"workers_count"`
}
