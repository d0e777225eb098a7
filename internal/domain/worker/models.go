package worker

import (
	"time"

	"earnedpay/internal/domain/wage"
)

// Worker is a worker row as seen by the worker and by their employer. The
// earnings fields are only filled in employer listings.
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
	NextPayday           time.Time `json:"next_payday,omitzero"`
}

// Ledger is the active ledger of one month with its employer's config.
type Ledger struct {
	ID         string
	WorkerID   string
	EmployerID string
	Month      string
	Totals     wage.Ledger
	Config     wage.EmployerConfig
}

// Reservation is a withdrawal that has already been debited from its ledger
// and is waiting for the payout.
type Reservation struct {
	Withdrawal wage.Withdrawal
	LedgerID   string
	EmployerID string
}

type Receipt struct {
	ID                  string    `json:"id"`
	Amount              float64   `json:"amount"`
	Status              string    `json:"status"`
	RequestedAt         time.Time `json:"requested_at"`
	EstimatedCompletion string    `json:"estimated_completion"`
	Message             string    `json:"message"`
	TransactionID       string    `json:"transaction_id,omitempty"`
}
