package wage

import (
	"fmt"
	"math"
	"time"
)

// Ledger is one worker's earnings for one pay cycle.
type Ledger struct {
	TotalEarned    float64 `json:"total_earned"`
	TotalWithdrawn float64 `json:"total_withdrawn"`
}

func (l Ledger) validate() error {
	for _, v := range []float64{l.TotalEarned, l.TotalWithdrawn} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: totals must be finite and non-negative", ErrCorruptLedger)
		}
	}
	if l.TotalWithdrawn > l.TotalEarned {
		return fmt.Errorf("%w: withdrawn %.2f exceeds earned %.2f", ErrCorruptLedger, l.TotalWithdrawn, l.TotalEarned)
	}
	return nil
}

// EmployerConfig is the withdrawal configuration an employer sets for all of
// its workers. Zero amounts fall back to the defaults.
type EmployerConfig struct {
	MaxPercentage int     `json:"max_percentage"`
	PaydayDay     int     `json:"payday_date"`
	MinAmount     float64 `json:"min_amount,omitempty"`
	MaxAmount     float64 `json:"max_amount,omitempty"`
}

func DefaultEmployerConfig() EmployerConfig {
	return EmployerConfig{
		MaxPercentage: DefaultMaxPercentage,
		PaydayDay:     DefaultPaydayDay,
		MinAmount:     DefaultMinAmount,
		MaxAmount:     DefaultMaxAmount,
	}
}

// WithDefaults fills unset fields. It does not repair out-of-range values.
func (c EmployerConfig) WithDefaults() EmployerConfig {
	if c.MaxPercentage == 0 {
		c.MaxPercentage = DefaultMaxPercentage
	}
	if c.PaydayDay == 0 {
		c.PaydayDay = DefaultPaydayDay
	}
	if c.MinAmount == 0 {
		c.MinAmount = DefaultMinAmount
	}
	if c.MaxAmount == 0 {
		c.MaxAmount = DefaultMaxAmount
	}
	return c
}

func (c EmployerConfig) validateBalanceInputs() error {
	if c.MaxPercentage < MinMaxPercentage || c.MaxPercentage > MaxMaxPercentage {
		return fmt.Errorf("%w: max percentage %d outside [%d,%d]", ErrInvalidConfig, c.MaxPercentage, MinMaxPercentage, MaxMaxPercentage)
	}
	if c.PaydayDay < 1 || c.PaydayDay > 31 {
		return fmt.Errorf("%w: payday day %d outside [1,31]", ErrInvalidConfig, c.PaydayDay)
	}
	return nil
}

// Validate checks every field, for use when an employer edits the config.
func (c EmployerConfig) Validate() error {
	if err := c.validateBalanceInputs(); err != nil {
		return err
	}
	if c.MinAmount < 1 {
		return fmt.Errorf("%w: min amount must be at least 1", ErrInvalidConfig)
	}
	if c.MaxAmount < 0 {
		return fmt.Errorf("%w: max amount must not be negative", ErrInvalidConfig)
	}
	if !wholePaise(c.MinAmount) || !wholePaise(c.MaxAmount) {
		return fmt.Errorf("%w: amounts must be in whole paise", ErrInvalidConfig)
	}
	if eff := c.WithDefaults(); eff.MaxAmount < eff.MinAmount {
		return fmt.Errorf("%w: max amount %.2f below min amount %.2f", ErrInvalidConfig, eff.MaxAmount, eff.MinAmount)
	}
	return nil
}

func (c EmployerConfig) Policy() Policy {
	c = c.WithDefaults()
	return Policy{MinAmount: c.MinAmount, MaxAmount: c.MaxAmount}
}

// Balance is derived from a Ledger and never stored.
type Balance struct {
	TotalEarned         float64   `json:"total_earned"`
	TotalWithdrawn      float64   `json:"total_withdrawn"`
	MaxWithdrawable     float64   `json:"max_withdrawable"`
	AvailableToWithdraw float64   `json:"available_to_withdraw"`
	NextPayday          time.Time `json:"next_payday"`
	PaydayAmount        float64   `json:"payday_amount"`
	MinWithdrawal       float64   `json:"min_withdrawal"`
	MaxWithdrawal       float64   `json:"max_withdrawal"`
}

// Policy returns the per-transaction limits the balance was computed under.
// A balance without limits gets the defaults.
func (b Balance) Policy() Policy {
	if b.MinWithdrawal <= 0 {
		return DefaultPolicy()
	}
	return Policy{MinAmount: b.MinWithdrawal, MaxAmount: b.MaxWithdrawal}
}

// Policy holds the per-transaction limits. MaxAmount of zero means no cap.
type Policy struct {
	MinAmount float64
	MaxAmount float64
}

func DefaultPolicy() Policy {
	return Policy{MinAmount: DefaultMinAmount, MaxAmount: DefaultMaxAmount}
}

type WithdrawalRequest struct {
	Amount        float64 `json:"amount"`
	PayoutAddress string  `json:"upi_id"`
}

type Withdrawal struct {
	ID            string     `json:"id"`
	Amount        float64    `json:"amount"`
	UPIID         string     `json:"upi_id"`
	Status        string     `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	FeeAmount     float64    `json:"fee_amount"`
}

type AttendanceEntry struct {
	WorkerID    string  `json:"worker_id"`
	Date        string  `json:"date"`
	HoursWorked float64 `json:"hours_worked"`
	WagePerHour float64 `json:"wage_per_hour"`
	Status      string  `json:"status,omitempty"`
}
