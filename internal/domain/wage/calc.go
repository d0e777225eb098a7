package wage

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeBalance derives the withdrawable balance for a ledger. It has no
// side effects and the same inputs always give the same Balance.
func ComputeBalance(ledger Ledger, cfg EmployerConfig, now time.Time) (Balance, error) {
	if err := cfg.validateBalanceInputs(); err != nil {
		return Balance{}, err
	}
	if err := ledger.validate(); err != nil {
		return Balance{}, err
	}

	earned := decimal.NewFromFloat(ledger.TotalEarned)
	withdrawn := decimal.NewFromFloat(ledger.TotalWithdrawn)

	maxWithdrawable := earned.Mul(decimal.NewFromInt(int64(cfg.MaxPercentage))).Div(hundred)
	available := maxWithdrawable.Sub(withdrawn)
	if available.IsNegative() {
		available = decimal.Zero
	}

	policy := cfg.Policy()
	return Balance{
		TotalEarned:         round2(earned),
		TotalWithdrawn:      round2(withdrawn),
		MaxWithdrawable:     round2(maxWithdrawable),
		AvailableToWithdraw: round2(available),
		NextPayday:          NextPayday(cfg.PaydayDay, now),
		PaydayAmount:        round2(earned.Sub(withdrawn)),
		MinWithdrawal:       policy.MinAmount,
		MaxWithdrawal:       policy.MaxAmount,
	}, nil
}

// EmptyBalance is what a worker with no active ledger sees.
func EmptyBalance(now time.Time) Balance {
	policy := DefaultPolicy()
	return Balance{NextPayday: now.UTC(), MinWithdrawal: policy.MinAmount, MaxWithdrawal: policy.MaxAmount}
}

// NextPayday returns midnight UTC of the next settlement date. A payday that
// falls on today has already happened.
func NextPayday(day int, now time.Time) time.Time {
	if day < 1 {
		day = DefaultPaydayDay
	}
	if day > MaxPaydayDay {
		day = MaxPaydayDay
	}
	now = now.UTC()
	payday := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
	if now.Day() >= day {
		payday = payday.AddDate(0, 1, 0)
	}
	return payday
}

// ShiftEarnings is hours × hourly wage, rounded to the paisa.
func ShiftEarnings(hoursWorked, wagePerHour float64) float64 {
	return round2(decimal.NewFromFloat(hoursWorked).Mul(decimal.NewFromFloat(wagePerHour)))
}

// SumAmounts adds amounts without accumulating float error.
func SumAmounts(amounts ...float64) float64 {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(decimal.NewFromFloat(amount))
	}
	return round2(total)
}

func CycleMonth(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
