package wage

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var upiPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+$`)

// ValidUPI reports whether addr looks like a UPI handle (name@bank).
func ValidUPI(addr string) bool {
	return upiPattern.MatchString(strings.TrimSpace(addr))
}

// ValidateWithdrawal checks a request against a balance snapshot. The backend
// runs the same check against its own locked ledger, so passing here is only
// advisory.
func ValidateWithdrawal(req WithdrawalRequest, balance Balance, policy Policy) error {
	if !ValidUPI(req.PayoutAddress) {
		return reject(ReasonInvalidAddress, "Invalid UPI ID. Use the form name@bank")
	}
	if policy.MinAmount <= 0 {
		policy.MinAmount = DefaultMinAmount
	}
	amount := req.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 || amount < policy.MinAmount {
		return reject(ReasonBelowMinimum, fmt.Sprintf("Minimum withdrawal amount is %s", FormatRupees(policy.MinAmount)))
	}
	if !wholePaise(amount) {
		return reject(ReasonInvalidAmount, "Amount can have at most 2 decimal places")
	}
	if policy.MaxAmount > 0 && amount > policy.MaxAmount {
		return reject(ReasonAboveMaximum, fmt.Sprintf("Maximum withdrawal amount is %s", FormatRupees(policy.MaxAmount)))
	}
	if amount > balance.AvailableToWithdraw {
		return reject(ReasonInsufficientBalance, fmt.Sprintf("Insufficient balance. Available: %s", FormatRupees(balance.AvailableToWithdraw)))
	}
	return nil
}

// wholePaise reports whether v has no more than two decimal places.
func wholePaise(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return decimal.NewFromFloat(v).Exponent() >= -2
}

func ValidateAttendance(entry AttendanceEntry) error {
	if strings.TrimSpace(entry.WorkerID) == "" {
		return fmt.Errorf("%w: worker_id is required", ErrInvalidAttendance)
	}
	if _, err := time.Parse(DateLayout, entry.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidAttendance)
	}
	if math.IsNaN(entry.HoursWorked) || entry.HoursWorked < 0 || entry.HoursWorked > MaxShiftHours {
		return fmt.Errorf("%w: hours_worked must be between 0 and %d", ErrInvalidAttendance, MaxShiftHours)
	}
	if math.IsNaN(entry.WagePerHour) || math.IsInf(entry.WagePerHour, 0) || entry.WagePerHour < MinHourlyWage {
		return fmt.Errorf("%w: wage_per_hour must be at least %d", ErrInvalidAttendance, MinHourlyWage)
	}
	return nil
}

// EntryMonth returns the ledger cycle (YYYY-MM) an attendance date belongs to.
func EntryMonth(date string) (string, error) {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidAttendance)
	}
	return parsed.Format(MonthLayout), nil
}
