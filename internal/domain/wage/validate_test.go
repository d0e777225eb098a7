package wage

import (
	"errors"
	"math"
	"testing"
)

func TestValidateWithdrawal(t *testing.T) {
	balance := Balance{AvailableToWithdraw: 4000}

	tests := []struct {
		name       string
		req        WithdrawalRequest
		policy     Policy
		wantReason Reason
	}{
		{
			name:   "accepts minimum",
			req:    WithdrawalRequest{Amount: 100, PayoutAddress: "9876543210@paytm"},
			policy: DefaultPolicy(),
		},
		{
			name:   "accepts full available",
			req:    WithdrawalRequest{Amount: 4000, PayoutAddress: "ravi.k@okhdfc"},
			policy: DefaultPolicy(),
		},
		{
			name:       "phone number without separator",
			req:        WithdrawalRequest{Amount: 500, PayoutAddress: "9999999999"},
			policy:     DefaultPolicy(),
			wantReason: ReasonInvalidAddress,
		},
		{
			name:       "address with spaces",
			req:        WithdrawalRequest{Amount: 500, PayoutAddress: "ravi k@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonInvalidAddress,
		},
		{
			name:       "below minimum",
			req:        WithdrawalRequest{Amount: 99.99, PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonBelowMinimum,
		},
		{
			name:       "zero amount",
			req:        WithdrawalRequest{Amount: 0, PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonBelowMinimum,
		},
		{
			name:       "nan amount",
			req:        WithdrawalRequest{Amount: math.NaN(), PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonBelowMinimum,
		},
		{
			name:       "above available",
			req:        WithdrawalRequest{Amount: 4000.01, PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonInsufficientBalance,
		},
		{
			name:       "above employer cap",
			req:        WithdrawalRequest{Amount: 3000, PayoutAddress: "ravi@upi"},
			policy:     Policy{MinAmount: 100, MaxAmount: 2500},
			wantReason: ReasonAboveMaximum,
		},
		{
			name:       "above default cap",
			req:        WithdrawalRequest{Amount: 10000.01, PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonAboveMaximum,
		},
		{
			name:       "sub-paisa amount",
			req:        WithdrawalRequest{Amount: 100.005, PayoutAddress: "ravi@upi"},
			policy:     DefaultPolicy(),
			wantReason: ReasonInvalidAmount,
		},
		{
			name:   "two decimal places",
			req:    WithdrawalRequest{Amount: 1342.25, PayoutAddress: "ravi@upi"},
			policy: DefaultPolicy(),
		},
		{
			name:       "employer minimum",
			req:        WithdrawalRequest{Amount: 400, PayoutAddress: "ravi@upi"},
			policy:     Policy{MinAmount: 500},
			wantReason: ReasonBelowMinimum,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateWithdrawal(tc.req, balance, tc.policy)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected rejection: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("expected rejection, got %v", err)
			}
			reason, ok := RejectionReason(err)
			if !ok || reason != tc.wantReason {
				t.Fatalf("expected reason %q, got %q", tc.wantReason, reason)
			}
		})
	}
}

func TestValidateWithdrawalAcceptsEverythingInRange(t *testing.T) {
	uncapped := Policy{MinAmount: DefaultMinAmount}
	for _, available := range []float64{100, 250.5, 4000, 123456.78} {
		balance := Balance{AvailableToWithdraw: available}
		for step := 0.0; ; step++ {
			amount := math.Round((100+step*available/7)*100) / 100
			if amount > available {
				break
			}
			if err := ValidateWithdrawal(WithdrawalRequest{Amount: amount, PayoutAddress: "w@upi"}, balance, uncapped); err != nil {
				t.Fatalf("amount %.2f of %.2f rejected: %v", amount, available, err)
			}
		}
		if err := ValidateWithdrawal(WithdrawalRequest{Amount: available + 0.01, PayoutAddress: "w@upi"}, balance, uncapped); err == nil {
			t.Fatalf("amount above %.2f accepted", available)
		}
	}
}

func TestValidateAttendance(t *testing.T) {
	valid := AttendanceEntry{WorkerID: "w1", Date: "2026-03-02", HoursWorked: 8, WagePerHour: 100}
	if err := ValidateAttendance(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []AttendanceEntry{
		{Date: "2026-03-02", HoursWorked: 8, WagePerHour: 100},
		{WorkerID: "w1", Date: "02/03/2026", HoursWorked: 8, WagePerHour: 100},
		{WorkerID: "w1", Date: "2026-03-02", HoursWorked: -1, WagePerHour: 100},
		{WorkerID: "w1", Date: "2026-03-02", HoursWorked: 25, WagePerHour: 100},
		{WorkerID: "w1", Date: "2026-03-02", HoursWorked: 8, WagePerHour: 0.5},
	}
	for _, entry := range bad {
		if err := ValidateAttendance(entry); !errors.Is(err, ErrInvalidAttendance) {
			t.Fatalf("expected invalid attendance for %+v, got %v", entry, err)
		}
	}
}

func TestEntryMonth(t *testing.T) {
	month, err := EntryMonth("2026-11-30")
	if err != nil || month != "2026-11" {
		t.Fatalf("expected 2026-11, got %q (%v)", month, err)
	}
}

func TestFormatRupees(t *testing.T) {
	tests := map[float64]string{
		0:         "₹0",
		100:       "₹100",
		4000:      "₹4,000",
		125000:    "₹1,25,000",
		12345678:  "₹1,23,45,678",
		99.5:      "₹99.50",
		1000.05:   "₹1,000.05",
		-2500.256: "-₹2,500.26",
	}
	for in, want := range tests {
		if got := FormatRupees(in); got != want {
			t.Fatalf("FormatRupees(%v): expected %q, got %q", in, want, got)
		}
	}
}
