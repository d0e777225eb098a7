// Package payout sends withdrawn money to a worker's UPI handle.
package payout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"earnedpay/internal/domain/wage"
)

var (
	ErrGatewayNotConfigured = errors.New("upi payout gateway is not configured")
	ErrInvalidTransfer      = errors.New("invalid payout transfer")
)

type Transfer struct {
	UPIID       string
	Amount      float64
	ReferenceID string
}

type Result struct {
	TransactionID string
	CompletedAt   time.Time
	Message       string
}

type Gateway interface {
	Send(ctx context.Context, t Transfer) (Result, error)
	Status(ctx context.Context, transactionID string) (string, error)
}

// New returns the mock gateway in mock mode. There is no live UPI provider
// integration yet, so the live gateway refuses every transfer.
func New(mockMode bool) Gateway {
	if mockMode {
		return MockGateway{Now: time.Now}
	}
	return unconfiguredGateway{}
}

// MockGateway completes every valid transfer instantly.
type MockGateway struct {
	Now func() time.Time
}

func (g MockGateway) Send(ctx context.Context, t Transfer) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !wage.ValidUPI(t.UPIID) || t.Amount <= 0 {
		return Result{}, ErrInvalidTransfer
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	txn := TransactionID()
	slog.Info("mock upi payout", "amount", t.Amount, "upi_id", t.UPIID, "reference", t.ReferenceID, "transaction_id", txn)
	return Result{
		TransactionID: txn,
		CompletedAt:   now().UTC(),
		Message:       "Successfully transferred " + wage.FormatRupees(t.Amount) + " to " + t.UPIID,
	}, nil
}

func (MockGateway) Status(context.Context, string) (string, error) {
	return wage.WithdrawalStatusCompleted, nil
}

type unconfiguredGateway struct{}

func (unconfiguredGateway) Send(context.Context, Transfer) (Result, error) {
	return Result{}, ErrGatewayNotConfigured
}

func (unconfiguredGateway) Status(context.Context, string) (string, error) {
	return "", ErrGatewayNotConfigured
}

// TransactionID is "TXN" followed by 12 upper-case hex digits.
func TransactionID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TXN" + strings.ToUpper(hex[:12])
}
