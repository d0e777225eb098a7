package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/platform/metrics"
	"earnedpay/internal/platform/notify"
	"earnedpay/internal/platform/payout"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	estimatedCompletion = "Instant"
)

// Notifications queues outbound messages.
type Notifications interface {
	Notify(msg notify.Message)
}

type Service struct {
	Store         StoreAPI
	Payout        payout.Gateway
	Notifications Notifications
	Audit         audit.Recorder
	Metrics       *metrics.Collector
	Now           func() time.Time
}

func NewService(store StoreAPI, gateway payout.Gateway, notifications Notifications, recorder audit.Recorder, collector *metrics.Collector) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		Store:         store,
		Payout:        gateway,
		Notifications: notifications,
		Audit:         recorder,
		Metrics:       collector,
		Now:           time.Now,
	}
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

func (s *Service) Profile(ctx context.Context, uid string) (Worker, error) {
	return s.Store.WorkerByUser(ctx, uid)
}

// Balance derives the balance from the current month's active ledger. A
// worker without one has an empty balance.
func (s *Service) Balance(ctx context.Context, uid string) (wage.Balance, error) {
	now := s.now()
	w, err := s.Store.WorkerByUser(ctx, uid)
	if errors.Is(err, ErrProfileNotFound) {
		return wage.EmptyBalance(now), nil
	}
	if err != nil {
		return wage.Balance{}, err
	}
	ledger, err := s.Store.ActiveLedger(ctx, w.ID, wage.CycleMonth(now))
	if errors.Is(err, ErrNoActiveLedger) {
		return wage.EmptyBalance(now), nil
	}
	if err != nil {
		return wage.Balance{}, err
	}
	return wage.ComputeBalance(ledger.Totals, ledger.Config.WithDefaults(), now)
}

func (s *Service) Withdrawals(ctx context.Context, uid string, limit int) ([]wage.Withdrawal, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	w, err := s.Store.WorkerByUser(ctx, uid)
	if errors.Is(err, ErrProfileNotFound) {
		return []wage.Withdrawal{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Store.Withdrawals(ctx, w.ID, limit)
}

// Withdraw reserves the amount against the locked ledger, pays it out and
// then completes the withdrawal. A failed payout refunds the reservation.
func (s *Service) Withdraw(ctx context.Context, p auth.Principal, req wage.WithdrawalRequest) (Receipt, error) {
	req.PayoutAddress = strings.TrimSpace(req.PayoutAddress)
	w, err := s.Store.WorkerByUser(ctx, p.UID)
	if errors.Is(err, ErrProfileNotFound) {
		return Receipt{}, ErrNoActiveLedger
	}
	if err != nil {
		return Receipt{}, err
	}

	now := s.now()
	pending := wage.Withdrawal{
		ID:          uuid.NewString(),
		Amount:      req.Amount,
		UPIID:       req.PayoutAddress,
		Status:      wage.WithdrawalStatusProcessing,
		RequestedAt: now,
	}
	reservation, err := s.Store.ReserveWithdrawal(ctx, w.ID, wage.CycleMonth(now), pending,
		func(ledger wage.Ledger, cfg wage.EmployerConfig) error {
			cfg = cfg.WithDefaults()
			balance, err := wage.ComputeBalance(ledger, cfg, now)
			if err != nil {
				return err
			}
			return wage.ValidateWithdrawal(req, balance, cfg.Policy())
		})
	if err != nil {
		return Receipt{}, err
	}
	s.record(ctx, p.UID, audit.ActionWithdrawalRequested, reservation.Withdrawal.ID, reservation.Withdrawal)

	result, err := s.Payout.Send(ctx, payout.Transfer{
		UPIID:       reservation.Withdrawal.UPIID,
		Amount:      reservation.Withdrawal.Amount,
		ReferenceID: reservation.Withdrawal.ID,
	})
	if err != nil {
		slog.Error("withdrawal payout failed", "withdrawal_id", reservation.Withdrawal.ID, "err", err)
		// Refund even when the request was cancelled.
		refundCtx := context.WithoutCancel(ctx)
		if failErr := s.Store.FailWithdrawal(refundCtx, reservation, err.Error()); failErr != nil {
			slog.Error("withdrawal refund failed", "withdrawal_id", reservation.Withdrawal.ID, "err", failErr)
		}
		s.Metrics.RecordWithdrawal(false, reservation.Withdrawal.Amount)
		s.record(refundCtx, p.UID, audit.ActionWithdrawalFailed, reservation.Withdrawal.ID, map[string]string{"reason": err.Error()})
		return Receipt{}, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	if err := s.Store.CompleteWithdrawal(context.WithoutCancel(ctx), reservation.Withdrawal.ID, result.TransactionID, result.CompletedAt); err != nil {
		slog.Error("withdrawal completion not recorded", "withdrawal_id", reservation.Withdrawal.ID, "transaction_id", result.TransactionID, "err", err)
	}
	s.Metrics.RecordWithdrawal(true, reservation.Withdrawal.Amount)
	s.record(ctx, p.UID, audit.ActionWithdrawalCompleted, reservation.Withdrawal.ID, map[string]any{
		"amount":         reservation.Withdrawal.Amount,
		"transaction_id": result.TransactionID,
	})
	if s.Notifications != nil {
		s.Notifications.Notify(notify.WithdrawalConfirmation(w.PhoneNumber, p.Email, reservation.Withdrawal.Amount, result.TransactionID))
	}

	return Receipt{
		ID:                  reservation.Withdrawal.ID,
		Amount:              reservation.Withdrawal.Amount,
		Status:              wage.WithdrawalStatusCompleted,
		RequestedAt:         reservation.Withdrawal.RequestedAt,
		EstimatedCompletion: estimatedCompletion,
		Message:             fmt.Sprintf("Successfully transferred %s to %s", wage.FormatRupees(reservation.Withdrawal.Amount), reservation.Withdrawal.UPIID),
		TransactionID:       result.TransactionID,
	}, nil
}

func (s *Service) UpdateUPI(ctx context.Context, uid, upiID string) error {
	upiID = strings.TrimSpace(upiID)
	if !wage.ValidUPI(upiID) {
		return ErrInvalidUPI
	}
	return s.Store.UpdateUPI(ctx, uid, upiID)
}

func (s *Service) UpdatePassword(ctx context.Context, uid, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.UpdatePassword(ctx, uid, hash)
}

func (s *Service) record(ctx context.Context, actor, action, withdrawalID string, after any) {
	if err := s.Audit.Record(ctx, audit.Entry{
		ActorUID:   actor,
		Action:     action,
		EntityType: "withdrawal",
		EntityID:   withdrawalID,
		After:      after,
	}); err != nil {
		slog.Warn("audit withdrawal", "action", action, "withdrawal_id", withdrawalID, "err", err)
	}
}
