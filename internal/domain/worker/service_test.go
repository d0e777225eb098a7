package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"earnedpay/internal/domain/auth"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/platform/metrics"
	"earnedpay/internal/platform/notify"
	"earnedpay/internal/platform/payout"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu          sync.Mutex
	workers     map[string]Worker
	ledgers     map[string]*Ledger
	withdrawals map[string]wage.Withdrawal
	upi         map[string]string
	passwords   map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		workers:     map[string]Worker{},
		ledgers:     map[string]*Ledger{},
		withdrawals: map[string]wage.Withdrawal{},
		upi:         map[string]string{},
		passwords:   map[string]string{},
	}
}

func (m *memoryStore) WorkerByUser(_ context.Context, uid string) (Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[uid]
	if !ok {
		return Worker{}, ErrProfileNotFound
	}
	return w, nil
}

func (m *memoryStore) ActiveLedger(_ context.Context, workerID, month string) (Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[workerID+"/"+month]
	if !ok {
		return Ledger{}, ErrNoActiveLedger
	}
	return *l, nil
}

func (m *memoryStore) Withdrawals(_ context.Context, _ string, limit int) ([]wage.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []wage.Withdrawal{}
	for _, w := range m.withdrawals {
		if len(out) == limit {
			break
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *memoryStore) ReserveWithdrawal(_ context.Context, workerID, month string, w wage.Withdrawal, check CheckFunc) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[workerID+"/"+month]
	if !ok {
		return Reservation{}, ErrNoActiveLedger
	}
	if err := check(l.Totals, l.Config); err != nil {
		return Reservation{}, err
	}
	l.Totals.TotalWithdrawn += w.Amount
	m.withdrawals[w.ID] = w
	return Reservation{Withdrawal: w, LedgerID: l.ID, EmployerID: l.EmployerID}, nil
}

func (m *memoryStore) CompleteWithdrawal(_ context.Context, id, txn string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.withdrawals[id]
	w.Status = wage.WithdrawalStatusCompleted
	w.TransactionID = txn
	w.CompletedAt = &at
	m.withdrawals[id] = w
	return nil
}

func (m *memoryStore) FailWithdrawal(_ context.Context, r Reservation, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.withdrawals[r.Withdrawal.ID]
	w.Status = wage.WithdrawalStatusFailed
	w.FailureReason = reason
	m.withdrawals[r.Withdrawal.ID] = w
	for _, l := range m.ledgers {
		if l.ID == r.LedgerID {
			l.Totals.TotalWithdrawn -= r.Withdrawal.Amount
		}
	}
	return nil
}

func (m *memoryStore) UpdateUPI(_ context.Context, uid, upiID string) error {
	m.upi[uid] = upiID
	return nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, uid, hash string) error {
	m.passwords[uid] = hash
	return nil
}

func (m *memoryStore) withdrawn(workerID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgers[workerID+"/"+wage.CycleMonth(fixedNow)].Totals.TotalWithdrawn
}

type failingGateway struct{}

func (failingGateway) Send(context.Context, payout.Transfer) (payout.Result, error) {
	return payout.Result{}, errors.New("bank timeout")
}

func (failingGateway) Status(context.Context, string) (string, error) {
	return wage.WithdrawalStatusFailed, nil
}

type queued struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (q *queued) Notify(msg notify.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
}

func seeded(earned, withdrawn float64) *memoryStore {
	store := newMemoryStore()
	store.workers["uid-1"] = Worker{ID: "w1", EmployerID: "e1", FullName: "Asha", PhoneNumber: "+919000000001"}
	store.ledgers["w1/"+wage.CycleMonth(fixedNow)] = &Ledger{
		ID:         "l1",
		WorkerID:   "w1",
		EmployerID: "e1",
		Month:      wage.CycleMonth(fixedNow),
		Totals:     wage.Ledger{TotalEarned: earned, TotalWithdrawn: withdrawn},
		Config:     wage.EmployerConfig{MaxPercentage: 40, PaydayDay: 1, MinAmount: 100},
	}
	return store
}

func newTestService(store StoreAPI, gateway payout.Gateway, q *queued) *Service {
	svc := NewService(store, gateway, q, nil, metrics.New())
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func TestBalanceFromActiveLedger(t *testing.T) {
	svc := newTestService(seeded(10000, 0), payout.MockGateway{}, &queued{})
	balance, err := svc.Balance(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.AvailableToWithdraw != 4000 || balance.MaxWithdrawable != 4000 {
		t.Fatalf("expected 4000 available, got %+v", balance)
	}
	if balance.NextPayday != time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected payday %v", balance.NextPayday)
	}
}

func TestBalanceWithoutLedgerIsEmpty(t *testing.T) {
	store := newMemoryStore()
	store.workers["uid-1"] = Worker{ID: "w1"}
	svc := newTestService(store, payout.MockGateway{}, &queued{})

	for _, uid := range []string{"uid-1", "unknown"} {
		balance, err := svc.Balance(context.Background(), uid)
		if err != nil {
			t.Fatalf("balance for %s: %v", uid, err)
		}
		if balance.TotalEarned != 0 || balance.AvailableToWithdraw != 0 {
			t.Fatalf("expected empty balance for %s, got %+v", uid, balance)
		}
	}
}

func TestWithdrawCompletesAndDebits(t *testing.T) {
	store := seeded(10000, 0)
	q := &queued{}
	svc := newTestService(store, payout.MockGateway{Now: func() time.Time { return fixedNow }}, q)

	receipt, err := svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 1500, PayoutAddress: "asha@upi"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if receipt.Status != wage.WithdrawalStatusCompleted || !strings.HasPrefix(receipt.TransactionID, "TXN") {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if receipt.Message != "Successfully transferred ₹1,500 to asha@upi" {
		t.Fatalf("unexpected message %q", receipt.Message)
	}
	if got := store.withdrawn("w1"); got != 1500 {
		t.Fatalf("expected ledger debit of 1500, got %v", got)
	}
	if store.withdrawals[receipt.ID].Status != wage.WithdrawalStatusCompleted {
		t.Fatalf("withdrawal not completed: %+v", store.withdrawals[receipt.ID])
	}
	if len(q.msgs) != 1 || q.msgs[0].Phone != "+919000000001" {
		t.Fatalf("expected one confirmation, got %+v", q.msgs)
	}
	if snap := svc.Metrics.Snapshot(); snap["withdrawals_completed_total"] != uint64(1) {
		t.Fatalf("expected completed metric, got %v", snap)
	}
}

func TestWithdrawCappedByDefaultMaximum(t *testing.T) {
	store := seeded(100000, 0)
	svc := newTestService(store, payout.MockGateway{}, &queued{})

	balance, err := svc.Balance(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.AvailableToWithdraw != 40000 || balance.MaxWithdrawal != wage.DefaultMaxAmount {
		t.Fatalf("unexpected balance %+v", balance)
	}

	_, err = svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 25000, PayoutAddress: "asha@okaxis"})
	if reason, ok := wage.RejectionReason(err); !ok || reason != wage.ReasonAboveMaximum {
		t.Fatalf("expected above maximum, got %v", err)
	}
	_, err = svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 100.005, PayoutAddress: "asha@okaxis"})
	if reason, ok := wage.RejectionReason(err); !ok || reason != wage.ReasonInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if got := store.withdrawn("w1"); got != 0 {
		t.Fatalf("rejected requests must not debit the ledger, got %v", got)
	}
}

func TestWithdrawRejectsAboveAvailable(t *testing.T) {
	store := seeded(10000, 4000)
	svc := newTestService(store, payout.MockGateway{}, &queued{})

	_, err := svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 100, PayoutAddress: "asha@upi"})
	if reason, ok := wage.RejectionReason(err); !ok || reason != wage.ReasonInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if got := store.withdrawn("w1"); got != 4000 {
		t.Fatalf("ledger must not change, got %v", got)
	}
}

func TestWithdrawRefundsFailedPayout(t *testing.T) {
	store := seeded(10000, 0)
	q := &queued{}
	svc := newTestService(store, failingGateway{}, q)

	_, err := svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 500, PayoutAddress: "asha@upi"})
	if !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("expected ErrPayoutFailed, got %v", err)
	}
	if got := store.withdrawn("w1"); got != 0 {
		t.Fatalf("reservation should be refunded, got %v", got)
	}
	for _, w := range store.withdrawals {
		if w.Status != wage.WithdrawalStatusFailed || w.FailureReason != "bank timeout" {
			t.Fatalf("expected failed withdrawal, got %+v", w)
		}
	}
	if len(q.msgs) != 0 {
		t.Fatal("no confirmation on failure")
	}
}

func TestWithdrawWithoutLedger(t *testing.T) {
	svc := newTestService(newMemoryStore(), payout.MockGateway{}, &queued{})
	_, err := svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 500, PayoutAddress: "asha@upi"})
	if !errors.Is(err, ErrNoActiveLedger) {
		t.Fatalf("expected ErrNoActiveLedger, got %v", err)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	store := seeded(10000, 0)
	svc := newTestService(store, payout.MockGateway{}, &queued{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), auth.Principal{UID: "uid-1"}, wage.WithdrawalRequest{Amount: 1000, PayoutAddress: "asha@upi"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if succeeded != 4 {
		t.Fatalf("expected exactly 4 withdrawals of 1000 against 4000, got %d", succeeded)
	}
	if got := store.withdrawn("w1"); got != 4000 {
		t.Fatalf("expected 4000 withdrawn, got %v", got)
	}
}

func TestUpdateUPIAndPassword(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, payout.MockGateway{}, &queued{})

	if err := svc.UpdateUPI(context.Background(), "uid-1", "bad"); !errors.Is(err, ErrInvalidUPI) {
		t.Fatalf("expected ErrInvalidUPI, got %v", err)
	}
	if err := svc.UpdateUPI(context.Background(), "uid-1", " asha@okaxis "); err != nil {
		t.Fatalf("update upi: %v", err)
	}
	if store.upi["uid-1"] != "asha@okaxis" {
		t.Fatalf("expected trimmed upi, got %q", store.upi["uid-1"])
	}
	if err := svc.UpdatePassword(context.Background(), "uid-1", "12"); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.UpdatePassword(context.Background(), "uid-1", "s3cret"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := auth.CheckPassword(store.passwords["uid-1"], "s3cret"); err != nil {
		t.Fatalf("password not hashed with bcrypt: %v", err)
	}
}

func TestWithdrawalsLimit(t *testing.T) {
	store := seeded(10000, 0)
	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		store.withdrawals[id] = wage.Withdrawal{ID: id}
	}
	svc := newTestService(store, payout.MockGateway{}, &queued{})
	out, err := svc.Withdrawals(context.Background(), "uid-1", 2)
	if err != nil || len(out) != 2 {
		t.Fatalf("expected 2 withdrawals, got %d %v", len(out), err)
	}
	out, err = svc.Withdrawals(context.Background(), "nobody", 0)
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil history, got %v %v", out, err)
	}
}
