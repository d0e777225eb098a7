// Package portal holds the worker and employer view controllers. They read
// the session, run client-side checks and talk to the backend.
package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"earnedpay/internal/client"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/session"
)

const DefaultHistoryLimit = 20

type WorkerAPI interface {
	WorkerProfile(ctx context.Context, token string) (client.Worker, error)
	Balance(ctx context.Context, token string) (wage.Balance, error)
	Withdrawals(ctx context.Context, token string, limit int) ([]wage.Withdrawal, error)
	Withdraw(ctx context.Context, token string, req wage.WithdrawalRequest, idempotencyKey string) (client.WithdrawalReceipt, error)
	UpdateUPI(ctx context.Context, token, upiID string) error
	UpdatePassword(ctx context.Context, token, password string) error
}

// WorkerPortal backs the worker dashboard and withdrawal screens.
type WorkerPortal struct {
	session *session.Session
	api     WorkerAPI

	submit sync.Mutex

	mu      sync.Mutex
	epoch   uint64
	balance *wage.Balance
	stale   bool
	history []wage.Withdrawal
}

func NewWorkerPortal(s *session.Session, api WorkerAPI) *WorkerPortal {
	return &WorkerPortal{session: s, api: api}
}

// Balance returns the last loaded balance for the live session. fresh is
// false after a withdrawal until the next load.
func (p *WorkerPortal) Balance() (b wage.Balance, fresh bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance == nil || p.epoch != p.session.Epoch() {
		return wage.Balance{}, false, false
	}
	return *p.balance, !p.stale, true
}

func (p *WorkerPortal) History() []wage.Withdrawal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != p.session.Epoch() {
		return nil
	}
	return append([]wage.Withdrawal(nil), p.history...)
}

func (p *WorkerPortal) Profile(ctx context.Context) (client.Worker, error) {
	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return client.Worker{}, err
	}
	w, err := p.api.WorkerProfile(ctx, snap.Token)
	if err != nil {
		return client.Worker{}, err
	}
	if !p.session.Current(snap.Epoch) {
		return client.Worker{}, ErrSessionChanged
	}
	return w, nil
}

func (p *WorkerPortal) LoadBalance(ctx context.Context) (wage.Balance, error) {
	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return wage.Balance{}, err
	}
	b, err := p.api.Balance(ctx, snap.Token)
	if err != nil {
		return wage.Balance{}, err
	}
	if !p.store(snap.Epoch, &b, nil) {
		return wage.Balance{}, ErrSessionChanged
	}
	return b, nil
}

// Refresh reloads balance and history together.
func (p *WorkerPortal) Refresh(ctx context.Context) (wage.Balance, []wage.Withdrawal, error) {
	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return wage.Balance{}, nil, err
	}

	var (
		b       wage.Balance
		history []wage.Withdrawal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = p.api.Balance(gctx, snap.Token)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = p.api.Withdrawals(gctx, snap.Token, DefaultHistoryLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return wage.Balance{}, nil, err
	}
	if history == nil {
		history = []wage.Withdrawal{}
	}
	if !p.store(snap.Epoch, &b, history) {
		return wage.Balance{}, nil, ErrSessionChanged
	}
	return b, history, nil
}

// Withdraw validates locally, then submits once. A rejected request never
// reaches the network and the cached balance is only marked stale, never
// decremented.
func (p *WorkerPortal) Withdraw(ctx context.Context, amount float64, upiID string) (client.WithdrawalReceipt, error) {
	if !p.submit.TryLock() {
		return client.WithdrawalReceipt{}, ErrSubmissionInFlight
	}
	defer p.submit.Unlock()

	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return client.WithdrawalReceipt{}, err
	}
	balance, fresh, ok := p.Balance()
	if !ok || !fresh {
		if balance, err = p.LoadBalance(ctx); err != nil {
			return client.WithdrawalReceipt{}, fmt.Errorf("load balance: %w", err)
		}
	}

	req := wage.WithdrawalRequest{Amount: amount, PayoutAddress: upiID}
	if err := wage.ValidateWithdrawal(req, balance, balance.Policy()); err != nil {
		return client.WithdrawalReceipt{}, err
	}

	receipt, err := p.api.Withdraw(ctx, snap.Token, req, uuid.NewString())
	if err != nil {
		return client.WithdrawalReceipt{}, err
	}
	p.mu.Lock()
	if p.epoch == snap.Epoch {
		p.stale = true
	}
	p.mu.Unlock()
	return receipt, nil
}

func (p *WorkerPortal) UpdateUPI(ctx context.Context, upiID string) error {
	if !wage.ValidUPI(upiID) {
		return ErrInvalidUPI
	}
	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return err
	}
	return p.api.UpdateUPI(ctx, snap.Token, upiID)
}

func (p *WorkerPortal) UpdatePassword(ctx context.Context, password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	snap, err := authorize(p.session, session.RoleWorker)
	if err != nil {
		return err
	}
	return p.api.UpdatePassword(ctx, snap.Token, password)
}

// store applies fetched state only when the session has not moved on.
func (p *WorkerPortal) store(epoch uint64, b *wage.Balance, history []wage.Withdrawal) bool {
	if !p.session.Current(epoch) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		p.history = nil
	}
	p.epoch = epoch
	p.balance = b
	p.stale = false
	if history != nil {
		p.history = history
	}
	return true
}
