package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/domain/wage"
)

// CheckFunc validates a withdrawal against the locked ledger.
type CheckFunc func(ledger wage.Ledger, cfg wage.EmployerConfig) error

type StoreAPI interface {
	WorkerByUser(ctx context.Context, uid string) (Worker, error)
	ActiveLedger(ctx context.Context, workerID, month string) (Ledger, error)
	Withdrawals(ctx context.Context, workerID string, limit int) ([]wage.Withdrawal, error)
	ReserveWithdrawal(ctx context.Context, workerID, month string, w wage.Withdrawal, check CheckFunc) (Reservation, error)
	CompleteWithdrawal(ctx context.Context, id, transactionID string, completedAt time.Time) error
	FailWithdrawal(ctx context.Context, r Reservation, reason string) error
	UpdateUPI(ctx context.Context, uid, upiID string) error
	UpdatePassword(ctx context.Context, uid, hash string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) WorkerByUser(ctx context.Context, uid string) (Worker, error) {
	var w Worker
	err := s.DB.QueryRow(ctx, `
    SELECT id, employer_id, full_name, phone_number, upi_id, is_active, joined_at
    FROM workers
    WHERE user_uid = $1
  `, uid).Scan(&w.ID, &w.EmployerID, &w.FullName, &w.PhoneNumber, &w.UPIID, &w.IsActive, &w.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, ErrProfileNotFound
	}
	return w, err
}

const ledgerColumns = `
    SELECT l.id, l.worker_id, l.employer_id, l.month,
           l.total_earned::float8, l.total_withdrawn::float8,
           e.max_percentage, e.payday_day, e.min_amount::float8, e.max_amount::float8
    FROM wage_ledgers l
    JOIN employers e ON e.id = l.employer_id
    WHERE l.worker_id = $1 AND l.month = $2 AND l.status = 'active'`

func scanLedger(row pgx.Row) (Ledger, error) {
	var l Ledger
	err := row.Scan(&l.ID, &l.WorkerID, &l.EmployerID, &l.Month,
		&l.Totals.TotalEarned, &l.Totals.TotalWithdrawn,
		&l.Config.MaxPercentage, &l.Config.PaydayDay, &l.Config.MinAmount, &l.Config.MaxAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ledger{}, ErrNoActiveLedger
	}
	return l, err
}

func (s *Store) ActiveLedger(ctx context.Context, workerID, month string) (Ledger, error) {
	return scanLedger(s.DB.QueryRow(ctx, ledgerColumns, workerID, month))
}

func (s *Store) Withdrawals(ctx context.Context, workerID string, limit int) ([]wage.Withdrawal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, amount::float8, upi_id, status, requested_at, completed_at,
           transaction_id, failure_reason, fee_amount::float8
    FROM withdrawals
    WHERE worker_id = $1
    ORDER BY requested_at DESC
    LIMIT $2
  `, workerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []wage.Withdrawal{}
	for rows.Next() {
		var w wage.Withdrawal
		if err := rows.Scan(&w.ID, &w.Amount, &w.UPIID, &w.Status, &w.RequestedAt, &w.CompletedAt,
			&w.TransactionID, &w.FailureReason, &w.FeeAmount); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ReserveWithdrawal locks the month's active ledger, runs check against it,
// debits the amount and records the withdrawal as processing. Concurrent
// withdrawals on the same ledger serialise on the row lock.
func (s *Store) ReserveWithdrawal(ctx context.Context, workerID, month string, w wage.Withdrawal, check CheckFunc) (Reservation, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Reservation{}, err
	}
	defer tx.Rollback(ctx)

	ledger, err := scanLedger(tx.QueryRow(ctx, ledgerColumns+" FOR UPDATE OF l", workerID, month))
	if err != nil {
		return Reservation{}, err
	}
	if err := check(ledger.Totals, ledger.Config); err != nil {
		return Reservation{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE wage_ledgers
    SET total_withdrawn = total_withdrawn + $1, updated_at = now()
    WHERE id = $2
  `, w.Amount, ledger.ID); err != nil {
		return Reservation{}, fmt.Errorf("debit ledger: %w", err)
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO withdrawals (id, worker_id, employer_id, ledger_id, amount, upi_id, status, fee_amount, requested_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, w.ID, workerID, ledger.EmployerID, ledger.ID, w.Amount, w.UPIID, w.Status, w.FeeAmount, w.RequestedAt); err != nil {
		return Reservation{}, fmt.Errorf("insert withdrawal: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}
	return Reservation{Withdrawal: w, LedgerID: ledger.ID, EmployerID: ledger.EmployerID}, nil
}

func (s *Store) CompleteWithdrawal(ctx context.Context, id, transactionID string, completedAt time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE withdrawals
    SET status = $1, transaction_id = $2, completed_at = $3
    WHERE id = $4
  `, wage.WithdrawalStatusCompleted, transactionID, completedAt, id)
	return err
}

// FailWithdrawal marks the withdrawal failed and refunds the reserved amount.
func (s *Store) FailWithdrawal(ctx context.Context, r Reservation, reason string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
    UPDATE withdrawals
    SET status = $1, failure_reason = $2
    WHERE id = $3 AND status = $4
  `, wage.WithdrawalStatusFailed, reason, r.Withdrawal.ID, wage.WithdrawalStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}
	if _, err := tx.Exec(ctx, `
    UPDATE wage_ledgers
    SET total_withdrawn = GREATEST(total_withdrawn - $1, 0), updated_at = now()
    WHERE id = $2
  `, r.Withdrawal.Amount, r.LedgerID); err != nil {
		return fmt.Errorf("refund ledger: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) UpdateUPI(ctx context.Context, uid, upiID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "UPDATE users SET upi_id = $1, updated_at = now() WHERE uid = $2", upiID, uid); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE workers SET upi_id = $1 WHERE user_uid = $2", upiID, uid); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) UpdatePassword(ctx context.Context, uid, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE uid = $2", hash, uid)
	return err
}
