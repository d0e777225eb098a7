package employer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/domain/wage"
	"earnedpay/internal/domain/worker"
)

type StoreAPI interface {
	Employer(ctx context.Context, id string) (Employer, error)
	UpdateEmployer(ctx context.Context, id string, upd Update) error
	ListWorkers(ctx context.Context, employerID, month string) ([]worker.Worker, error)
	AddWorker(ctx context.Context, employerID, month string, w NewWorker) (string, error)
	RecordAttendance(ctx context.Context, employerID string, shifts []Shift) error
	WorkerCounts(ctx context.Context, employerID string) (total, active int, err error)
	MonthTotals(ctx context.Context, employerID, month string) (earned, withdrawn float64, err error)
	PaydayTargets(ctx context.Context, month string) ([]PaydayTarget, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Employer(ctx context.Context, id string) (Employer, error) {
	var e Employer
	err := s.DB.QueryRow(ctx, `
    SELECT id, company_name, phone_number, gst_number, is_active, created_at,
           max_percentage, payday_day, min_amount::float8, max_amount::float8
    FROM employers
    WHERE id = $1
  `, id).Scan(&e.ID, &e.CompanyName, &e.PhoneNumber, &e.GSTNumber, &e.IsActive, &e.CreatedAt,
		&e.WithdrawalConfig.MaxPercentage, &e.WithdrawalConfig.PaydayDay,
		&e.WithdrawalConfig.MinAmount, &e.WithdrawalConfig.MaxAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employer{}, ErrProfileNotFound
	}
	return e, err
}

func (s *Store) UpdateEmployer(ctx context.Context, id string, upd Update) error {
	var maxPct, payday *int
	var minAmount, maxAmount *float64
	if cfg := upd.WithdrawalConfig; cfg != nil {
		maxPct, payday = &cfg.MaxPercentage, &cfg.PaydayDay
		minAmount, maxAmount = &cfg.MinAmount, &cfg.MaxAmount
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE employers SET
      company_name = COALESCE($2, company_name),
      phone_number = COALESCE($3, phone_number),
      gst_number = COALESCE($4, gst_number),
      max_percentage = COALESCE($5, max_percentage),
      payday_day = COALESCE($6, payday_day),
      min_amount = COALESCE($7, min_amount),
      max_amount = COALESCE($8, max_amount),
      updated_at = now()
    WHERE id = $1
  `, id, upd.CompanyName, upd.PhoneNumber, upd.GSTNumber, maxPct, payday, minAmount, maxAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *Store) ListWorkers(ctx context.Context, employerID, month string) ([]worker.Worker, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT w.id, w.employer_id, w.full_name, w.phone_number, w.upi_id, w.is_active, w.joined_at,
           COALESCE(l.total_earned, 0)::float8, COALESCE(l.total_withdrawn, 0)::float8
    FROM workers w
    LEFT JOIN wage_ledgers l
      ON l.worker_id = w.id AND l.month = $2 AND l.status = 'active'
    WHERE w.employer_id = $1 AND w.is_active
    ORDER BY w.joined_at
  `, employerID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []worker.Worker{}
	for rows.Next() {
		var w worker.Worker
		if err := rows.Scan(&w.ID, &w.EmployerID, &w.FullName, &w.PhoneNumber, &w.UPIID, &w.IsActive, &w.JoinedAt,
			&w.CurrentMonthEarnings, &w.TotalWithdrawn); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// AddWorker creates the worker with an empty active ledger for month. A
// registered worker account with the same phone number is linked at once.
func (s *Store) AddWorker(ctx context.Context, employerID, month string, w NewWorker) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	workerID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
    INSERT INTO workers (id, user_uid, employer_id, full_name, phone_number, upi_id)
    VALUES ($1, (
      SELECT u.uid FROM users u
      WHERE u.role = 'worker' AND u.phone_number = $4
        AND NOT EXISTS (SELECT 1 FROM workers x WHERE x.user_uid = u.uid)
      LIMIT 1
    ), $2, $3, $4, $5)
  `, workerID, employerID, w.FullName, w.PhoneNumber, w.UPIID); err != nil {
		return "", fmt.Errorf("insert worker: %w", err)
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO wage_ledgers (id, worker_id, employer_id, month)
    VALUES ($1,$2,$3,$4)
  `, uuid.NewString(), workerID, employerID, month); err != nil {
		return "", fmt.Errorf("insert ledger: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return workerID, nil
}

// RecordAttendance stores every shift and adds its earnings to the active
// ledger of the shift's month, creating the ledger when missing. Either all
// shifts are stored or none.
func (s *Store) RecordAttendance(ctx context.Context, employerID string, shifts []Shift) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, sh := range shifts {
		var owned bool
		if err := tx.QueryRow(ctx, `
      SELECT EXISTS(SELECT 1 FROM workers WHERE id = $1 AND employer_id = $2)
    `, sh.Entry.WorkerID, employerID).Scan(&owned); err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("%w: %s", ErrWorkerNotFound, sh.Entry.WorkerID)
		}

		var ledgerID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO wage_ledgers (id, worker_id, employer_id, month, total_earned)
      VALUES ($1,$2,$3,$4,$5)
      ON CONFLICT (worker_id, month) WHERE status = 'active'
      DO UPDATE SET total_earned = wage_ledgers.total_earned + EXCLUDED.total_earned, updated_at = now()
      RETURNING id
    `, uuid.NewString(), sh.Entry.WorkerID, employerID, sh.Month, sh.Earned).Scan(&ledgerID); err != nil {
			return fmt.Errorf("credit ledger: %w", err)
		}

		if _, err := tx.Exec(ctx, `
      INSERT INTO attendance (id, worker_id, employer_id, ledger_id, work_date, hours_worked, wage_per_hour, total_earned, status)
      VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8,$9)
    `, sh.ID, sh.Entry.WorkerID, employerID, ledgerID, sh.Entry.Date, sh.Entry.HoursWorked, sh.Entry.WagePerHour, sh.Earned, sh.Entry.Status); err != nil {
			return fmt.Errorf("insert attendance: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) WorkerCounts(ctx context.Context, employerID string) (int, int, error) {
	var total, active int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
    FROM workers
    WHERE employer_id = $1
  `, employerID).Scan(&total, &active)
	return total, active, err
}

func (s *Store) MonthTotals(ctx context.Context, employerID, month string) (float64, float64, error) {
	var earned, withdrawn float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(total_earned), 0)::float8, COALESCE(SUM(total_withdrawn), 0)::float8
    FROM wage_ledgers
    WHERE employer_id = $1 AND month = $2 AND status = $3
  `, employerID, month, wage.LedgerStatusActive).Scan(&earned, &withdrawn)
	return earned, withdrawn, err
}

func (s *Store) PaydayTargets(ctx context.Context, month string) ([]PaydayTarget, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.company_name, e.phone_number, u.email, e.payday_day,
           COALESCE(SUM(l.total_earned - l.total_withdrawn), 0)::float8
    FROM employers e
    JOIN users u ON u.uid = e.id
    LEFT JOIN wage_ledgers l
      ON l.employer_id = e.id AND l.month = $1 AND l.status = 'active'
    WHERE e.is_active
    GROUP BY e.id, e.company_name, e.phone_number, u.email, e.payday_day
  `, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaydayTarget
	for rows.Next() {
		var t PaydayTarget
		if err := rows.Scan(&t.EmployerID, &t.CompanyName, &t.PhoneNumber, &t.Email, &t.PaydayDay, &t.Pending); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
