package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/domain/wage"
)

// BuildFunc turns the locked ledger lines into the settlement to store.
type BuildFunc func(lines []Line) (Settlement, error)

type StoreAPI interface {
	List(ctx context.Context, employerID string, limit int) ([]Summary, error)
	Settle(ctx context.Context, employerID, month string, build BuildFunc) (Settlement, error)
	Get(ctx context.Context, employerID, id string) (Settlement, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context, employerID string, limit int) ([]Summary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, month, total_workers, total_earnings::float8, total_withdrawals::float8,
           net_settlement::float8, settled_at, status
    FROM settlements
    WHERE employer_id = $1
    ORDER BY settled_at DESC
    LIMIT $2
  `, employerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Month, &sm.TotalWorkers, &sm.TotalEarnings, &sm.TotalWithdrawals,
			&sm.NetSettlement, &sm.SettledAt, &sm.Status); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Settle locks every active ledger of the month, closes them and stores the
// settlement built from their lines, all in one transaction.
func (s *Store) Settle(ctx context.Context, employerID, month string, build BuildFunc) (Settlement, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Settlement{}, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
    SELECT l.id, l.worker_id, COALESCE(w.full_name, 'Unknown'), COALESCE(w.phone_number, ''),
           l.total_earned::float8, l.total_withdrawn::float8
    FROM wage_ledgers l
    LEFT JOIN workers w ON w.id = l.worker_id
    WHERE l.employer_id = $1 AND l.month = $2 AND l.status = $3
    ORDER BY w.full_name
    FOR UPDATE OF l
  `, employerID, month, wage.LedgerStatusActive)
	if err != nil {
		return Settlement{}, err
	}
	var (
		ledgerIDs []string
		lines     []Line
	)
	for rows.Next() {
		var (
			ledgerID string
			line     Line
		)
		if err := rows.Scan(&ledgerID, &line.WorkerID, &line.WorkerName, &line.Phone, &line.Earned, &line.Withdrawn); err != nil {
			rows.Close()
			return Settlement{}, err
		}
		ledgerIDs = append(ledgerIDs, ledgerID)
		lines = append(lines, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Settlement{}, err
	}
	if len(lines) == 0 {
		return Settlement{}, ErrNoActiveLedgers
	}

	out, err := build(lines)
	if err != nil {
		return Settlement{}, err
	}
	linesJSON, err := json.Marshal(out.Lines)
	if err != nil {
		return Settlement{}, fmt.Errorf("encode lines: %w", err)
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO settlements (id, employer_id, month, total_workers, total_earnings, total_withdrawals,
                             net_settlement, status, lines_json, settled_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, out.ID, employerID, month, out.TotalWorkers, out.TotalEarnings, out.TotalWithdrawals,
		out.NetSettlement, out.Status, linesJSON, out.SettledAt); err != nil {
		return Settlement{}, fmt.Errorf("insert settlement: %w", err)
	}
	if _, err := tx.Exec(ctx, `
    UPDATE wage_ledgers
    SET status = $1, settlement_id = $2, updated_at = now()
    WHERE id = ANY($3)
  `, wage.LedgerStatusSettled, out.ID, ledgerIDs); err != nil {
		return Settlement{}, fmt.Errorf("close ledgers: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Settlement{}, err
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, employerID, id string) (Settlement, error) {
	var (
		out       Settlement
		linesJSON []byte
	)
	err := s.DB.QueryRow(ctx, `
    SELECT s.id, s.month, s.total_workers, s.total_earnings::float8, s.total_withdrawals::float8,
           s.net_settlement::float8, s.settled_at, s.status, s.employer_id,
           e.company_name, e.gst_number, s.lines_json
    FROM settlements s
    JOIN employers e ON e.id = s.employer_id
    WHERE s.id = $1 AND s.employer_id = $2
  `, id, employerID).Scan(&out.ID, &out.Month, &out.TotalWorkers, &out.TotalEarnings, &out.TotalWithdrawals,
		&out.NetSettlement, &out.SettledAt, &out.Status, &out.EmployerID,
		&out.CompanyName, &out.GSTNumber, &linesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settlement{}, ErrNotFound
	}
	if err != nil {
		return Settlement{}, err
	}
	if err := json.Unmarshal(linesJSON, &out.Lines); err != nil {
		return Settlement{}, fmt.Errorf("decode lines: %w", err)
	}
	return out, nil
}
