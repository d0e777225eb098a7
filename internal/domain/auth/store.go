package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/domain/wage"
)

const customIDAttempts = 8

type StoreAPI interface {
	UserByUID(ctx context.Context, uid string) (User, error)
	RoleOf(ctx context.Context, uid string) (string, error)
	CreateUser(ctx context.Context, reg Registration, passwordHash string) (User, error)
}

type Store struct {
	DB *pgxpool.Pool

	// NewCustomID is swapped in tests to force collisions.
	NewCustomID func() string
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db, NewCustomID: NewCustomID}
}

func (s *Store) UserByUID(ctx context.Context, uid string) (User, error) {
	var (
		out        User
		maxPct     *int
		paydayDay  *int
		minAmount  *float64
		maxAmount  *float64
		employerID string
	)
	err := s.DB.QueryRow(ctx, `
    SELECT u.uid, u.role, u.phone_number, u.email, u.custom_id,
           COALESCE(NULLIF(u.full_name, ''), w.full_name, ''),
           COALESCE(NULLIF(u.upi_id, ''), w.upi_id, ''),
           u.created_at,
           COALESCE(w.employer_id, ''),
           COALESCE(e.company_name, ''), COALESCE(e.gst_number, ''),
           e.max_percentage, e.payday_day, e.min_amount::float8, e.max_amount::float8
    FROM users u
    LEFT JOIN workers w ON w.user_uid = u.uid
    LEFT JOIN employers e ON e.id = u.uid
    WHERE u.uid = $1
  `, uid).Scan(&out.UID, &out.Role, &out.PhoneNumber, &out.Email, &out.CustomID,
		&out.FullName, &out.UPIID, &out.CreatedAt, &employerID,
		&out.CompanyName, &out.GSTNumber, &maxPct, &paydayDay, &minAmount, &maxAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	out.EmployerID = employerID
	if out.Role == RoleEmployer && maxPct != nil {
		cfg := wage.EmployerConfig{MaxPercentage: *maxPct, PaydayDay: *paydayDay, MinAmount: *minAmount, MaxAmount: *maxAmount}
		out.WithdrawalConfig = &cfg
	}
	return out, nil
}

func (s *Store) RoleOf(ctx context.Context, uid string) (string, error) {
	var role string
	err := s.DB.QueryRow(ctx, "SELECT role FROM users WHERE uid = $1", uid).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return role, err
}

// CreateUser inserts the account and its role-specific rows in one
// transaction. A worker claims the unlinked worker row an employer created
// for the same phone number. An employer gets an employers row with the
// default withdrawal config.
func (s *Store) CreateUser(ctx context.Context, reg Registration, passwordHash string) (User, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback(ctx)

	inserted := false
	for attempt := 0; attempt < customIDAttempts; attempt++ {
		var uid string
		err := tx.QueryRow(ctx, `
      INSERT INTO users (uid, role, phone_number, email, custom_id, password_hash)
      VALUES ($1,$2,$3,$4,$5,$6)
      ON CONFLICT DO NOTHING
      RETURNING uid
    `, reg.UID, reg.Role, reg.PhoneNumber, reg.Email, s.NewCustomID(), passwordHash).Scan(&uid)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE uid = $1)", reg.UID).Scan(&exists); err != nil {
				return User{}, err
			}
			if exists {
				// Registered concurrently; the first insert wins.
				if err := tx.Rollback(ctx); err != nil {
					return User{}, err
				}
				return s.UserByUID(ctx, reg.UID)
			}
			continue
		}
		if err != nil {
			return User{}, fmt.Errorf("insert user: %w", err)
		}
		inserted = true
		break
	}
	if !inserted {
		return User{}, ErrCustomIDExhausted
	}

	switch reg.Role {
	case RoleWorker:
		if reg.PhoneNumber != "" {
			if _, err := tx.Exec(ctx, `
        UPDATE workers SET user_uid = $1
        WHERE id = (
          SELECT id FROM workers
          WHERE phone_number = $2 AND user_uid IS NULL
          ORDER BY joined_at
          LIMIT 1
        )
      `, reg.UID, reg.PhoneNumber); err != nil {
				return User{}, fmt.Errorf("claim worker row: %w", err)
			}
		}
	case RoleEmployer:
		def := wage.DefaultEmployerConfig()
		if _, err := tx.Exec(ctx, `
      INSERT INTO employers (id, phone_number, max_percentage, payday_day, min_amount, max_amount)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, reg.UID, reg.PhoneNumber, def.MaxPercentage, def.PaydayDay, def.MinAmount, def.MaxAmount); err != nil {
			return User{}, fmt.Errorf("insert employer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return s.UserByUID(ctx, reg.UID)
}
