package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/transport/http/api"
)

var (
	ErrIdempotencyConflict   = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInProgress = errors.New("request with this idempotency key is in progress")
)

const pendingStatus = 0

// StoredResponse is a response recorded under an idempotency key.
type StoredResponse struct {
	Status int
	Body   []byte
}

type IdempotencyBackend interface {
	// Claim reserves key for a new request. It returns the stored response
	// when the key was already completed.
	Claim(ctx context.Context, userID, endpoint, key, requestHash string) (*StoredResponse, error)
	Complete(ctx context.Context, userID, endpoint, key string, resp StoredResponse) error
	Release(ctx context.Context, userID, endpoint, key string) error
}

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Claim(ctx context.Context, userID, endpoint, key, requestHash string) (*StoredResponse, error) {
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, key, endpoint, request_hash, status_code, response_json)
    VALUES ($1, $2, $3, $4, $5, 'null'::jsonb)
    ON CONFLICT (user_id, key, endpoint) DO NOTHING
  `, userID, key, endpoint, requestHash, pendingStatus)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var (
		storedHash string
		stored     StoredResponse
	)
	err = s.db.QueryRow(ctx, `
    SELECT request_hash, status_code, response_json::text
    FROM idempotency_keys
    WHERE user_id = $1 AND key = $2 AND endpoint = $3
  `, userID, key, endpoint).Scan(&storedHash, &stored.Status, &stored.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		// released between the insert and the read
		return nil, ErrIdempotencyInProgress
	}
	if err != nil {
		return nil, err
	}
	if storedHash != requestHash {
		return nil, ErrIdempotencyConflict
	}
	if stored.Status == pendingStatus {
		return nil, ErrIdempotencyInProgress
	}
	return &stored, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, userID, endpoint, key string, resp StoredResponse) error {
	body := string(resp.Body)
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		body = "null"
	}
	_, err := s.db.Exec(ctx, `
    UPDATE idempotency_keys
    SET status_code = $4, response_json = $5::jsonb
    WHERE user_id = $1 AND key = $2 AND endpoint = $3
  `, userID, key, endpoint, resp.Status, body)
	return err
}

func (s *IdempotencyStore) Release(ctx context.Context, userID, endpoint, key string) error {
	_, err := s.db.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE user_id = $1 AND key = $2 AND endpoint = $3 AND status_code = $4
  `, userID, key, endpoint, pendingStatus)
	return err
}

type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotent replays the stored response when a request repeats its
// Idempotency-Key. Requests without the header run normally. Server errors
// are not stored so the key can be retried.
func Idempotent(backend IdempotencyBackend, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			user, ok := GetUser(r.Context())
			if key == "" || backend == nil || !ok {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "Invalid request body", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			stored, err := backend.Claim(r.Context(), user.UID, endpoint, key, RequestHash(payload))
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusUnprocessableEntity, "idempotency_conflict", "Idempotency-Key was used with a different request", reqID)
				return
			case errors.Is(err, ErrIdempotencyInProgress):
				api.Fail(w, http.StatusConflict, "idempotency_in_progress", "A request with this Idempotency-Key is in progress", reqID)
				return
			case err != nil:
				slog.Error("idempotency claim failed", "endpoint", endpoint, "err", err)
				api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "Request could not be processed", reqID)
				return
			case stored != nil:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := &bufferedResponse{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			ctx := context.WithoutCancel(r.Context())
			if rec.status == 0 || rec.status >= http.StatusInternalServerError {
				if err := backend.Release(ctx, user.UID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "endpoint", endpoint, "err", err)
				}
				return
			}
			if err := backend.Complete(ctx, user.UID, endpoint, key, StoredResponse{Status: rec.status, Body: rec.body.Bytes()}); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
			}
		})
	}
}
