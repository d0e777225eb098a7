package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/requestctx"
)

const (
	ActionWithdrawalRequested = "withdrawal.requested"
	ActionWithdrawalCompleted = "withdrawal.completed"
	ActionWithdrawalFailed    = "withdrawal.failed"
	ActionAttendanceRecorded  = "attendance.recorded"
	ActionConfigUpdated       = "employer.config_updated"
	ActionWorkerAdded         = "worker.added"
	ActionSettlementProcessed = "settlement.processed"
	ActionUserRegistered      = "user.registered"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorUID   string          `json:"actor_uid"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	RequestID  string          `json:"request_id"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"created_at"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is what callers hand to Record.
type Entry struct {
	ActorUID   string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record stores the entry. Request id and client ip default to the values
// carried by ctx.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if e.RequestID == "" {
		e.RequestID = requestctx.GetRequestID(ctx)
	}
	if e.IP == "" {
		e.IP = requestctx.GetClientIP(ctx)
	}
	beforeJSON, err := marshalOptional(e.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(e.After)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_uid, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, e.ActorUID, e.Action, e.EntityType, e.EntityID, beforeJSON, afterJSON, e.RequestID, e.IP)
	return err
}

func (s *Service) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]Event, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, actor_uid, action, entity_type, entity_id, request_id, ip, created_at, before_json, after_json
    FROM audit_events
    WHERE entity_type = $1 AND entity_id = $2
    ORDER BY created_at DESC, id DESC
    LIMIT $3
  `, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorUID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
