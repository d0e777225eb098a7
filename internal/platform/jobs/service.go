package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"earnedpay/internal/platform/config"
	"earnedpay/internal/platform/notify"
)

const (
	JobNotification   = "notification"
	JobPaydayReminder = "payday_reminder"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const queueSize = 128

// RunLog persists one row per job execution.
type RunLog interface {
	Begin(ctx context.Context, jobType, subject string) (int64, error)
	Finish(ctx context.Context, id int64, status string, details []byte) error
}

// ReminderSource lists the reminders due at now.
type ReminderSource func(ctx context.Context, now time.Time) ([]notify.Message, error)

type Service struct {
	Runs     RunLog
	Notifier notify.Notifier
	Interval time.Duration

	reminders ReminderSource
	queue     chan job
}

type job struct {
	Type    string
	Subject string
	Run     func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, notifier notify.Notifier) *Service {
	var runs RunLog = nopRunLog{}
	if db != nil {
		runs = &dbRunLog{DB: db}
	}
	return &Service{
		Runs:     runs,
		Notifier: notifier,
		Interval: cfg.PaydayReminderInterval,
		queue:    make(chan job, queueSize),
	}
}

// SetReminderSource must be called before Start.
func (s *Service) SetReminderSource(src ReminderSource) {
	s.reminders = src
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 && s.reminders != nil {
		go s.scheduleReminders(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType, subject string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Subject: subject, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "subject", subject)
	}
}

// Notify queues msg for delivery. Delivery failures are logged, never
// returned to the request that triggered them.
func (s *Service) Notify(msg notify.Message) {
	s.Enqueue(JobNotification, msg.Subject, func(ctx context.Context) (any, error) {
		return map[string]string{"subject": msg.Subject}, s.Notifier.Notify(ctx, msg)
	})
}

func (s *Service) RunNow(ctx context.Context, jobType, subject string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Subject: subject, Run: run})
}

// SendReminders runs one reminder sweep synchronously.
func (s *Service) SendReminders(ctx context.Context, now time.Time) (int, error) {
	if s.reminders == nil {
		return 0, nil
	}
	details, err := s.RunNow(ctx, JobPaydayReminder, now.Format(time.DateOnly), func(ctx context.Context) (any, error) {
		msgs, err := s.reminders(ctx, now)
		if err != nil {
			return nil, err
		}
		sent := 0
		for _, msg := range msgs {
			if err := s.Notifier.Notify(ctx, msg); err != nil {
				slog.Warn("payday reminder failed", "subject", msg.Subject, "err", err)
				continue
			}
			sent++
		}
		return map[string]int{"due": len(msgs), "sent": sent}, nil
	})
	if err != nil {
		return 0, err
	}
	return details.(map[string]int)["sent"], nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "subject", j.Subject, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.Runs.Begin(ctx, j.Type, j.Subject)
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != 0 {
		if updErr := s.Runs.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleReminders(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.SendReminders(ctx, now.UTC()); err != nil {
				slog.Warn("payday reminder sweep failed", "err", err)
			}
		}
	}
}

type dbRunLog struct {
	DB *pgxpool.Pool
}

func (l *dbRunLog) Begin(ctx context.Context, jobType, subject string) (int64, error) {
	var id int64
	err := l.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, subject, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, jobType, subject, StatusRunning).Scan(&id)
	return id, err
}

func (l *dbRunLog) Finish(ctx context.Context, id int64, status string, details []byte) error {
	_, err := l.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, id)
	return err
}

type nopRunLog struct{}

func (nopRunLog) Begin(context.Context, string, string) (int64, error) { return 0, nil }

func (nopRunLog) Finish(context.Context, int64, string, []byte) error { return nil }
