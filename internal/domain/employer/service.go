package employer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/domain/worker"
	"earnedpay/internal/platform/metrics"
	"earnedpay/internal/platform/notify"
)

var phonePattern = regexp.MustCompile(`^\+91\d{10}$`)

type Service struct {
	Store   StoreAPI
	Audit   audit.Recorder
	Metrics *metrics.Collector
	Now     func() time.Time
}

func NewService(store StoreAPI, recorder audit.Recorder, collector *metrics.Collector) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{Store: store, Audit: recorder, Metrics: collector, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

func (s *Service) Profile(ctx context.Context, id string) (Employer, error) {
	e, err := s.Store.Employer(ctx, id)
	if err != nil {
		return Employer{}, err
	}
	e.WithdrawalConfig = e.WithdrawalConfig.WithDefaults()
	return e, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, upd Update) error {
	if upd.IsEmpty() {
		return ErrEmptyUpdate
	}
	if upd.PhoneNumber != nil {
		phone := strings.TrimSpace(*upd.PhoneNumber)
		if !phonePattern.MatchString(phone) {
			return ErrInvalidPhone
		}
		upd.PhoneNumber = &phone
	}
	if upd.WithdrawalConfig != nil {
		if err := upd.WithdrawalConfig.Validate(); err != nil {
			return err
		}
		cfg := upd.WithdrawalConfig.WithDefaults()
		upd.WithdrawalConfig = &cfg
	}

	before, err := s.Store.Employer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateEmployer(ctx, id, upd); err != nil {
		return err
	}
	if upd.WithdrawalConfig != nil {
		if err := s.Audit.Record(ctx, audit.Entry{
			ActorUID:   id,
			Action:     audit.ActionConfigUpdated,
			EntityType: "employer",
			EntityID:   id,
			Before:     before.WithdrawalConfig,
			After:      upd.WithdrawalConfig,
		}); err != nil {
			slog.Warn("audit config update", "employer_id", id, "err", err)
		}
	}
	return nil
}

// Workers lists active workers with their current month earnings.
func (s *Service) Workers(ctx context.Context, employerID string) ([]worker.Worker, error) {
	now := s.now()
	e, err := s.Store.Employer(ctx, employerID)
	if err != nil {
		return nil, err
	}
	workers, err := s.Store.ListWorkers(ctx, employerID, wage.CycleMonth(now))
	if err != nil {
		return nil, err
	}
	payday := wage.NextPayday(e.WithdrawalConfig.WithDefaults().PaydayDay, now)
	for i := range workers {
		workers[i].NextPayday = payday
	}
	return workers, nil
}

func (s *Service) AddWorker(ctx context.Context, employerID string, w NewWorker) (string, error) {
	w = w.normalize()
	if w.FullName == "" {
		return "", fmt.Errorf("%w: full name is required", ErrInvalidWorker)
	}
	if !phonePattern.MatchString(w.PhoneNumber) {
		return "", ErrInvalidPhone
	}
	if !wage.ValidUPI(w.UPIID) {
		return "", fmt.Errorf("%w: invalid UPI ID", ErrInvalidWorker)
	}
	id, err := s.Store.AddWorker(ctx, employerID, wage.CycleMonth(s.now()), w)
	if err != nil {
		return "", err
	}
	if err := s.Audit.Record(ctx, audit.Entry{
		ActorUID:   employerID,
		Action:     audit.ActionWorkerAdded,
		EntityType: "worker",
		EntityID:   id,
		After:      w,
	}); err != nil {
		slog.Warn("audit worker add", "worker_id", id, "err", err)
	}
	return id, nil
}

// RecordAttendance validates every entry before storing any of them.
func (s *Service) RecordAttendance(ctx context.Context, employerID string, entries []wage.AttendanceEntry) (AttendanceResult, error) {
	if len(entries) == 0 {
		return AttendanceResult{}, ErrNoEntries
	}
	shifts := make([]Shift, 0, len(entries))
	lines := make([]AttendanceLine, 0, len(entries))
	for i, entry := range entries {
		entry.WorkerID = strings.TrimSpace(entry.WorkerID)
		if entry.Status == "" {
			entry.Status = wage.AttendanceStatusPresent
		}
		if err := wage.ValidateAttendance(entry); err != nil {
			return AttendanceResult{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		month, err := wage.EntryMonth(entry.Date)
		if err != nil {
			return AttendanceResult{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		earned := wage.ShiftEarnings(entry.HoursWorked, entry.WagePerHour)
		shifts = append(shifts, Shift{ID: uuid.NewString(), Entry: entry, Month: month, Earned: earned})
		lines = append(lines, AttendanceLine{WorkerID: entry.WorkerID, Date: entry.Date, Earned: earned})
	}

	if err := s.Store.RecordAttendance(ctx, employerID, shifts); err != nil {
		return AttendanceResult{}, err
	}
	s.Metrics.RecordAttendance(len(shifts))
	if err := s.Audit.Record(ctx, audit.Entry{
		ActorUID:   employerID,
		Action:     audit.ActionAttendanceRecorded,
		EntityType: "employer",
		EntityID:   employerID,
		After:      lines,
	}); err != nil {
		slog.Warn("audit attendance", "employer_id", employerID, "err", err)
	}
	return AttendanceResult{
		Success: true,
		Message: fmt.Sprintf("Processed %d attendance entries", len(lines)),
		Entries: lines,
	}, nil
}

// Dashboard aggregates the current month. The three lookups run
// concurrently.
func (s *Service) Dashboard(ctx context.Context, employerID string) (Dashboard, error) {
	now := s.now()
	month := wage.CycleMonth(now)

	var (
		out               Dashboard
		earned, withdrawn float64
		cfg               wage.EmployerConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.Store.Employer(gctx, employerID)
		cfg = e.WithdrawalConfig
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalWorkers, out.ActiveWorkers, err = s.Store.WorkerCounts(gctx, employerID)
		return err
	})
	g.Go(func() error {
		var err error
		earned, withdrawn, err = s.Store.MonthTotals(gctx, employerID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	out.TotalEarningsThisMonth = earned
	out.TotalWithdrawalsThisMonth = withdrawn
	out.PendingSettlement = wage.SumAmounts(earned, -withdrawn)
	out.NextPayday = wage.NextPayday(cfg.WithDefaults().PaydayDay, now)
	return out, nil
}

// PaydayReminders returns one reminder for each employer whose payday
// falls on the day after now.
func (s *Service) PaydayReminders(ctx context.Context, now time.Time) ([]notify.Message, error) {
	now = now.UTC()
	targets, err := s.Store.PaydayTargets(ctx, wage.CycleMonth(now))
	if err != nil {
		return nil, err
	}
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	var out []notify.Message
	for _, t := range targets {
		payday := wage.NextPayday(t.PaydayDay, now)
		if !payday.Equal(tomorrow) {
			continue
		}
		out = append(out, notify.PaydayReminder(t.PhoneNumber, t.Email, t.CompanyName, payday, t.Pending))
	}
	return out, nil
}
