package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"earnedpay/internal/client"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/session"
)

type EmployerAPI interface {
	Dashboard(ctx context.Context, token string) (client.Dashboard, error)
	Workers(ctx context.Context, token string) ([]client.Worker, error)
	AddWorker(ctx context.Context, token string, worker client.NewWorker) (string, error)
	SubmitAttendance(ctx context.Context, token string, entries []wage.AttendanceEntry) (client.AttendanceResult, error)
	EmployerProfile(ctx context.Context, token string) (client.Employer, error)
	UpdateEmployerProfile(ctx context.Context, token string, update client.EmployerUpdate) error
	Settlements(ctx context.Context, token string) ([]client.SettlementSummary, error)
	ProcessSettlement(ctx context.Context, token, month string) (client.SettlementResult, error)
	SettlementStatement(ctx context.Context, token, settlementID string) ([]byte, error)
}

type EmployerPortal struct {
	session *session.Session
	api     EmployerAPI
	submit  sync.Mutex
}

func NewEmployerPortal(s *session.Session, api EmployerAPI) *EmployerPortal {
	return &EmployerPortal{session: s, api: api}
}

type PreviewLine struct {
	Entry  wage.AttendanceEntry
	Earned float64
}

// AttendancePreview is display-only. The backend computes the credited
// amounts on submit.
type AttendancePreview struct {
	Lines []PreviewLine
	Total float64
}

func (p *EmployerPortal) PreviewAttendance(entries []wage.AttendanceEntry) (AttendancePreview, error) {
	if _, err := authorize(p.session, session.RoleEmployer); err != nil {
		return AttendancePreview{}, err
	}
	return previewEntries(entries)
}

func previewEntries(entries []wage.AttendanceEntry) (AttendancePreview, error) {
	if len(entries) == 0 {
		return AttendancePreview{}, ErrNoEntries
	}
	preview := AttendancePreview{Lines: make([]PreviewLine, 0, len(entries))}
	amounts := make([]float64, 0, len(entries))
	for i, e := range entries {
		if err := wage.ValidateAttendance(e); err != nil {
			return AttendancePreview{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		earned := wage.ShiftEarnings(e.HoursWorked, e.WagePerHour)
		preview.Lines = append(preview.Lines, PreviewLine{Entry: e, Earned: earned})
		amounts = append(amounts, earned)
	}
	preview.Total = wage.SumAmounts(amounts...)
	return preview, nil
}

// SubmitAttendance validates every entry and posts the batch once.
func (p *EmployerPortal) SubmitAttendance(ctx context.Context, entries []wage.AttendanceEntry) (client.AttendanceResult, error) {
	if !p.submit.TryLock() {
		return client.AttendanceResult{}, ErrSubmissionInFlight
	}
	defer p.submit.Unlock()

	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return client.AttendanceResult{}, err
	}
	if _, err := previewEntries(entries); err != nil {
		return client.AttendanceResult{}, err
	}
	return p.api.SubmitAttendance(ctx, snap.Token, entries)
}

func (p *EmployerPortal) Dashboard(ctx context.Context) (client.Dashboard, error) {
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return client.Dashboard{}, err
	}
	d, err := p.api.Dashboard(ctx, snap.Token)
	if err != nil {
		return client.Dashboard{}, err
	}
	if !p.session.Current(snap.Epoch) {
		return client.Dashboard{}, ErrSessionChanged
	}
	return d, nil
}

func (p *EmployerPortal) Workers(ctx context.Context) ([]client.Worker, error) {
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return nil, err
	}
	workers, err := p.api.Workers(ctx, snap.Token)
	if err != nil {
		return nil, err
	}
	if !p.session.Current(snap.Epoch) {
		return nil, ErrSessionChanged
	}
	return workers, nil
}

func (p *EmployerPortal) AddWorker(ctx context.Context, w client.NewWorker) (string, error) {
	if w.FullName == "" || w.PhoneNumber == "" {
		return "", fmt.Errorf("full name and phone number are required")
	}
	if !wage.ValidUPI(w.UPIID) {
		return "", ErrInvalidUPI
	}
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return "", err
	}
	return p.api.AddWorker(ctx, snap.Token, w)
}

func (p *EmployerPortal) Profile(ctx context.Context) (client.Employer, error) {
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return client.Employer{}, err
	}
	e, err := p.api.EmployerProfile(ctx, snap.Token)
	if err != nil {
		return client.Employer{}, err
	}
	if !p.session.Current(snap.Epoch) {
		return client.Employer{}, ErrSessionChanged
	}
	return e, nil
}

func (p *EmployerPortal) UpdateProfile(ctx context.Context, update client.EmployerUpdate) error {
	if update.CompanyName == nil && update.PhoneNumber == nil && update.GSTNumber == nil && update.WithdrawalConfig == nil {
		return ErrEmptyUpdate
	}
	if update.WithdrawalConfig != nil {
		if err := update.WithdrawalConfig.Validate(); err != nil {
			return err
		}
	}
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return err
	}
	return p.api.UpdateEmployerProfile(ctx, snap.Token, update)
}

func (p *EmployerPortal) Settlements(ctx context.Context) ([]client.SettlementSummary, error) {
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return nil, err
	}
	list, err := p.api.Settlements(ctx, snap.Token)
	if err != nil {
		return nil, err
	}
	if !p.session.Current(snap.Epoch) {
		return nil, ErrSessionChanged
	}
	return list, nil
}

func (p *EmployerPortal) ProcessSettlement(ctx context.Context, month string) (client.SettlementResult, error) {
	if _, err := time.Parse(wage.MonthLayout, month); err != nil {
		return client.SettlementResult{}, ErrInvalidMonth
	}
	if !p.submit.TryLock() {
		return client.SettlementResult{}, ErrSubmissionInFlight
	}
	defer p.submit.Unlock()

	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return client.SettlementResult{}, err
	}
	return p.api.ProcessSettlement(ctx, snap.Token, month)
}

func (p *EmployerPortal) SettlementStatement(ctx context.Context, settlementID string) ([]byte, error) {
	snap, err := authorize(p.session, session.RoleEmployer)
	if err != nil {
		return nil, err
	}
	return p.api.SettlementStatement(ctx, snap.Token, settlementID)
}
