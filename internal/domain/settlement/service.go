package settlement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"earnedpay/internal/domain/audit"
	"earnedpay/internal/domain/wage"
	"earnedpay/internal/platform/metrics"
	"earnedpay/internal/platform/report"
)

const (
	DefaultListLimit = 12
	MaxListLimit     = 100
)

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

func (s *Service) List(ctx context.Context, employerID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.Store.List(ctx, employerID, limit)
}

// Process settles every active ledger of month for the employer.
func (s *Service) Process(ctx context.Context, employerID, month string) (Result, error) {
	month = strings.TrimSpace(month)
	if _, err := time.Parse(wage.MonthLayout, month); err != nil {
		return Result{}, ErrInvalidMonth
	}

	settledAt := s.Now().UTC()
	out, err := s.Store.Settle(ctx, employerID, month, func(lines []Line) (Settlement, error) {
		return Build(employerID, month, settledAt, lines), nil
	})
	if err != nil {
		return Result{}, err
	}

	s.Metrics.RecordSettlement()
	if err := s.Audit.Record(ctx, audit.Entry{
		ActorUID:   employerID,
		Action:     audit.ActionSettlementProcessed,
		EntityType: "settlement",
		EntityID:   out.ID,
		After:      out.Summary,
	}); err != nil {
		slog.Warn("audit settlement", "settlement_id", out.ID, "err", err)
	}

	return Result{
		Success:          true,
		SettlementID:     out.ID,
		Message:          "Settlement processed for " + month,
		TotalEarnings:    out.TotalEarnings,
		TotalWithdrawals: out.TotalWithdrawals,
		NetSettlement:    out.NetSettlement,
		WorkersCount:     out.TotalWorkers,
	}, nil
}

// Build totals the ledger lines into a new settlement.
func Build(employerID, month string, settledAt time.Time, lines []Line) Settlement {
	earned := make([]float64, 0, len(lines))
	withdrawn := make([]float64, 0, len(lines))
	for i := range lines {
		lines[i].NetPaid = wage.SumAmounts(lines[i].Earned, -lines[i].Withdrawn)
		earned = append(earned, lines[i].Earned)
		withdrawn = append(withdrawn, lines[i].Withdrawn)
	}
	totalEarned := wage.SumAmounts(earned...)
	totalWithdrawn := wage.SumAmounts(withdrawn...)
	return Settlement{
		Summary: Summary{
			ID:               uuid.NewString(),
			Month:            month,
			TotalWorkers:     len(lines),
			TotalEarnings:    totalEarned,
			TotalWithdrawals: totalWithdrawn,
			NetSettlement:    wage.SumAmounts(totalEarned, -totalWithdrawn),
			SettledAt:        settledAt,
			Status:           StatusCompleted,
		},
		EmployerID: employerID,
		Lines:      lines,
	}
}

// Statement writes the PDF statement of a settlement owned by employerID.
func (s *Service) Statement(ctx context.Context, employerID, id string, w io.Writer) error {
	st, err := s.Store.Get(ctx, employerID, id)
	if err != nil {
		return err
	}
	doc := report.Statement{
		SettlementID:     st.ID,
		CompanyName:      st.CompanyName,
		GSTNumber:        st.GSTNumber,
		Month:            st.Month,
		SettledAt:        st.SettledAt,
		TotalEarnings:    st.TotalEarnings,
		TotalWithdrawals: st.TotalWithdrawals,
		NetSettlement:    st.NetSettlement,
	}
	for _, l := range st.Lines {
		doc.Lines = append(doc.Lines, report.Line{
			WorkerName: l.WorkerName,
			Phone:      l.Phone,
			Earned:     l.Earned,
			Withdrawn:  l.Withdrawn,
			Net:        l.NetPaid,
		})
	}
	if err := report.RenderStatement(w, doc); err != nil {
		return fmt.Errorf("render statement %s: %w", id, err)
	}
	return nil
}
