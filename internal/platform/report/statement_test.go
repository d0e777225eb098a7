package report

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestRenderStatement(t *testing.T) {
	var buf bytes.Buffer
	err := RenderStatement(&buf, Statement{
		SettlementID:     "s-1",
		CompanyName:      "Acme Builders",
		Month:            "2026-03",
		SettledAt:        time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		TotalEarnings:    12000,
		TotalWithdrawals: 3000,
		NetSettlement:    9000,
		Lines: []Line{
			{WorkerName: "Asha", Phone: "+919876543210", Earned: 8000, Withdrawn: 2000, Net: 6000},
			{WorkerName: "Ravi", Phone: "+919812345678", Earned: 4000, Withdrawn: 1000, Net: 3000},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected a pdf, got %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
}

func TestRenderStatementRequiresLines(t *testing.T) {
	if err := RenderStatement(&bytes.Buffer{}, Statement{Month: "2026-03"}); !errors.Is(err, ErrEmptyStatement) {
		t.Fatalf("expected empty statement error, got %v", err)
	}
}

func TestAmount(t *testing.T) {
	if got := Amount(125000.5); got != "Rs. 1,25,000.50" {
		t.Fatalf("unexpected amount %q", got)
	}
}
