// Package report renders settlement statements as PDF.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"earnedpay/internal/domain/wage"
)

var ErrEmptyStatement = errors.New("statement has no worker lines")

type Line struct {
	WorkerName string
	Phone      string
	Earned     float64
	Withdrawn  float64
	Net        float64
}

type Statement struct {
	SettlementID     string
	CompanyName      string
	GSTNumber        string
	Month            string
	SettledAt        time.Time
	TotalEarnings    float64
	TotalWithdrawals float64
	NetSettlement    float64
	Lines            []Line
}

var columnWidths = []float64{60, 40, 30, 30, 30}

func RenderStatement(w io.Writer, s Statement) error {
	if len(s.Lines) == 0 {
		return ErrEmptyStatement
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Settlement %s", s.Month), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Settlement Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employer: %s", s.CompanyName))
	pdf.Ln(6)
	if s.GSTNumber != "" {
		pdf.Cell(0, 7, fmt.Sprintf("GST: %s", s.GSTNumber))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Month: %s", s.Month))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Settled: %s", s.SettledAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Reference: %s", s.SettlementID))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for i, header := range []string{"Worker", "Phone", "Earned", "Withdrawn", "Net"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(columnWidths[i], 7, header, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range s.Lines {
		pdf.CellFormat(columnWidths[0], 6, line.WorkerName, "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[1], 6, line.Phone, "", 0, "L", false, 0, "")
		pdf.CellFormat(columnWidths[2], 6, Amount(line.Earned), "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[3], 6, Amount(line.Withdrawn), "", 0, "R", false, 0, "")
		pdf.CellFormat(columnWidths[4], 6, Amount(line.Net), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(columnWidths[0]+columnWidths[1], 7, fmt.Sprintf("Total (%d workers)", len(s.Lines)), "T", 0, "L", false, 0, "")
	pdf.CellFormat(columnWidths[2], 7, Amount(s.TotalEarnings), "T", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[3], 7, Amount(s.TotalWithdrawals), "T", 0, "R", false, 0, "")
	pdf.CellFormat(columnWidths[4], 7, Amount(s.NetSettlement), "T", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// Amount formats rupees for the PDF core fonts, which lack the rupee sign.
func Amount(v float64) string {
	return strings.Replace(wage.FormatRupees(v), "₹", "Rs. ", 1)
}
