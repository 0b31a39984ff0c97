package utilization

import (
	"bytes"
	"fmt"
	"time"

	"facilityhub/internal/domain"

	"github.com/phpdave11/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Resource", 70, "L"},
	{"Active", 20, "R"},
	{"Booked h", 28, "R"},
	{"Blackout h", 28, "R"},
	{"Available h", 30, "R"},
	{"Util. %", 24, "R"},
	{"Collected", 36, "R"},
}

// RenderPDF lays the reports out as one landscape A4 table.
func RenderPDF(reports []Report, window domain.Interval, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Facility utilization", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "FACILITY UTILIZATION REPORT")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Period    : %s to %s",
		window.Start.Format("2006-01-02 15:04"), window.End.Format("2006-01-02 15:04 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated : "+generatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	var booked, available, collected float64
	for _, r := range reports {
		row := []string{
			r.ResourceName,
			fmt.Sprintf("%d", r.ActiveBookings),
			fmt.Sprintf("%.2f", r.BookedHours),
			fmt.Sprintf("%.2f", r.BlackoutHours),
			fmt.Sprintf("%.2f", r.AvailableHours),
			fmt.Sprintf("%.2f", r.UtilizationPercent),
			fmt.Sprintf("%.2f", r.CollectedAmount),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, row[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
		booked += r.BookedHours
		available += r.AvailableHours
		collected += r.CollectedAmount
	}

	overall := 0.0
	if available > 0 {
		overall = round2(booked / available * 100)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Overall utilization: %.2f%%   Collected: %.2f", overall, round2(collected)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
