// internal/app/features/exports/pdf.go
package exports

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 6.0
)

// writePDF renders rows as a landscape A4 table at path. The title and
// column header repeat on every page.
func writePDF(path, title string, rows []leadqueries.LeadRow, generated time.Time, loc *time.Location) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin+5)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated %s  |  %d records",
			generated.In(loc).Format("2006-01-02 15:04 MST"), len(rows))), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(c.PDFWidth, pdfRowHeight+1, tr(c.Header), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8)

	if len(rows) == 0 {
		pdf.CellFormat(0, pdfRowHeight, "No leads match the selected filters.", "", 1, "L", false, 0, "")
	}
	_, pageH := pdf.GetPageSize()
	breakAt := pageH - (pdfMargin + 5)
	for i, r := range rows {
		if pdf.GetY()+pdfRowHeight > breakAt {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 8)
		}
		fill := i%2 == 1
		pdf.SetFillColor(246, 246, 246)
		for _, c := range columns {
			align := "L"
			if c.Money {
				align = "R"
			}
			text := fit(pdf, tr(c.Text(r, loc)), c.PDFWidth-2)
			pdf.CellFormat(c.PDFWidth, pdfRowHeight, text, "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit truncates s with an ellipsis so it renders within width. s is
// already translated to the single-byte core font encoding.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	const ellipsis = "..."
	for len(s) > 0 && pdf.GetStringWidth(s+ellipsis) > width {
		s = s[:len(s)-1]
	}
	return s + ellipsis
}
