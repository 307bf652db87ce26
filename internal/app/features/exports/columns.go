// internal/app/features/exports/columns.go
package exports

import (
	"strings"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/shopspring/decimal"
)

// column is one field of the export table, shared by both formats.
type column struct {
	Header    string
	PDFWidth  float64 // mm
	XLSXWidth float64 // characters
	Money     bool
	Text      func(r leadqueries.LeadRow, loc *time.Location) string
}

var columns = []column{
	{Header: "Name", PDFWidth: 34, XLSXWidth: 24, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Name }},
	{Header: "Company", PDFWidth: 34, XLSXWidth: 24, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Company }},
	{Header: "Email", PDFWidth: 44, XLSXWidth: 30, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Email }},
	{Header: "Phone", PDFWidth: 26, XLSXWidth: 16, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Phone }},
	{Header: "Value", PDFWidth: 22, XLSXWidth: 14, Money: true, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return formatMoney(r.Value) }},
	{Header: "Stage", PDFWidth: 24, XLSXWidth: 16, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Stage }},
	{Header: "Source", PDFWidth: 22, XLSXWidth: 16, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Source }},
	{Header: "Country", PDFWidth: 20, XLSXWidth: 14, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Country }},
	{Header: "Owner", PDFWidth: 27, XLSXWidth: 20, Text: func(r leadqueries.LeadRow, _ *time.Location) string { return r.Owner }},
	{Header: "Created", PDFWidth: 24, XLSXWidth: 14, Text: func(r leadqueries.LeadRow, loc *time.Location) string { return formatDate(r.CreatedAt, loc) }},
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return leadqueries.NotAvailable
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02")
}

// formatMoney renders v with two decimals and thousands separators.
func formatMoney(v float64) string {
	s := decimal.NewFromFloat(v).Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}

// moneyValue is the cell value written for a Money column.
func moneyValue(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
