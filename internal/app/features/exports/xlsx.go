// internal/app/features/exports/xlsx.go
package exports

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/store/queries/leadqueries"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Leads"

// writeExcel renders rows as a single-sheet workbook at path with a bold,
// frozen header row.
func writeExcel(path string, rows []leadqueries.LeadRow, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	for i, r := range rows {
		values := make([]interface{}, len(columns))
		for j, c := range columns {
			if c.Money {
				values[j] = moneyValue(r.Value)
				continue
			}
			values[j] = c.Text(r, loc)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for i, c := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, c.XLSXWidth); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
		if c.Money && len(rows) > 0 {
			if err := f.SetCellStyle(sheetName, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, len(rows)+1), money); err != nil {
				return fmt.Errorf("apply money style: %w", err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
