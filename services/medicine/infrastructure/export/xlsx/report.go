// Package xlsx renders the medicine inventory report as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ghuser/medshelf/services/medicine/domain/models"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	medicinesSheet = "Medicines"
	summarySheet   = "Summary"
	timeLayout     = "2006-01-02 15:04:05"
)

var headers = []string{"ID", "Name", "Brand", "Dosage", "Quantity", "Lot", "Expires", "Notes", "Updated"}

var colWidths = map[string]float64{
	"A": 8, "B": 28, "C": 18, "D": 12, "E": 10, "F": 14, "G": 12, "H": 40, "I": 20,
}

// Summary is the aggregate block written to the Summary sheet.
type Summary struct {
	Search             string
	GeneratedAt        time.Time
	Stats              models.Stats
	LowStockThreshold  int
	ExpiringWithinDays int
}

// Filename returns the download name for a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("medshelf-report-%s.xlsx", t.Format("20060102"))
}

// Write renders meds and s into a workbook and writes it to w.
func Write(w io.Writer, meds []*models.Medicine, s Summary) error {
	f, err := Build(meds, s)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build returns the report workbook: one row per medicine on the Medicines
// sheet, low-stock quantities highlighted, and the aggregates on Summary.
func Build(meds []*models.Medicine, s Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", medicinesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeMedicines(f, meds, s.LowStockThreshold); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, s); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeMedicines(f *excelize.File, meds []*models.Medicine, threshold int) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E7EEF7"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lowStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})
	if err != nil {
		return fmt.Errorf("low stock style: %w", err)
	}

	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(medicinesSheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(medicinesSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, m := range meds {
		r := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, r)
		values := []any{
			m.ID,
			m.Name.String(),
			deref(m.Brand),
			deref(m.Dosage),
			m.Quantity,
			deref(m.Lot),
			dateString(m.ExpiresAt),
			deref(m.Notes),
			m.UpdatedAt.UTC().Format(timeLayout),
		}
		if err := f.SetSheetRow(medicinesSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
		if m.IsLowStock(threshold) {
			qty, _ := excelize.CoordinatesToCellName(5, r)
			if err := f.SetCellStyle(medicinesSheet, qty, qty, lowStyle); err != nil {
				return fmt.Errorf("style row %d: %w", r, err)
			}
		}
	}

	for col, width := range colWidths {
		if err := f.SetColWidth(medicinesSheet, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	return f.SetPanes(medicinesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, s Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	search := s.Search
	if search == "" {
		search = "(all)"
	}
	rows := [][]any{
		{"Generated", s.GeneratedAt.UTC().Format(timeLayout)},
		{"Search", search},
		{"Total medicines", s.Stats.Total},
		{fmt.Sprintf("Low stock (<= %d)", s.LowStockThreshold), s.Stats.LowStock},
		{fmt.Sprintf("Expiring within %d days", s.ExpiringWithinDays), s.Stats.ExpiringSoon},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateString(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
