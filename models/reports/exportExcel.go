package reports

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/xuri/excelize/v2"
)

const (
	SheetAllStatus = "All Equipment Status"
	SheetMatched   = "Matched Data"
	SheetUnmatched = "Unmatched Tag Numbers"

	// HighlightColor is the font colour of pending rows on the all-status sheet.
	HighlightColor = "FF0000"

	ContentTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportFileName is the download name of a camp report.
func ReportFileName(camp string) string {
	return camp + "_report.xlsx"
}

// ExportExcel renders a reconciliation as a workbook with the all-status,
// matched and unmatched sheets, in that order.
func ExportExcel(rec *Reconciliation) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := WriteExcel(&buf, rec); err != nil {
		return nil, err
	}
	return &buf, nil
}

func WriteExcel(w io.Writer, rec *Reconciliation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAllStatus); err != nil {
		return err
	}
	for _, name := range []string{SheetMatched, SheetUnmatched} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: HighlightColor}})
	if err != nil {
		return err
	}

	sheets := []struct {
		name      string
		rows      []models.ReportRow
		highlight bool
	}{
		{SheetAllStatus, rec.All, true},
		{SheetMatched, rec.Matched, false},
		{SheetUnmatched, rec.Unmatched, false},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.rows, headerStyle); err != nil {
			return fmt.Errorf("write sheet %q: %w", s.name, err)
		}
		if s.highlight {
			if err := highlightPending(f, s.name, s.rows, highlightStyle); err != nil {
				return fmt.Errorf("highlight sheet %q: %w", s.name, err)
			}
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, rows []models.ReportRow, headerStyle int) error {
	lastCol, err := excelize.ColumnNumberToName(len(models.ReportColumns))
	if err != nil {
		return err
	}
	for i, h := range models.ReportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return err
	}

	for r, row := range rows {
		for c, v := range row.Values() {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

// highlightPending recolours every cell of rows still waiting for a job.
// Values are left as written.
func highlightPending(f *excelize.File, sheet string, rows []models.ReportRow, style int) error {
	lastCol, err := excelize.ColumnNumberToName(len(models.ReportColumns))
	if err != nil {
		return err
	}
	for r, row := range rows {
		if !row.IsPendingJobCreation() {
			continue
		}
		n := r + 2
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", n), fmt.Sprintf("%s%d", lastCol, n), style); err != nil {
			return err
		}
	}
	return nil
}
