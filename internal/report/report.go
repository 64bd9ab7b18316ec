package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"federate/internal/runs"
)

const (
	summarySheet = "Run"
	filesSheet   = "Files"
)

// Export writes a spreadsheet describing one run: a summary sheet plus one
// row per selected source file. The file is created or overwritten at path.
func Export(path string, run *runs.Run, files []*runs.FileRecord) error {
	if run == nil {
		return fmt.Errorf("run is required")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, run, files); err != nil {
		return err
	}
	if err := writeFiles(f, files); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, run *runs.Run, files []*runs.FileRecord) error {
	published, failed := 0, 0
	for _, record := range files {
		switch record.State {
		case runs.FileStatePublished:
			published++
		case runs.FileStateConvertFailed, runs.FileStatePublishFailed:
			failed++
		}
	}

	rows := [][2]any{
		{"Run", run.ID},
		{"Master", run.MasterName},
		{"Master path", run.MasterPath},
		{"Plan", run.PlanPath},
		{"Status", string(run.Status)},
		{"Error", run.ErrorMessage},
		{"Started", formatTime(run.CreatedAt)},
		{"Updated", formatTime(run.UpdatedAt)},
		{"Files selected", len(files)},
		{"Files published", published},
		{"Files failed", failed},
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, row := range rows {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, labelCell, row[0]); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		if err := f.SetCellStyle(summarySheet, labelCell, labelCell, bold); err != nil {
			return fmt.Errorf("style summary: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valueCell, row[1]); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 40)
}

func writeFiles(f *excelize.File, files []*runs.FileRecord) error {
	if _, err := f.NewSheet(filesSheet); err != nil {
		return fmt.Errorf("create files sheet: %w", err)
	}

	header := []any{"Group", "Source", "State", "Published To", "Detail"}
	if err := f.SetSheetRow(filesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(filesSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, record := range files {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			record.Group,
			record.SourcePath,
			string(record.State),
			record.FinalPath,
			record.Detail,
		}
		if err := f.SetSheetRow(filesSheet, cell, &row); err != nil {
			return fmt.Errorf("write file row: %w", err)
		}
	}
	return f.SetColWidth(filesSheet, "A", "E", 45)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// DefaultPath returns a report file name derived from the run, placed in dir.
func DefaultPath(dir string, run *runs.Run) string {
	return filepath.Join(dir, fmt.Sprintf("federate-run-%d.xlsx", run.ID))
}
