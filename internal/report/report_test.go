package report_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"federate/internal/report"
	"federate/internal/runs"
)

func TestExportWritesSummaryAndFiles(t *testing.T) {
	run := &runs.Run{
		ID:         7,
		MasterName: "Campus",
		MasterPath: "/models/Campus.nwd",
		PlanPath:   "/plans/campus.yaml",
		Status:     runs.StatusCompleted,
		CreatedAt:  time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 2, 10, 10, 15, 0, 0, time.UTC),
	}
	files := []*runs.FileRecord{
		{Group: "Architecture", SourcePath: "/cad/tower.rvt", State: runs.FileStatePublished, FinalPath: "/cad/tower.nwc"},
		{Group: "MEP", SourcePath: "/cad/piping.dwg", State: runs.FileStateConvertFailed, Detail: "exit status 4"},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := report.Export(path, run, files); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	status, err := f.GetCellValue("Run", "B5")
	if err != nil {
		t.Fatalf("read status cell: %v", err)
	}
	if status != string(runs.StatusCompleted) {
		t.Fatalf("unexpected status cell: %q", status)
	}

	rows, err := f.GetRows("Files")
	if err != nil {
		t.Fatalf("read files sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Architecture" || rows[1][2] != string(runs.FileStatePublished) {
		t.Fatalf("unexpected first file row: %v", rows[1])
	}
	if rows[2][4] != "exit status 4" {
		t.Fatalf("expected failure detail in last column: %v", rows[2])
	}
}

func TestExportRequiresRun(t *testing.T) {
	if err := report.Export(filepath.Join(t.TempDir(), "r.xlsx"), nil, nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestDefaultPath(t *testing.T) {
	got := report.DefaultPath("/tmp/reports", &runs.Run{ID: 12})
	if got != "/tmp/reports/federate-run-12.xlsx" {
		t.Fatalf("unexpected default path: %q", got)
	}
}
