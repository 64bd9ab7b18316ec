package transfer_test

import (
	"os"
	"path/filepath"
	"testing"

	"federate/internal/logging"
	"federate/internal/runs"
	"federate/internal/transfer"
)

func openStore(t *testing.T) *runs.Store {
	t.Helper()
	store, err := runs.OpenPath(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRecord(t *testing.T, store *runs.Store, runID int64, source, converted string) *runs.FileRecord {
	t.Helper()
	record := &runs.FileRecord{
		RunID:         runID,
		Group:         "g",
		SourcePath:    source,
		ConvertedPath: converted,
		State:         runs.FileStateConverted,
	}
	if err := store.RecordFile(t.Context(), record); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}
	return record
}

func TestPublishFilesMovesNextToSources(t *testing.T) {
	store := openStore(t)
	run, err := store.NewRun(t.Context(), "/p.yaml", "m")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	sourceDir := t.TempDir()
	staging := t.TempDir()
	source := filepath.Join(sourceDir, "tower.rvt")
	staged := filepath.Join(staging, "tower.nwc")
	if err := os.WriteFile(staged, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	record := newRecord(t, store, run.ID, source, staged)

	publisher := transfer.NewPublisher(store, logging.NewNop(), transfer.Options{Retries: 1, Overwrite: true})
	outcome, err := publisher.PublishFiles(t.Context(), []*runs.FileRecord{record})
	if err != nil {
		t.Fatalf("PublishFiles: %v", err)
	}
	if outcome.Published != 1 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	want := filepath.Join(sourceDir, "tower.nwc")
	if record.FinalPath != want {
		t.Fatalf("final path: got %q want %q", record.FinalPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("published file missing: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staging copy should be gone: %v", err)
	}

	persisted, err := store.FilesForRun(t.Context(), run.ID)
	if err != nil {
		t.Fatalf("FilesForRun: %v", err)
	}
	if persisted[0].State != runs.FileStatePublished {
		t.Fatalf("state not persisted: %q", persisted[0].State)
	}
}

func TestPublishFilesIsolatesFailures(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not constrain root")
	}
	store := openStore(t)
	run, err := store.NewRun(t.Context(), "/p.yaml", "m")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	staging := t.TempDir()
	goodDir := t.TempDir()

	// A destination directory without write permission simulates the locked
	// destination case.
	lockedDir := filepath.Join(t.TempDir(), "locked")
	if err := os.MkdirAll(lockedDir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(lockedDir, 0o755) })

	stagedLocked := filepath.Join(staging, "locked.nwc")
	stagedGood := filepath.Join(staging, "good.nwc")
	for _, path := range []string{stagedLocked, stagedGood} {
		if err := os.WriteFile(path, []byte("model"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	failing := newRecord(t, store, run.ID, filepath.Join(lockedDir, "locked.rvt"), stagedLocked)
	succeeding := newRecord(t, store, run.ID, filepath.Join(goodDir, "good.rvt"), stagedGood)

	publisher := transfer.NewPublisher(store, logging.NewNop(), transfer.Options{Retries: 2, Overwrite: true})
	outcome, err := publisher.PublishFiles(t.Context(), []*runs.FileRecord{failing, succeeding})
	if err != nil {
		t.Fatalf("PublishFiles: %v", err)
	}

	if outcome.Published != 1 || outcome.Failed != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if failing.State != runs.FileStatePublishFailed {
		t.Fatalf("failing record state: %q", failing.State)
	}
	if failing.Detail == "" {
		t.Fatal("expected failure detail")
	}
	if _, err := os.Stat(stagedLocked); err != nil {
		t.Fatalf("staging copy of failed transfer must be retained: %v", err)
	}
	if succeeding.State != runs.FileStatePublished {
		t.Fatalf("succeeding record state: %q", succeeding.State)
	}
	if _, err := os.Stat(filepath.Join(goodDir, "good.nwc")); err != nil {
		t.Fatalf("good file not published: %v", err)
	}
}

func TestPublishFilesSkipsUnconverted(t *testing.T) {
	store := openStore(t)
	run, err := store.NewRun(t.Context(), "/p.yaml", "m")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	record := &runs.FileRecord{
		RunID:      run.ID,
		Group:      "g",
		SourcePath: "/src/a.rvt",
		State:      runs.FileStateConvertFailed,
	}
	if err := store.RecordFile(t.Context(), record); err != nil {
		t.Fatalf("RecordFile: %v", err)
	}

	publisher := transfer.NewPublisher(store, logging.NewNop(), transfer.Options{Retries: 1})
	outcome, err := publisher.PublishFiles(t.Context(), []*runs.FileRecord{record})
	if err != nil {
		t.Fatalf("PublishFiles: %v", err)
	}
	if outcome.Skipped != 1 || outcome.Published != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestPublishFilesRespectsOverwriteOff(t *testing.T) {
	store := openStore(t)
	run, err := store.NewRun(t.Context(), "/p.yaml", "m")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}

	sourceDir := t.TempDir()
	staging := t.TempDir()
	staged := filepath.Join(staging, "tower.nwc")
	if err := os.WriteFile(staged, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(sourceDir, "tower.nwc")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	record := newRecord(t, store, run.ID, filepath.Join(sourceDir, "tower.rvt"), staged)

	publisher := transfer.NewPublisher(store, logging.NewNop(), transfer.Options{Retries: 1, Overwrite: false})
	outcome, err := publisher.PublishFiles(t.Context(), []*runs.FileRecord{record})
	if err != nil {
		t.Fatalf("PublishFiles: %v", err)
	}
	if outcome.Failed != 1 {
		t.Fatalf("expected overwrite refusal, got %+v", outcome)
	}
	got, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Fatalf("existing file clobbered: %q", got)
	}
}

func TestPublishMaster(t *testing.T) {
	store := openStore(t)
	staging := t.TempDir()
	staged := filepath.Join(staging, "site.nwd")
	if err := os.WriteFile(staged, []byte("master"), 0o644); err != nil {
		t.Fatal(err)
	}
	final := filepath.Join(t.TempDir(), "models", "site.nwd")

	publisher := transfer.NewPublisher(store, logging.NewNop(), transfer.Options{Retries: 1, Overwrite: true})
	if err := publisher.PublishMaster(t.Context(), staged, final); err != nil {
		t.Fatalf("PublishMaster: %v", err)
	}
	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "master" {
		t.Fatalf("master content mismatch: %q", got)
	}
}
