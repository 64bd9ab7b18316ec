package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"federate/internal/config"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "runs.db"))
}

// OpenPath connects to the run database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewRun inserts a pending run for the given plan.
func (s *Store) NewRun(ctx context.Context, planPath, masterName string) (*Run, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batch_runs (
            run_uuid, plan_path, master_name, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		planPath,
		masterName,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Update persists mutable run fields.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is required")
	}
	run.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE batch_runs SET
            master_path = ?, status = ?, error_message = ?,
            progress_stage = ?, progress_message = ?, updated_at = ?
        WHERE id = ?`,
		run.MasterPath,
		string(run.Status),
		run.ErrorMessage,
		run.ProgressStage,
		run.ProgressMessage,
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %d: %w", run.ID, err)
	}
	return nil
}

// GetByID fetches a single run.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", id)
	}
	return run, err
}

// Latest returns the most recently created run, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" ORDER BY id DESC LIMIT 1")
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, rows.Err()
}

// RecordFile inserts a per-file outcome row and returns its ID.
func (s *Store) RecordFile(ctx context.Context, record *FileRecord) error {
	if record == nil {
		return errors.New("file record is required")
	}
	record.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_files (
            run_id, group_name, source_path, converted_path, final_path,
            state, detail, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Group,
		record.SourcePath,
		record.ConvertedPath,
		record.FinalPath,
		string(record.State),
		record.Detail,
		record.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	record.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// UpdateFile persists mutable per-file fields.
func (s *Store) UpdateFile(ctx context.Context, record *FileRecord) error {
	if record == nil {
		return errors.New("file record is required")
	}
	record.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		`UPDATE run_files SET
            converted_path = ?, final_path = ?, state = ?, detail = ?, updated_at = ?
        WHERE id = ?`,
		record.ConvertedPath,
		record.FinalPath,
		string(record.State),
		record.Detail,
		record.UpdatedAt.Format(time.RFC3339Nano),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update run file %d: %w", record.ID, err)
	}
	return nil
}

// FilesForRun returns the per-file outcomes of a run in insertion order.
func (s *Store) FilesForRun(ctx context.Context, runID int64) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, group_name, source_path, converted_path, final_path,
            state, detail, updated_at
        FROM run_files WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var result []*FileRecord
	for rows.Next() {
		record := &FileRecord{}
		var state, updated string
		if err := rows.Scan(
			&record.ID, &record.RunID, &record.Group, &record.SourcePath,
			&record.ConvertedPath, &record.FinalPath, &state, &record.Detail,
			&updated,
		); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		record.State = FileState(state)
		record.UpdatedAt = parseTimestamp(updated)
		result = append(result, record)
	}
	return result, rows.Err()
}

// ResetStale fails any run left in a processing status, typically after an
// interrupted process.
func (s *Store) ResetStale(ctx context.Context, reason string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE batch_runs SET status = ?, error_message = ?, updated_at = ?
        WHERE status IN (?, ?, ?, ?, ?)`,
		string(StatusFailed),
		reason,
		timestamp,
		string(StatusPending),
		string(StatusDiscovering),
		string(StatusConverting),
		string(StatusAssembling),
		string(StatusPublishing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale runs: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates run counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM batch_runs GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("run counts: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan count: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		default:
			if Status(status).IsProcessing() {
				summary.Processing += count
			}
		}
	}
	return summary, rows.Err()
}

const selectRuns = `SELECT id, run_uuid, plan_path, master_name, master_path,
    status, error_message, progress_stage, progress_message, created_at, updated_at
FROM batch_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var status, created, updated string
	if err := row.Scan(
		&run.ID, &run.UUID, &run.PlanPath, &run.MasterName, &run.MasterPath,
		&status, &run.ErrorMessage, &run.ProgressStage, &run.ProgressMessage,
		&created, &updated,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.CreatedAt = parseTimestamp(created)
	run.UpdatedAt = parseTimestamp(updated)
	return run, nil
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	return time.Time{}
}
