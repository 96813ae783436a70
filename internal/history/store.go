package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/devaudit/devaudit/internal/model"
)

// DBFileName is the SQLite database file name inside the data directory.
const DBFileName = "devaudit.db"

// Store provides SQLite-based storage for audit runs and coverage
// snapshots. It manages connection pooling and rotation of old records.
//
// Design decision: We use a single database file per machine rather
// than one per project. Runs carry the project root, so history for
// every audited repository lives in one queryable place.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a history store in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// modernc.org/sqlite uses query parameters for open modes. mode=rw
	// prevents creating new files; mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer, and audit runs write in bursts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Runs store one row per audit invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_root TEXT NOT NULL,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		total_issues INTEGER NOT NULL,
		files_affected INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_root);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Tool results store the full per-tool envelope as JSON
	CREATE TABLE IF NOT EXISTS tool_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		tool TEXT NOT NULL,
		tier TEXT NOT NULL,
		status TEXT NOT NULL,
		total_issues INTEGER NOT NULL,
		files_affected INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON tool_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_tool ON tool_results(tool);

	-- Coverage snapshots are kept apart from runs so trends survive rotation
	CREATE TABLE IF NOT EXISTS coverage_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_root TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_percent REAL NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_coverage_project ON coverage_snapshots(project_root);
	CREATE INDEX IF NOT EXISTS idx_coverage_created ON coverage_snapshots(created_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the stored summary of one audit run.
type RunRecord struct {
	// ID is the unique identifier of the run.
	ID int64

	// ProjectRoot is the audited project root.
	ProjectRoot string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Mode is the audit mode: quick, default, or full.
	Mode string

	// Status is the overall run status: ok, issues, or error.
	Status string

	// TotalIssues is the number of findings across all tools.
	TotalIssues int

	// FilesAffected is the number of distinct files with findings.
	FilesAffected int

	// Duration is the total wall-clock time of the run.
	Duration time.Duration
}

// SaveRun persists a run with its per-tool results and prunes runs for
// the same project beyond the retention count, all in one transaction.
// Retention <= 0 disables pruning.
func (s *Store) SaveRun(ctx context.Context, report *model.AuditReport, retention int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (project_root, started_at, mode, status, total_issues, files_affected, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.ProjectRoot,
		report.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		report.Mode,
		report.Status(),
		report.TotalIssues(),
		report.FilesAffected(),
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, res := range report.Results {
		payload, err := json.Marshal(res)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize result for %s: %w", res.Tool, err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO tool_results (run_id, tool, tier, status, total_issues, files_affected, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			res.Tool,
			string(res.Tier),
			res.Summary.Status,
			res.Summary.TotalIssues,
			res.Summary.FilesAffected,
			string(payload),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert result for %s: %w", res.Tool, err)
		}
	}

	if retention > 0 {
		if err := pruneRuns(ctx, tx, report.ProjectRoot, retention); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// pruneRuns deletes runs for a project beyond the newest keep entries.
// Tool results follow via ON DELETE CASCADE, with an explicit delete as
// a fallback because SQLite only honors cascades when foreign keys are on.
func pruneRuns(ctx context.Context, tx *sql.Tx, projectRoot string, keep int) error {
	_, err := tx.ExecContext(ctx, `
	DELETE FROM tool_results WHERE run_id IN (
		SELECT id FROM runs WHERE project_root = ?
		ORDER BY id DESC LIMIT -1 OFFSET ?
	)
	`, projectRoot, keep)
	if err != nil {
		return fmt.Errorf("failed to prune tool results: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	DELETE FROM runs WHERE id IN (
		SELECT id FROM runs WHERE project_root = ?
		ORDER BY id DESC LIMIT -1 OFFSET ?
	)
	`, projectRoot, keep)
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	return nil
}

// LatestRuns retrieves up to n most recent runs for a project, newest first.
func (s *Store) LatestRuns(ctx context.Context, projectRoot string, n int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, project_root, started_at, mode, status, total_issues, files_affected, duration_ms
	FROM runs
	WHERE project_root = ?
	ORDER BY id DESC
	LIMIT ?
	`, projectRoot, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt string
		var durationMS int64

		if err := rows.Scan(
			&rec.ID,
			&rec.ProjectRoot,
			&startedAt,
			&rec.Mode,
			&rec.Status,
			&rec.TotalIssues,
			&rec.FilesAffected,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// RunResults retrieves the per-tool results stored for a run.
func (s *Store) RunResults(ctx context.Context, runID int64) ([]*model.ToolResult, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT payload FROM tool_results
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool results: %w", err)
	}
	defer rows.Close()

	var results []*model.ToolResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan tool result: %w", err)
		}

		var res model.ToolResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			continue // Skip malformed payloads
		}
		results = append(results, &res)
	}

	return results, rows.Err()
}

// CoverageSnapshot is one stored coverage measurement.
type CoverageSnapshot struct {
	// ID is the unique identifier of the snapshot.
	ID int64

	// ProjectRoot is the audited project root.
	ProjectRoot string

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time

	// TotalPercent is the project-wide statement coverage.
	TotalPercent float64

	// Payload holds the per-package breakdown as JSON.
	Payload json.RawMessage
}

// SaveCoverageSnapshot persists a coverage measurement and rotates
// snapshots for the same project beyond the retention count in the
// same transaction. Retention <= 0 disables rotation.
func (s *Store) SaveCoverageSnapshot(ctx context.Context, projectRoot string, totalPercent float64, packages any, retention int) error {
	payload, err := json.Marshal(packages)
	if err != nil {
		return fmt.Errorf("failed to serialize coverage payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO coverage_snapshots (project_root, total_percent, payload)
	VALUES (?, ?, ?)
	`, projectRoot, totalPercent, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert coverage snapshot: %w", err)
	}

	if retention > 0 {
		_, err = tx.ExecContext(ctx, `
		DELETE FROM coverage_snapshots WHERE id IN (
			SELECT id FROM coverage_snapshots WHERE project_root = ?
			ORDER BY id DESC LIMIT -1 OFFSET ?
		)
		`, projectRoot, retention)
		if err != nil {
			return fmt.Errorf("failed to rotate coverage snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit coverage snapshot: %w", err)
	}
	return nil
}

// LatestCoverageSnapshots retrieves up to n most recent snapshots for a
// project, newest first.
func (s *Store) LatestCoverageSnapshots(ctx context.Context, projectRoot string, n int) ([]CoverageSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, project_root, created_at, total_percent, payload
	FROM coverage_snapshots
	WHERE project_root = ?
	ORDER BY id DESC
	LIMIT ?
	`, projectRoot, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []CoverageSnapshot
	for rows.Next() {
		var snap CoverageSnapshot
		var createdAt string
		var payload string

		if err := rows.Scan(&snap.ID, &snap.ProjectRoot, &createdAt, &snap.TotalPercent, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan coverage snapshot: %w", err)
		}

		snap.CreatedAt = parseTimestamp(createdAt)
		snap.Payload = json.RawMessage(payload)
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
