// Package history persists coverage runs in SQLite so test runs can be
// compared over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mgomes/quill/coverage"
)

// Run is one recorded coverage run.
type Run struct {
	ID         string
	Timestamp  time.Time
	Program    string
	Total      int
	Covered    int
	Percentage int
	Passed     int
	Failed     int
}

// ClassSummary is the per-class aggregate stored with a run.
type ClassSummary struct {
	Class      string
	Total      int
	Covered    int
	Percentage int
}

// Filter narrows Runs. A zero Limit returns every run.
type Filter struct {
	Program string
	Limit   int
}

type Config struct {
	Path string
}

func DefaultConfig() Config {
	return Config{Path: "./.quill/history.db"}
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		program TEXT NOT NULL,
		total INTEGER NOT NULL,
		covered INTEGER NOT NULL,
		percentage INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS class_coverage (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		class TEXT NOT NULL,
		total INTEGER NOT NULL,
		covered INTEGER NOT NULL,
		PRIMARY KEY (run_id, class)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_program ON runs(program);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run together with the per-class totals of report. ID and
// Timestamp are filled in when empty; the coverage fields always come from
// report.
func (s *Store) Record(ctx context.Context, run Run, report *coverage.Report) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	run.Total, run.Covered = report.Totals()
	run.Percentage = coverage.Percentage(run.Covered, run.Total)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, timestamp, program, total, covered, percentage, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Timestamp, run.Program, run.Total, run.Covered, run.Percentage, run.Passed, run.Failed)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO class_coverage (run_id, class, total, covered)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, class := range report.Classes {
		total, covered := class.Totals()
		if _, err := stmt.ExecContext(ctx, run.ID, class.Name, total, covered); err != nil {
			return Run{}, fmt.Errorf("failed to insert class %s: %w", class.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context, filter Filter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, program, total, covered, percentage, passed, failed FROM runs WHERE 1=1`
	var args []any
	if filter.Program != "" {
		query += " AND program = ?"
		args = append(args, filter.Program)
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Timestamp, &run.Program, &run.Total, &run.Covered,
			&run.Percentage, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Classes returns the per-class totals of one run ordered by class name.
func (s *Store) Classes(ctx context.Context, runID string) ([]ClassSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT class, total, covered FROM class_coverage
		WHERE run_id = ? ORDER BY class
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var out []ClassSummary
	for rows.Next() {
		var summary ClassSummary
		if err := rows.Scan(&summary.Class, &summary.Total, &summary.Covered); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		summary.Percentage = coverage.Percentage(summary.Covered, summary.Total)
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Prune deletes runs older than the given age.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM class_coverage WHERE run_id IN (SELECT id FROM runs WHERE timestamp < ?)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to prune classes: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
