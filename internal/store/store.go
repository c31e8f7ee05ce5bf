// Package store keeps a history of extraction runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stringfinder/internal/extract"
	"stringfinder/internal/logging"
	"stringfinder/internal/output"

	_ "github.com/mattn/go-sqlite3" // cgo driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // pure Go driver, registered as "sqlite"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store records runs and their literals.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// RunSummary describes a recorded run.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	Sources      int
	LiteralCount int
	// Quote and Escape are empty for runs recorded before schema v2.
	Quote  string
	Escape string
}

// SourceSummary describes one input of a recorded run.
type SourceSummary struct {
	Source        string
	Runes         int
	Literals      int
	Dangling      bool
	DanglingRunes int
}

// Open creates or opens a history database using the named driver
// ("sqlite" or "sqlite3").
func Open(path, driver string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var dsn string
	switch driver {
	case "sqlite":
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case "sqlite3":
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	default:
		return nil, fmt.Errorf("unsupported sqlite driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Store("Opened history %s (driver %s)", path, driver)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL,
		sources INTEGER NOT NULL,
		literal_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sources (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		source TEXT NOT NULL,
		runes INTEGER NOT NULL,
		literals INTEGER NOT NULL,
		dangling INTEGER NOT NULL,
		dangling_runes INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS literals (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (run_id, seq, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return RunMigrations(s.db)
}

// RecordRun stores a report in one transaction.
func (s *Store) RecordRun(ctx context.Context, report *extract.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "record run "+report.RunID)
	defer timer.Stop()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ns, sources, literal_count, quote_char, escape_char) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UnixNano(), int64(report.Duration), len(report.Results), report.LiteralCount(),
		runeString(report.Delimiters.Quote), runeString(report.Delimiters.Escape),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	srcStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sources (run_id, seq, source, runes, literals, dangling, dangling_runes) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare source insert: %w", err)
	}
	defer srcStmt.Close()

	litStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO literals (run_id, seq, idx, source, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare literal insert: %w", err)
	}
	defer litStmt.Close()

	for seq, res := range report.Results {
		if _, err := srcStmt.ExecContext(ctx, report.RunID, seq, res.Source, res.Runes,
			len(res.Literals), res.Dangling, res.DanglingRunes); err != nil {
			return fmt.Errorf("failed to insert source %s: %w", res.Source, err)
		}
		for idx, lit := range res.Literals {
			if _, err := litStmt.ExecContext(ctx, report.RunID, seq, idx, res.Source, lit); err != nil {
				return fmt.Errorf("failed to insert literal: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	logging.StoreDebug("Recorded run %s: %d literal(s)", report.RunID, report.LiteralCount())
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ns, sources, literal_count, quote_char, escape_char FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, dur int64
		if err := rows.Scan(&r.ID, &started, &dur, &r.Sources, &r.LiteralCount, &r.Quote, &r.Escape); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, started)
		r.Duration = time.Duration(dur)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Sources returns the per-input summary of a run.
func (s *Store) Sources(ctx context.Context, runID string) ([]SourceSummary, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, runes, literals, dangling, dangling_runes FROM sources WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var out []SourceSummary
	for rows.Next() {
		var ss SourceSummary
		if err := rows.Scan(&ss.Source, &ss.Runes, &ss.Literals, &ss.Dangling, &ss.DanglingRunes); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Literals returns a run's literals in extraction order.
func (s *Store) Literals(ctx context.Context, runID string) ([]output.Record, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, idx, content FROM literals WHERE run_id = ? ORDER BY seq, idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query literals: %w", err)
	}
	defer rows.Close()

	var out []output.Record
	for rows.Next() {
		var r output.Record
		if err := rows.Scan(&r.Source, &r.Index, &r.Literal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) requireRun(ctx context.Context, runID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func runeString(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}
