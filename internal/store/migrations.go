package store

import (
	"database/sql"
	"fmt"
	"time"

	"stringfinder/internal/logging"
)

// Schema versions:
// v1: runs, sources and literals
// v2: runs record their quote and escape characters
const CurrentSchemaVersion = 2

// Migration adds a column missing from an older database.
type Migration struct {
	Version int
	Table   string
	Column  string
	Def     string
}

var pendingMigrations = []Migration{
	{2, "runs", "quote_char", "TEXT NOT NULL DEFAULT ''"},
	{2, "runs", "escape_char", "TEXT NOT NULL DEFAULT ''"},
}

// RunMigrations brings db up to CurrentSchemaVersion. Columns that already
// exist are skipped, so it is safe to run on every open.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_versions: %w", err)
	}

	from := GetSchemaVersion(db)
	if from >= CurrentSchemaVersion {
		logging.StoreDebug("Schema is current (v%d)", from)
		return nil
	}

	applied := 0
	for _, m := range pendingMigrations {
		if m.Version <= from {
			continue
		}
		exists, err := columnExists(db, m.Table, m.Column)
		if err != nil {
			return err
		}
		if exists {
			logging.StoreDebug("Column already exists, skipping: %s.%s", m.Table, m.Column)
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		CurrentSchemaVersion, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.Store("Schema migrated v%d -> v%d (%d change(s))", from, CurrentSchemaVersion, applied)
	return nil
}

// GetSchemaVersion returns the recorded schema version, or 1 for a database
// that predates version tracking.
func GetSchemaVersion(db *sql.DB) int {
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_versions`).Scan(&version); err != nil || !version.Valid {
		return 1
	}
	return int(version.Int64)
}

// columnExists checks for a column using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
