package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"magda/internal/plugin"
)

//go:embed schema.sql
var schemaSQL string

// Bump when the schema changes; an old catalog is simply rebuilt on the next
// scan, so mismatches delete and recreate rather than migrate.
const schemaVersion = 1

// ScanSummary is one row of scan history.
type ScanSummary struct {
	StartedAt  time.Time
	DurationMs int64
	Found      int
	Failed     int
}

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
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

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists > 0 {
		var version int
		if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version == schemaVersion {
			return nil
		}
		// stale schema: the catalog is a cache, drop and recreate
		for _, stmt := range []string{"DROP TABLE IF EXISTS plugins", "DROP TABLE IF EXISTS scans", "DROP TABLE IF EXISTS schema_version"} {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("reset schema: %w", err)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// ReplacePlugins swaps the plugin table for the given descriptors in one
// transaction, so readers never observe a half-written catalog.
func (s *Store) ReplacePlugins(ctx context.Context, descriptors []plugin.Descriptor) error {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM plugins"); err != nil {
		return fmt.Errorf("clear plugins: %w", err)
	}
	for _, d := range descriptors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO plugins (
                name, format_name, manufacturer, version,
                file_or_identifier, unique_id, is_instrument, category, scanned_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Name, d.FormatName, d.Manufacturer, d.Version,
			d.FileOrIdentifier, d.UniqueID, boolToInt(d.IsInstrument), d.Category, now,
		)
		if err != nil {
			return fmt.Errorf("insert plugin %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// Plugins returns every cataloged descriptor ordered by format then name.
func (s *Store) Plugins(ctx context.Context) ([]plugin.Descriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, format_name, manufacturer, version,
                file_or_identifier, unique_id, is_instrument, category
           FROM plugins ORDER BY format_name, name`)
	if err != nil {
		return nil, fmt.Errorf("query plugins: %w", err)
	}
	defer rows.Close()

	var out []plugin.Descriptor
	for rows.Next() {
		var d plugin.Descriptor
		var isInstrument int
		if err := rows.Scan(
			&d.Name, &d.FormatName, &d.Manufacturer, &d.Version,
			&d.FileOrIdentifier, &d.UniqueID, &isInstrument, &d.Category,
		); err != nil {
			return nil, fmt.Errorf("scan plugin row: %w", err)
		}
		d.IsInstrument = isInstrument != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordScan appends one scan summary.
func (s *Store) RecordScan(ctx context.Context, summary ScanSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (started_at, duration_ms, found, failed)
         VALUES (?, ?, ?, ?)`,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.DurationMs,
		summary.Found,
		summary.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert scan summary: %w", err)
	}
	return nil
}

// Scans returns the most recent scan summaries, newest first.
func (s *Store) Scans(ctx context.Context, limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT started_at, duration_ms, found, failed
           FROM scans ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var summary ScanSummary
		var started string
		if err := rows.Scan(&started, &summary.DurationMs, &summary.Found, &summary.Failed); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, started); err == nil {
			summary.StartedAt = ts
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
