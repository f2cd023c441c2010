// Package session maintains the Session Registry: a small SQLite table
// tracking which working directory (internal/workdir) belongs to which
// `.fnx` archive path, across process runs. It exists purely for the
// startup orphan-sweep housekeeping pass the engine spec's Design Notes
// call out as allowed but not required — working directories left
// behind by an abnormally terminated process are not cleaned up by
// anything else. Grounded on the teacher's internal/db/store.go:
// //go:embed schema + Open/openDB retry-on-schema-mismatch pattern.
package session

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Registry wraps the working_dirs SQLite table.
type Registry struct {
	db *sql.DB
}

// Open opens or creates the session registry database at dbPath. A
// database left behind by an incompatible older schema is deleted and
// recreated rather than failing startup outright.
func Open(dbPath string) (*Registry, error) {
	reg, err := openDB(dbPath)
	if err != nil {
		if isSchemaMismatch(err) {
			if rmErr := os.Remove(dbPath); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, fmt.Errorf("remove incompatible session registry: %w", rmErr)
			}
			os.Remove(dbPath + "-wal")
			os.Remove(dbPath + "-shm")
			return openDB(dbPath)
		}
		return nil, err
	}
	return reg, nil
}

func isSchemaMismatch(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "SQL logic error")
}

func openDB(dbPath string) (*Registry, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session registry directory: %w", err)
		}
	}

	escaped := strings.ReplaceAll(dbPath, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escaped+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open session registry: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize session registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Registry) Close() error { return r.db.Close() }

// Record upserts a row for a working directory just extracted for
// archivePath, owned by the calling process's pid, timestamped opened.
func (r *Registry) Record(ctx context.Context, archivePath, workingDir string, pid int, opened time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO working_dirs (archive_path, working_dir, pid, opened_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(working_dir) DO UPDATE SET
			archive_path = excluded.archive_path,
			pid          = excluded.pid,
			opened_at    = excluded.opened_at
	`, archivePath, workingDir, pid, opened.UTC())
	return err
}

// Forget removes workingDir's row, called when the owning Working
// Directory closes normally.
func (r *Registry) Forget(ctx context.Context, workingDir string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM working_dirs WHERE working_dir = ?`, workingDir)
	return err
}

// Entry is one tracked working directory.
type Entry struct {
	ArchivePath string
	WorkingDir  string
	PID         int
	OpenedAt    time.Time
}

// All returns every tracked entry, for diagnostics and tests.
func (r *Registry) All(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT archive_path, working_dir, pid, opened_at FROM working_dirs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ArchivePath, &e.WorkingDir, &e.PID, &e.OpenedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SweepOrphans implements the §9/§C.1 startup hygiene pass: any row
// whose pid is no longer alive (per isAlive) and whose opened_at is
// older than threshold has its working directory removed from disk and
// its row deleted. It never touches a row whose pid is still alive,
// regardless of age — a live process's working directory is its own to
// manage. Returns the working directories removed.
func SweepOrphans(ctx context.Context, r *Registry, threshold time.Duration, now time.Time, isAlive func(pid int) bool) ([]string, error) {
	entries, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		if isAlive(e.PID) {
			continue
		}
		if now.Sub(e.OpenedAt) < threshold {
			continue
		}
		if err := os.RemoveAll(e.WorkingDir); err != nil && !os.IsNotExist(err) {
			continue
		}
		if err := r.Forget(ctx, e.WorkingDir); err != nil {
			continue
		}
		removed = append(removed, e.WorkingDir)
	}
	return removed, nil
}

// DefaultPath returns the default session registry database location
// under the application's user data directory.
func DefaultPath(userDataDir string) string {
	return filepath.Join(userDataDir, "sessions.db")
}
