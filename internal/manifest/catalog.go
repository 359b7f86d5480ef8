// Package manifest maintains the input catalog in manifest.db: a small
// SQLite table recording the size and modification time of every input file
// a run has seen. Session builders consult it for the byte totals that feed
// throughput reporting, falling back to the filesystem when an entry is
// missing or stale.
package manifest

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	herrors "github.com/filemark/filemark/internal/errors"
)

// Catalog answers byte-size questions about input files.
type Catalog interface {
	// RecordFile upserts the size and mtime of one input file.
	RecordFile(ctx context.Context, path string, sizeBytes int64, modTime time.Time) error

	// FileSize returns the size of one input file, consulting the catalog
	// first and the filesystem when the cached entry is missing or stale.
	FileSize(ctx context.Context, path string) (int64, error)

	// TotalBytes sums FileSize over a list of paths.
	TotalBytes(ctx context.Context, paths []string) (int64, error)

	// Close closes the catalog database connection.
	Close() error
}

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // serializes writes; SQLite allows one writer
}

// NewCatalog opens (creating if needed) the catalog at dbPath.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, herrors.NewManifestError("failed to open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLiteCatalog{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *SQLiteCatalog) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS files (
		path        TEXT PRIMARY KEY,
		size_bytes  INTEGER NOT NULL,
		mtime       INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return herrors.NewManifestError("failed to initialize schema", err)
	}
	return nil
}

// RecordFile upserts one catalog entry.
func (c *SQLiteCatalog) RecordFile(ctx context.Context, path string, sizeBytes int64, modTime time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO files (path, size_bytes, mtime, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			mtime = excluded.mtime,
			recorded_at = excluded.recorded_at
	`, path, sizeBytes, modTime.UnixNano(), time.Now().UnixNano())
	if err != nil {
		return herrors.NewManifestError("failed to record file "+path, err)
	}
	return nil
}

// FileSize returns the size of path. A cached entry is trusted only when its
// recorded mtime still matches the file on disk; otherwise the file is
// re-stat'd and the entry refreshed.
func (c *SQLiteCatalog) FileSize(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, herrors.NewManifestError("failed to stat "+path, err)
	}

	var size, mtime int64
	row := c.db.QueryRowContext(ctx, `SELECT size_bytes, mtime FROM files WHERE path = ?`, path)
	switch err := row.Scan(&size, &mtime); err {
	case nil:
		if mtime == info.ModTime().UnixNano() {
			return size, nil
		}
	case sql.ErrNoRows:
		// fall through to refresh
	default:
		return 0, herrors.NewManifestError("failed to query "+path, err)
	}

	if err := c.RecordFile(ctx, path, info.Size(), info.ModTime()); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// TotalBytes sums FileSize over paths.
func (c *SQLiteCatalog) TotalBytes(ctx context.Context, paths []string) (int64, error) {
	var total int64
	for _, p := range paths {
		n, err := c.FileSize(ctx, p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Close closes the database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
