// Package store provides a SQLite-backed ingestion ledger. Every
// successfully ingested document is recorded so the file listing survives
// process restarts; the vector index itself remains the source of truth for
// retrieval.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// DocumentRecord is one ledger row describing an ingested document.
type DocumentRecord struct {
	// Name is the document filename (e.g. "report.pdf").
	Name string
	// Path is the stored file path the document was ingested from.
	Path string
	// Checksum is the SHA-256 hex digest of the source PDF.
	Checksum string
	// Pages is the number of pages extracted.
	Pages int
	// Chunks is the number of chunks written to the vector index.
	Chunks int
	// CreatedAt is when the document was last ingested.
	CreatedAt time.Time
}

// DocumentLedger persists and lists ingested documents.
// Implementations must be safe for concurrent use.
type DocumentLedger interface {
	// RecordDocument upserts a ledger row keyed by document name.
	// Re-ingestion of the same name overwrites the previous row.
	RecordDocument(ctx context.Context, name, path, checksum string, pages, chunks int) error
	// List returns all recorded documents ordered by ingestion time,
	// oldest first.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteLedger is a DocumentLedger backed by a local SQLite database.
type SQLiteLedger struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the ingestion ledger database.
// It resolves to ~/.docq/ledger.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docq")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// Open opens (or creates) a SQLiteLedger at the given path and runs the
// schema migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLedger, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteLedger{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteLedger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    name         TEXT    PRIMARY KEY,
    path         TEXT    NOT NULL,
    checksum     TEXT    NOT NULL,
    pages        INTEGER NOT NULL,
    chunks       INTEGER NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// RecordDocument upserts a ledger row keyed by document name. Vector IDs are
// deterministic per name, so re-ingestion overwrites at the index and must
// overwrite here too.
func (s *SQLiteLedger) RecordDocument(ctx context.Context, name, path, checksum string, pages, chunks int) error {
	const q = `
INSERT INTO documents (name, path, checksum, pages, chunks, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    path = excluded.path,
    checksum = excluded.checksum,
    pages = excluded.pages,
    chunks = excluded.chunks,
    created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, q, name, path, checksum, pages, chunks, time.Now().Unix()); err != nil {
		return fmt.Errorf("store: record document: %w", err)
	}
	return nil
}

// List returns all recorded documents ordered by ingestion time, oldest first.
func (s *SQLiteLedger) List(ctx context.Context) ([]DocumentRecord, error) {
	const q = `
SELECT name, path, checksum, pages, chunks, created_at
FROM   documents
ORDER  BY created_at ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		var ts int64
		if err := rows.Scan(&d.Name, &d.Path, &d.Checksum, &d.Pages, &d.Chunks, &ts); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		d.CreatedAt = time.Unix(ts, 0)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// Close releases the database connection pool.
func (s *SQLiteLedger) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
