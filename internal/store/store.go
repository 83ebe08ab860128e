// Package store provides a SQLite-backed cache of processed papers. The
// ingestion pipeline records every paper it has indexed so that re-running
// ingestion over the same PDF directory skips papers already in the vector
// store, unless a reprocess is requested.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Paper is the cached record of one processed paper.
type Paper struct {
	// PaperID is the file stem of the source PDF.
	PaperID string
	// FilePath is the source file name.
	FilePath string
	// Title is the extracted paper title.
	Title string
	// Year is the extracted publication year, zero when unknown.
	Year int
	// ChunkCount is the number of chunks indexed for the paper.
	ChunkCount int
	// Metadata is the extracted paper metadata as JSON.
	Metadata string
	// ProcessedAt is when the paper was indexed.
	ProcessedAt time.Time
}

// PaperCache persists and retrieves processed-paper records keyed by paper
// ID. Implementations must be safe for concurrent use.
type PaperCache interface {
	// Get returns the record for paperID. ok is false when none exists.
	Get(ctx context.Context, paperID string) (p Paper, ok bool, err error)
	// Put inserts or replaces the record for p.PaperID.
	Put(ctx context.Context, p Paper) error
	// Delete removes the record for paperID, if any.
	Delete(ctx context.Context, paperID string) error
	// List returns all records ordered by paper ID.
	List(ctx context.Context) ([]Paper, error)
	// Count returns the number of cached records.
	Count(ctx context.Context) (int, error)
	// Close releases any resources held by the cache.
	Close() error
}

// SQLiteCache is a PaperCache backed by a local SQLite database.
type SQLiteCache struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the processed-paper database.
// It resolves to ~/.sbke/papers.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".sbke")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "papers.db"), nil
}

// Open opens (or creates) a SQLiteCache at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteCache, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteCache{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteCache) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS processed_papers (
    paper_id      TEXT    PRIMARY KEY,
    file_path     TEXT    NOT NULL,
    title         TEXT    NOT NULL DEFAULT '',
    year          INTEGER NOT NULL DEFAULT 0,
    chunk_count   INTEGER NOT NULL DEFAULT 0,
    metadata      TEXT    NOT NULL DEFAULT '{}',
    processed_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Get returns the record for paperID.
func (s *SQLiteCache) Get(ctx context.Context, paperID string) (Paper, bool, error) {
	const q = `
SELECT paper_id, file_path, title, year, chunk_count, metadata, processed_at
FROM   processed_papers
WHERE  paper_id = ?`

	p, err := scanPaper(s.db.QueryRowContext(ctx, q, paperID))
	if errors.Is(err, sql.ErrNoRows) {
		return Paper{}, false, nil
	}
	if err != nil {
		return Paper{}, false, fmt.Errorf("store: get %s: %w", paperID, err)
	}
	return p, true, nil
}

// Put inserts or replaces the record for p.PaperID. A zero ProcessedAt is
// set to the current time.
func (s *SQLiteCache) Put(ctx context.Context, p Paper) error {
	if p.PaperID == "" {
		return fmt.Errorf("store: put: paper ID must not be empty")
	}
	if p.ProcessedAt.IsZero() {
		p.ProcessedAt = time.Now()
	}
	if p.Metadata == "" {
		p.Metadata = "{}"
	}

	const q = `
INSERT INTO processed_papers (paper_id, file_path, title, year, chunk_count, metadata, processed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (paper_id) DO UPDATE SET
    file_path    = excluded.file_path,
    title        = excluded.title,
    year         = excluded.year,
    chunk_count  = excluded.chunk_count,
    metadata     = excluded.metadata,
    processed_at = excluded.processed_at`

	_, err := s.db.ExecContext(ctx, q,
		p.PaperID, p.FilePath, p.Title, p.Year, p.ChunkCount, p.Metadata, p.ProcessedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", p.PaperID, err)
	}
	return nil
}

// Delete removes the record for paperID.
func (s *SQLiteCache) Delete(ctx context.Context, paperID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM processed_papers WHERE paper_id = ?`, paperID); err != nil {
		return fmt.Errorf("store: delete %s: %w", paperID, err)
	}
	return nil
}

// List returns all records ordered by paper ID.
func (s *SQLiteCache) List(ctx context.Context) ([]Paper, error) {
	const q = `
SELECT paper_id, file_path, title, year, chunk_count, metadata, processed_at
FROM   processed_papers
ORDER  BY paper_id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var papers []Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return papers, nil
}

// Count returns the number of cached records.
func (s *SQLiteCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Close releases the database connection pool.
func (s *SQLiteCache) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(r rowScanner) (Paper, error) {
	var p Paper
	var ts int64
	if err := r.Scan(&p.PaperID, &p.FilePath, &p.Title, &p.Year, &p.ChunkCount, &p.Metadata, &ts); err != nil {
		return Paper{}, err
	}
	p.ProcessedAt = time.Unix(ts, 0)
	return p, nil
}
