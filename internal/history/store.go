// Package history persists per-source outcomes per run in a local DuckDB
// file so the status API can show recent runs. Aggregates are recomputed
// in SQL on read; nothing stores a precomputed summary.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/psyger-labs/ftpferry/internal/model"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS run_ids START 1;
CREATE TABLE IF NOT EXISTS runs (
    id         BIGINT PRIMARY KEY DEFAULT nextval('run_ids'),
    started_at TIMESTAMP NOT NULL,
    mode       VARCHAR NOT NULL
);
CREATE TABLE IF NOT EXISTS outcomes (
    run_id          BIGINT NOT NULL,
    source          VARCHAR NOT NULL,
    success         BOOLEAN NOT NULL,
    message         VARCHAR NOT NULL,
    byte_size       BIGINT NOT NULL,
    elapsed_seconds DOUBLE NOT NULL
);
`

// Store manages the run-history database. A nil *Store is a valid disabled
// store: every method on it is a no-op.
type Store struct {
	db *sql.DB
	mu sync.Mutex // DuckDB writes are serialized through one connection
}

// Open opens or creates the history database. An empty path disables
// history and returns a nil store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("history: create dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordRun inserts one run and its outcomes in a single transaction.
func (s *Store) RecordRun(startedAt time.Time, mode string, outcomes map[string]model.Outcome) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRow(
		`INSERT INTO runs (started_at, mode) VALUES (?, ?) RETURNING id`,
		startedAt.UTC(), mode,
	).Scan(&runID)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	for _, out := range outcomes {
		_, err = tx.Exec(
			`INSERT INTO outcomes (run_id, source, success, message, byte_size, elapsed_seconds)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, out.Source, out.Success, out.Message, out.ByteSize, out.Elapsed.Seconds(),
		)
		if err != nil {
			return fmt.Errorf("history: insert outcome %s: %w", out.Source, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}
	return nil
}

// RunRecord is one historical run with aggregates computed on read.
type RunRecord struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Mode         string    `json:"mode"`
	Total        int       `json:"total"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	TotalBytes   int64     `json:"total_bytes"`
	TotalSeconds float64   `json:"total_seconds"`
}

// RecentRuns returns up to limit runs, newest first. A nil store returns
// nothing.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT r.id, r.started_at, r.mode,
		       count(*),
		       count(*) FILTER (WHERE o.success),
		       count(*) FILTER (WHERE NOT o.success),
		       coalesce(sum(o.byte_size) FILTER (WHERE o.success), 0),
		       coalesce(sum(o.elapsed_seconds), 0)
		FROM runs r
		JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id, r.started_at, r.mode
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.Mode,
			&rec.Total, &rec.Succeeded, &rec.Failed,
			&rec.TotalBytes, &rec.TotalSeconds); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
