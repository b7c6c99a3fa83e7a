// Package stats persists per-request usage records in SQLite so token
// spend and tool activity survive across sessions.
package stats

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
)

// Record is one completed model request.
type Record struct {
	Timestamp        time.Time
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	DurationMs       int64
	ToolCalls        int
	Iterations       int
	Succeeded        bool
}

// ModelSummary aggregates usage for one model.
type ModelSummary struct {
	Model        string
	Requests     int64
	TotalTokens  int64
	AvgLatencyMs float64
}

// Summary aggregates all recorded usage.
type Summary struct {
	Requests     int64
	Errors       int64
	TotalTokens  int64
	ToolCalls    int64
	AvgLatencyMs float64
	ByModel      []ModelSummary
}

// Store is a SQLite-backed usage log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the usage database at the given path, creating the file,
// its parent directory and the schema as needed.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, path: dbPath}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		model TEXT NOT NULL,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		tool_calls INTEGER NOT NULL DEFAULT 0,
		iterations INTEGER NOT NULL DEFAULT 0,
		succeeded BOOLEAN NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON requests(created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_model ON requests(model);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add appends one usage record.
func (s *Store) Add(ctx context.Context, r Record) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests
			(created_at, model, prompt_tokens, completion_tokens, total_tokens,
			 duration_ms, tool_calls, iterations, succeeded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC(), r.Model, r.PromptTokens, r.CompletionTokens,
		r.TotalTokens, r.DurationMs, r.ToolCalls, r.Iterations, r.Succeeded)
	return err
}

// Summarize aggregates all usage recorded since the given time. A zero
// time aggregates everything.
func (s *Store) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	var summary Summary

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN NOT succeeded THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(total_tokens), 0),
		       COALESCE(SUM(tool_calls), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM requests WHERE created_at >= ?`, since.UTC()).
		Scan(&summary.Requests, &summary.Errors, &summary.TotalTokens,
			&summary.ToolCalls, &summary.AvgLatencyMs)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT model, COUNT(*), COALESCE(SUM(total_tokens), 0),
		       COALESCE(AVG(duration_ms), 0)
		FROM requests WHERE created_at >= ?
		GROUP BY model ORDER BY SUM(total_tokens) DESC`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m ModelSummary
		if err := rows.Scan(&m.Model, &m.Requests, &m.TotalTokens, &m.AvgLatencyMs); err != nil {
			return nil, err
		}
		summary.ByModel = append(summary.ByModel, m)
	}
	return &summary, rows.Err()
}

// Size returns the database file size in bytes.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
