// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// journalTimeFormat is fixed-width so recorded_at sorts lexically.
const journalTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Journal is a Sink that appends every attempt event to a SQLite database so
// provider usage can be inspected across runs (for example, to see how close a
// key is to its daily request quota). It stores diagnostics only, never
// articles or credentials.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenJournal opens or creates the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	j := &Journal{db: db, logger: slog.Default(), now: time.Now}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			request_id TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			outcome TEXT NOT NULL,
			latency_ms INTEGER NOT NULL,
			attempt INTEGER NOT NULL,
			status_code INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_recorded_at ON attempts(recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_request_id ON attempts(request_id)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Log implements Sink. Write failures are reported to the default slog logger
// and otherwise ignored so that a broken journal never fails a request.
func (j *Journal) Log(e Event) {
	_, err := j.db.Exec(
		`INSERT INTO attempts (recorded_at, request_id, method, path, outcome, latency_ms, attempt, status_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.now().UTC().Format(journalTimeFormat),
		e.RequestID, e.Method, e.Path, string(e.Outcome), e.LatencyMs, e.Attempt, e.StatusCode,
	)
	if err != nil {
		j.logger.Warn("journal_write_failed", slog.String("err", err.Error()))
	}
}

// Entry is a journal row.
type Entry struct {
	Event      `yaml:",inline"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// Recent returns up to limit entries, newest first. A non-positive limit means 20.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT recorded_at, request_id, method, path, outcome, latency_ms, attempt, status_code
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			recordedAt string
			outcome    string
		)
		if err := rows.Scan(&recordedAt, &e.RequestID, &e.Method, &e.Path, &outcome,
			&e.LatencyMs, &e.Attempt, &e.StatusCode); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Outcome = Outcome(outcome)
		if t, parseErr := time.Parse(journalTimeFormat, recordedAt); parseErr == nil {
			e.RecordedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountSince returns the number of attempts recorded at or after since.
func (j *Journal) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT count(*) FROM attempts WHERE recorded_at >= ?`,
		since.UTC().Format(journalTimeFormat),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting journal rows: %w", err)
	}
	return n, nil
}
