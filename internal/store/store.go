// Package store persists generation runs and their repair attempts to
// SQLite, so `forge history` can show what was generated, how many attempts
// it took, and where the artifact ended up. The store is strictly an audit
// trail: the pipeline keeps working when it is unavailable.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Run is one generation run, from request to terminal state.
type Run struct {
	ID           string
	AgentName    string
	Request      string
	State        string
	Attempts     int
	ArtifactPath string
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

// AttemptRow is one repair attempt inside a run.
type AttemptRow struct {
	RunID     string
	Number    int
	State     string
	ErrorKind string
	Detail    string
	CreatedAt time.Time
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	// WAL is an optimization, not a requirement (":memory:" rejects it).
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying run store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records the start of a generation run.
func (s *Store) CreateRun(ctx context.Context, id, agentName, request string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, agent_name, request, state) VALUES (?, ?, ?, 'PENDING')`,
		id, agentName, request)
	if err != nil {
		return fmt.Errorf("creating run %s: %w", id, err)
	}
	return nil
}

// RecordAttempt appends one repair attempt to a run.
func (s *Store) RecordAttempt(ctx context.Context, a AttemptRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, number, state, error_kind, detail) VALUES (?, ?, ?, ?, ?)`,
		a.RunID, a.Number, a.State, a.ErrorKind, a.Detail)
	if err != nil {
		return fmt.Errorf("recording attempt %d of run %s: %w", a.Number, a.RunID, err)
	}
	return nil
}

// FinishRun stamps a run with its terminal state and artifact location.
func (s *Store) FinishRun(ctx context.Context, id, state, artifactPath string, attempts int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, artifact_path = ?, attempts = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		state, artifactPath, attempts, id)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: no such run", id)
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_name, request, state, attempts, artifact_path, created_at, finished_at
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_name, request, state, attempts, artifact_path, created_at, finished_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListAttempts returns a run's attempts in order.
func (s *Store) ListAttempts(ctx context.Context, runID string) ([]AttemptRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, number, state, error_kind, detail, created_at
		 FROM attempts WHERE run_id = ? ORDER BY number`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for run %s: %w", runID, err)
	}
	defer rows.Close()

	var attempts []AttemptRow
	for rows.Next() {
		var a AttemptRow
		if err := rows.Scan(&a.RunID, &a.Number, &a.State, &a.ErrorKind, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.AgentName, &run.Request, &run.State,
		&run.Attempts, &run.ArtifactPath, &run.CreatedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
