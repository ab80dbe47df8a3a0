// Package journal persists condensation responses in a SQLite database so a
// run can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/kcaldas/synopsis/pkg/condense"
)

const busyTimeoutMs = 5000

// Run statuses stored in the runs table.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Store owns the journal database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// RunInfo describes one recorded summarization.
type RunInfo struct {
	ID         string
	Source     string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Responses  int
}

// Open opens (or creates) the journal at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("journal: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: %s: %w", p, err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// OpenRun starts a new run for source. Its signature matches
// condense.LogOpener.
func (s *Store) OpenRun(ctx context.Context, source string) (condense.ResponseLog, error) {
	run := &Run{store: s, id: uuid.NewString()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		run.id, source, StatusRunning, s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("journal: start run: %w", err)
	}
	return run, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.status, r.error, r.started_at, COALESCE(r.finished_at, ''),
		       (SELECT COUNT(*) FROM responses WHERE run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunInfo
	for rows.Next() {
		var (
			info              RunInfo
			started, finished string
		)
		if err := rows.Scan(&info.ID, &info.Source, &info.Status, &info.Error, &started, &finished, &info.Responses); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		info.StartedAt = parseTime(started)
		info.FinishedAt = parseTime(finished)
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list runs rows: %w", err)
	}
	return runs, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Run is the response log of a single summarization.
type Run struct {
	store *Store
	id    string
}

var (
	_ condense.ResponseLog = (*Run)(nil)
	_ condense.Finisher    = (*Run)(nil)
)

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Append stores text at (round, section). Sections must arrive in order.
func (r *Run) Append(ctx context.Context, round, section int, text string) error {
	var next int
	err := r.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM responses WHERE run_id = ? AND round = ?`, r.id, round,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("journal: count sections: %w", err)
	}
	if section != next {
		return fmt.Errorf("journal: section %d out of order in round %d (have %d)", section, round, next)
	}

	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO responses (run_id, round, section, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.id, round, section, text, r.store.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("journal: append response: %w", err)
	}
	return nil
}

// Round returns the responses of round in section order.
func (r *Run) Round(ctx context.Context, round int) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT text FROM responses WHERE run_id = ? AND round = ? ORDER BY section`, r.id, round)
	if err != nil {
		return nil, fmt.Errorf("journal: read round: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("journal: scan response: %w", err)
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: read round rows: %w", err)
	}
	return out, nil
}

// Finish records the outcome of the run.
func (r *Run) Finish(ctx context.Context, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	// The run context may already be cancelled; the outcome is still recorded.
	_, err := r.store.db.ExecContext(context.WithoutCancel(ctx),
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, msg, r.store.timestamp(), r.id,
	)
	if err != nil {
		return fmt.Errorf("journal: finish run: %w", err)
	}
	return nil
}
