// Package ledger records the outcome of every snapshot generation attempt in
// a SQLite database, so past accept/reject decisions survive the scratch
// directory cleanup.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Outcome classifies how a generation attempt ended.
type Outcome string

const (
	// OutcomeGenerated means both archives were written.
	OutcomeGenerated Outcome = "generated"
	// OutcomeSkipped means the snapshot already existed and force was off.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeRejected means the operator declined a diff prompt.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means a command or filesystem step errored.
	OutcomeFailed Outcome = "failed"
)

// Run is one generation attempt.
type Run struct {
	ID         string
	Recipe     string
	Outcome    Outcome
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Ledger wraps the runs database.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger database at path. Pass ":memory:" for an
// ephemeral ledger in tests.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to ledger: %w", err)
	}

	// SQLite supports a single writer; keep one connection to avoid
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts a run. A missing ID is filled in with a fresh UUID; the
// stored run is returned.
func (l *Ledger) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, recipe, outcome, detail, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Recipe, string(run.Outcome), run.Detail,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording run for %q: %w", run.Recipe, err)
	}
	return run, nil
}

// Recent returns up to limit runs, most recently finished first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, recipe, outcome, detail, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// ByRecipe returns all runs for one recipe, most recently finished first.
func (l *Ledger) ByRecipe(ctx context.Context, recipe string) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, recipe, outcome, detail, started_at, finished_at
		 FROM runs WHERE recipe = ? ORDER BY finished_at DESC, id`, recipe)
	if err != nil {
		return nil, fmt.Errorf("querying runs for %q: %w", recipe, err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var outcome string
		if err := rows.Scan(&r.ID, &r.Recipe, &outcome, &r.Detail, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Outcome = Outcome(outcome)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
