// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records every artifact outcome in a SQLite database so
// runs can be audited and the latest state of each artifact queried.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/card-narrator/pkg/types"
)

// Ledger is an open outcome database bound to one run.
type Ledger struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// Run is one narration run as stored in the ledger.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
	Engine     string    `json:"engine" yaml:"engine"`
	Created    int       `json:"created" yaml:"created"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
}

// Open opens or creates the ledger at path and starts a new run for
// engine. The schema is created when missing.
func Open(path, engine string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, runID: uuid.NewString(), now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO runs (id, started_at, engine) VALUES (?, ?, ?)`,
		l.runID, formatTime(l.now()), engine,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("starting run: %w", err)
	}
	return l, nil
}

// Inspect opens an existing ledger read-only for queries. No run is
// started, so RunID is empty and Record fails.
func Inspect(path string) (*Ledger, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	return &Ledger{db: db, now: time.Now}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RunID identifies the run this ledger records into.
func (l *Ledger) RunID() string { return l.runID }

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			engine TEXT,
			created INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			document TEXT NOT NULL,
			label TEXT NOT NULL,
			path TEXT NOT NULL,
			status TEXT NOT NULL,
			chunks INTEGER,
			chars INTEGER,
			engine TEXT,
			error TEXT,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_artifact ON outcomes(document, label)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores o under the current run.
func (l *Ledger) Record(o types.Outcome) error {
	at := o.At
	if at.IsZero() {
		at = l.now()
	}
	_, err := l.db.Exec(
		`INSERT INTO outcomes (run_id, document, label, path, status, chunks, chars, engine, error, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID, o.Document, string(o.Label), o.Path, string(o.Status),
		o.Chunks, o.Chars, o.Engine, o.Error, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", o.Path, err)
	}
	return nil
}

// Finish stores the run totals and end time.
func (l *Ledger) Finish(sum types.Summary) error {
	_, err := l.db.Exec(
		`UPDATE runs SET finished_at = ?, created = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(l.now()), sum.Created, sum.Skipped, sum.Failed, l.runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// Latest returns the most recent outcome of every artifact, ordered by
// document and canonical label order. A non-empty document restricts the
// result to stems containing it.
func (l *Ledger) Latest(ctx context.Context, document string) ([]types.Outcome, error) {
	query := `SELECT document, label, path, status, chunks, chars, engine, error, at
		FROM outcomes o
		WHERE rowid = (SELECT MAX(rowid) FROM outcomes WHERE document = o.document AND label = o.label)`
	var args []any
	if document != "" {
		query += ` AND document LIKE ?`
		args = append(args, "%"+document+"%")
	}
	query += ` ORDER BY document, CASE label
		WHEN 'Past' THEN 0 WHEN 'Present' THEN 1 WHEN 'Future' THEN 2 ELSE 3 END`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var out []types.Outcome
	for rows.Next() {
		var (
			o             types.Outcome
			label, status string
			engine, errS  sql.NullString
			at            string
		)
		if err := rows.Scan(&o.Document, &label, &o.Path, &status, &o.Chunks, &o.Chars, &engine, &errS, &at); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Label = types.Label(label)
		o.Status = types.OutcomeStatus(status)
		o.Engine = engine.String
		o.Error = errS.String
		o.At = parseTime(at)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Runs returns up to limit runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, engine, created, skipped, failed
		 FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                Run
			started          string
			finished, engine sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &engine, &r.Created, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished.String)
		r.Engine = engine.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
