// Package store keeps a SQLite ledger of analysis runs: what was run, on
// which inputs, what it wrote and the headline result.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"closedcat/internal/logging"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run status values.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// ErrUnknownRun is returned by Finish for a run id the ledger never saw.
var ErrUnknownRun = errors.New("unknown run")

// Run is one ledger entry.
type Run struct {
	ID         string
	Analysis   string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Inputs     []string
	Outputs    []string
	Statistic  *float64
	PValue     *float64
	Status     string
	Note       string
}

// SetResult records the headline statistic and p-value.
func (r *Run) SetResult(statistic, p float64) {
	r.Statistic = &statistic
	r.PValue = &p
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Ledger is the run table in a SQLite database.
type Ledger struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the ledger database at path. ":memory:"
// gives a private in-memory ledger.
func Open(path string) (*Ledger, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}

	l := &Ledger{db: db, path: path, now: time.Now}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Ledger ready at %s", path)
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		analysis TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		inputs TEXT NOT NULL DEFAULT '[]',
		outputs TEXT NOT NULL DEFAULT '[]',
		statistic REAL,
		p_value REAL,
		status TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// Path is the database location.
func (l *Ledger) Path() string {
	return l.path
}

// Begin records the start of an analysis and returns its run.
func (l *Ledger) Begin(ctx context.Context, analysis string, inputs []string) (*Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		Analysis:  analysis,
		StartedAt: l.now().UTC(),
		Inputs:    inputs,
		Status:    StatusRunning,
	}
	in, err := encodeList(inputs)
	if err != nil {
		return nil, err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO runs (id, analysis, started_at, inputs, status) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Analysis, run.StartedAt.Format(time.RFC3339Nano), in, run.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	logging.StoreDebug("Run %s started: %s", run.ID, analysis)
	return run, nil
}

// Finish stamps the run as finished. A non-nil runErr marks it failed and
// becomes the note unless one is already set.
func (l *Ledger) Finish(ctx context.Context, run *Run, runErr error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	run.FinishedAt = l.now().UTC()
	run.Status = StatusOK
	if runErr != nil {
		run.Status = StatusFailed
		if run.Note == "" {
			run.Note = runErr.Error()
		}
	}
	out, err := encodeList(run.Outputs)
	if err != nil {
		return err
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, outputs = ?, statistic = ?, p_value = ?, status = ?, note = ? WHERE id = ?`,
		run.FinishedAt.Format(time.RFC3339Nano), out, nullFloat(run.Statistic), nullFloat(run.PValue),
		run.Status, run.Note, run.ID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, run.ID)
	}
	logging.Store("Run %s %s (%s) in %v", run.ID, run.Status, run.Analysis, run.Duration())
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	query := `SELECT id, analysis, started_at, finished_at, inputs, outputs, statistic, p_value, status, note
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started           string
			finished          sql.NullString
			inputs, outputs   string
			statistic, pValue sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Analysis, &started, &finished, &inputs, &outputs,
			&statistic, &pValue, &r.Status, &r.Note); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad start time: %w", r.ID, err)
		}
		if finished.Valid {
			if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("run %s: bad finish time: %w", r.ID, err)
			}
		}
		if r.Inputs, err = decodeList(inputs); err != nil {
			return nil, err
		}
		if r.Outputs, err = decodeList(outputs); err != nil {
			return nil, err
		}
		if statistic.Valid {
			v := statistic.Float64
			r.Statistic = &v
		}
		if pValue.Valid {
			v := pValue.Float64
			r.PValue = &v
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return items, nil
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
