// Package runlog persists per-run outcome rows and reads them back for the
// runs listing, the status API, and the audit exports.
package runlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/arbor-insights/pulse-cli/internal/db"
	"github.com/arbor-insights/pulse-cli/internal/model"
)

// Phase labels which half of a run an entry belongs to.
const (
	PhaseCollect = "collect"
	PhaseStore   = "store"
)

// Entry is one outcome row as stored in activity.run_log.
type Entry struct {
	RunID           string    `json:"run_id" csv:"run_id"`
	Phase           string    `json:"phase" csv:"phase"`
	Name            string    `json:"name" csv:"name"`
	Status          string    `json:"status" csv:"status"`
	RecordCount     int       `json:"record_count" csv:"record_count"`
	DurationSeconds float64   `json:"duration_seconds" csv:"duration_seconds"`
	ErrorMessage    string    `json:"error_message,omitempty" csv:"error_message"`
	RecordedAt      time.Time `json:"recorded_at" csv:"recorded_at"`
}

// Log reads and writes run outcomes.
type Log struct {
	pool db.Pool
}

// New creates a Log over the shared pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// NewRunID mints the identifier tying a run's collect and store rows
// together.
func NewRunID() string {
	return uuid.New().String()
}

// Record writes one row per outcome for the given run and phase.
func (l *Log) Record(ctx context.Context, runID, phase string, summary model.Summary) error {
	for _, o := range summary.Outcomes {
		_, err := l.pool.Exec(ctx,
			`INSERT INTO activity.run_log
				(run_id, phase, name, status, record_count, duration_seconds, error_message)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, phase, o.Name, string(o.Status), o.RecordCount, o.DurationSeconds(), o.ErrorMessage,
		)
		if err != nil {
			return eris.Wrapf(err, "runlog: record %s/%s", phase, o.Name)
		}
	}
	return nil
}

// List returns the most recent entries, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT run_id, phase, name, status, record_count, duration_seconds, error_message, recorded_at
		 FROM activity.run_log
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ByRun returns all entries for one run, in recorded order.
func (l *Log) ByRun(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT run_id, phase, name, status, record_count, duration_seconds, error_message, recorded_at
		 FROM activity.run_log
		 WHERE run_id = $1
		 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: entries for run %s", runID)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.RunID, &e.Phase, &e.Name, &e.Status,
			&e.RecordCount, &e.DurationSeconds, &e.ErrorMessage, &e.RecordedAt,
		); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate entries")
}
