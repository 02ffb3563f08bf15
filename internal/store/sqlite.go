package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteSink implements Sink on modernc.org/sqlite, for single-host
// deployments without a Postgres. Schema-qualified table names are flattened
// to activity_<table> since SQLite has no schemas.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite database at the given path and
// configures WAL mode. Use ":memory:" for tests.
func NewSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS activity_survey_responses (
	response_id   TEXT PRIMARY KEY,
	survey_id     TEXT,
	respondent    TEXT,
	score         REAL,
	comment       TEXT,
	submitted_at  TEXT,
	collected_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_workspace_usage (
	user_email      TEXT NOT NULL,
	report_date     TEXT NOT NULL,
	docs_edited     INTEGER,
	mail_sent       INTEGER,
	storage_bytes   INTEGER,
	last_active_at  TEXT,
	collected_at    DATETIME NOT NULL,
	PRIMARY KEY (user_email, report_date)
);

CREATE TABLE IF NOT EXISTS activity_meeting_usage (
	meeting_id    TEXT PRIMARY KEY,
	host_email    TEXT,
	topic         TEXT,
	participants  INTEGER,
	duration_mins INTEGER,
	started_at    TEXT,
	collected_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activity_scm_activity (
	commit_sha    TEXT PRIMARY KEY,
	repo          TEXT,
	author_email  TEXT,
	message       TEXT,
	additions     INTEGER,
	deletions     INTEGER,
	committed_at  TEXT,
	collected_at  DATETIME NOT NULL
);
`

// Migrate provisions the activity tables. Explicit, like the Postgres path;
// the sink itself never creates tables during writes.
func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// tableName flattens "activity.survey_responses" to
// "activity_survey_responses".
func tableName(table string) string {
	return strings.ReplaceAll(table, ".", "_")
}

func (s *SQLiteSink) Exists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`,
		tableName(table),
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check table %s", table)
	}
	return true, nil
}

func (s *SQLiteSink) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert %s: commit", table)
	}
	return n, nil
}

func (s *SQLiteSink) Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName(table)); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: clear", table)
	}
	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: replace %s: commit", table)
	}
	return n, nil
}

func (s *SQLiteSink) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	keyIdx := make([]int, 0, len(keyColumns))
	for _, k := range keyColumns {
		found := -1
		for i, c := range columns {
			if c == k {
				found = i
				break
			}
		}
		if found < 0 {
			return 0, eris.Errorf("sqlite: key column %q not in column list", k)
		}
		keyIdx = append(keyIdx, found)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: begin tx", table)
	}
	defer tx.Rollback() //nolint:errcheck

	// Delete matching keys row by row, then insert, all in the one tx.
	conds := make([]string, len(keyColumns))
	for i, k := range keyColumns {
		conds[i] = k + " = ?"
	}
	delSQL := "DELETE FROM " + tableName(table) + " WHERE " + strings.Join(conds, " AND ")
	del, err := tx.PrepareContext(ctx, delSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: prepare delete", table)
	}
	defer del.Close()

	for _, row := range rows {
		args := make([]any, len(keyIdx))
		for i, ki := range keyIdx {
			args[i] = row[ki]
		}
		if _, err := del.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s: delete matching key", table)
		}
	}

	n, err := insertRows(ctx, tx, table, columns, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert %s: commit", table)
	}
	return n, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insSQL := "INSERT INTO " + tableName(table) +
		" (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ")"
	ins, err := tx.PrepareContext(ctx, insSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert %s: prepare", table)
	}
	defer ins.Close()

	var n int64
	for _, row := range rows {
		if _, err := ins.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s: exec", table)
		}
		n++
	}
	return n, nil
}
