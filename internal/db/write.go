package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// BatchConfig describes a batch write destination.
type BatchConfig struct {
	Table      string   // possibly schema-qualified, e.g. "activity.survey_responses"
	Columns    []string // columns being inserted, in row order
	KeyColumns []string // identity-key columns (upsert only)
}

func (cfg BatchConfig) validate(needKeys bool) error {
	if cfg.Table == "" {
		return eris.New("db: no table specified")
	}
	if len(cfg.Columns) == 0 {
		return eris.New("db: no columns specified")
	}
	if needKeys && len(cfg.KeyColumns) == 0 {
		return eris.New("db: no key columns specified")
	}
	return nil
}

// InsertBatch appends rows via the COPY protocol. No transaction is needed:
// COPY is a single statement.
func InsertBatch(ctx context.Context, pool Pool, cfg BatchConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(false); err != nil {
		return 0, err
	}

	n, err := pool.CopyFrom(ctx, Identifier(cfg.Table), cfg.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY into %s", cfg.Table)
	}
	return n, nil
}

// UpsertBatch deletes any existing rows whose identity-key values appear in
// the incoming batch, then inserts the batch, all inside one transaction.
// The single transaction is what makes replays converge; callers must not
// split the delete and insert.
func UpsertBatch(ctx context.Context, pool Pool, cfg BatchConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(true); err != nil {
		return 0, err
	}

	keyIdx, err := columnIndexes(cfg.Columns, cfg.KeyColumns)
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin tx", cfg.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	deleteSQL, args := buildKeyDelete(cfg.Table, cfg.KeyColumns, keyIdx, rows)
	if _, err := tx.Exec(ctx, deleteSQL, args...); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: delete matching keys", cfg.Table)
	}

	n, err := tx.CopyFrom(ctx, Identifier(cfg.Table), cfg.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: COPY", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit", cfg.Table)
	}
	return n, nil
}

// ReplaceBatch clears the table and inserts the batch inside one
// transaction. Destructive; used for full-refresh runs only.
func ReplaceBatch(ctx context.Context, pool Pool, cfg BatchConfig, rows [][]any) (int64, error) {
	if err := cfg.validate(false); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: begin tx", cfg.Table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+Identifier(cfg.Table).Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: clear", cfg.Table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, Identifier(cfg.Table), cfg.Columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace %s: COPY", cfg.Table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: replace %s: commit", cfg.Table)
	}
	return n, nil
}

// TableExists checks the target without touching it.
func TableExists(ctx context.Context, pool Pool, table string) (bool, error) {
	var regclass *string
	err := pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&regclass)
	if err != nil {
		return false, eris.Wrapf(err, "db: check table %s", table)
	}
	return regclass != nil, nil
}

// columnIndexes maps key columns to their positions in the row layout.
func columnIndexes(columns, keys []string) ([]int, error) {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		found := -1
		for i, c := range columns {
			if c == k {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, eris.Errorf("db: key column %q not in column list", k)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

// buildKeyDelete produces a parameterized delete of all rows whose key
// tuple matches any incoming row, e.g.
// DELETE FROM t WHERE ("a","b") IN (($1,$2),($3,$4)).
func buildKeyDelete(table string, keys []string, keyIdx []int, rows [][]any) (string, []any) {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = pgx.Identifier{k}.Sanitize()
	}

	var (
		tuples []string
		args   []any
	)
	arg := 1
	for _, row := range rows {
		ph := make([]string, len(keyIdx))
		for i, ki := range keyIdx {
			ph[i] = fmt.Sprintf("$%d", arg)
			args = append(args, row[ki])
			arg++
		}
		tuples = append(tuples, "("+strings.Join(ph, ", ")+")")
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE (%s) IN (%s)",
		Identifier(table).Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(tuples, ", "),
	)
	return sql, args
}
