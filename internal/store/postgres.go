package store

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/db"
)

// PostgresSink writes batches through the shared pgx pool using the COPY
// protocol.
type PostgresSink struct {
	pool db.Pool
}

// NewPostgres creates a Postgres sink.
func NewPostgres(pool db.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Exists(ctx context.Context, table string) (bool, error) {
	return db.TableExists(ctx, s.pool, table)
}

func (s *PostgresSink) Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return db.InsertBatch(ctx, s.pool, db.BatchConfig{Table: table, Columns: columns}, rows)
}

func (s *PostgresSink) Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return db.ReplaceBatch(ctx, s.pool, db.BatchConfig{Table: table, Columns: columns}, rows)
}

func (s *PostgresSink) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	return db.UpsertBatch(ctx, s.pool, db.BatchConfig{
		Table:      table,
		Columns:    columns,
		KeyColumns: keyColumns,
	}, rows)
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
