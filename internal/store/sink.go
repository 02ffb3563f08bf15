// Package store persists collected record sets into their storage targets
// with per-target failure isolation.
package store

import "context"

// Sink writes positional record batches into named tables. Replace and
// Upsert are single-transaction operations: a failure leaves the target
// exactly as it was.
type Sink interface {
	// Exists reports whether the table is present. Sinks never create
	// tables; provisioning is an explicit migration step.
	Exists(ctx context.Context, table string) (bool, error)

	// Insert appends rows.
	Insert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Replace deletes all existing rows and inserts the batch, atomically.
	Replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Upsert deletes rows whose identity-key values appear in the batch,
	// then inserts the batch, atomically.
	Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error)

	Close() error
}
