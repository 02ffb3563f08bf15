package collect

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

// Collector pulls activity records from one external source and returns
// them normalized into a RecordSet.
//
// Collect may return a non-empty set alongside an error: a mid-run fetch
// failure yields whatever complete pages arrived before it. Callers decide
// whether partial data is worth keeping.
type Collector interface {
	// Name is the stable identifier used for selection, summaries, and
	// storage-target lookup.
	Name() string

	// Columns is the normalized column set this collector produces, in
	// output order.
	Columns() []string

	// Collect fetches and normalizes all available records.
	Collect(ctx context.Context) (model.RecordSet, error)
}
