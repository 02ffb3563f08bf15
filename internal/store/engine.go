package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

// WriteMode selects how a batch is written into its target.
type WriteMode string

const (
	ModeAppend  WriteMode = "append"
	ModeReplace WriteMode = "replace"
	ModeUpsert  WriteMode = "upsert"
)

// ParseMode validates a mode string.
func ParseMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case ModeAppend, ModeReplace, ModeUpsert:
		return WriteMode(s), nil
	default:
		return "", eris.Errorf("store: unknown write mode %q (want append, replace, or upsert)", s)
	}
}

// Engine writes collected record sets to their targets. Targets are
// independent: one failing write never blocks the others, and every set
// gets exactly one outcome in the summary.
type Engine struct {
	sink    Sink
	targets map[string]Target
}

// NewEngine creates an engine over the given sink and target bindings.
func NewEngine(sink Sink, targets map[string]Target) *Engine {
	return &Engine{sink: sink, targets: targets}
}

// Store writes each record set to its target. Sets are processed in sorted
// name order so summaries are stable across runs. A set with no target and
// an empty set are both skipped; a missing table is an error outcome, never
// a prompt to create schema.
func (e *Engine) Store(ctx context.Context, sets map[string]model.RecordSet, mode WriteMode) model.Summary {
	log := zap.L().With(zap.String("component", "store.engine"), zap.String("mode", string(mode)))

	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	var summary model.Summary
	for _, name := range names {
		start := time.Now()
		outcome := e.storeOne(ctx, name, sets[name], mode)
		outcome.Duration = time.Since(start)
		summary.Append(outcome)

		switch outcome.Status {
		case model.StatusError:
			log.Error("store failed", zap.String("target", name), zap.String("error", outcome.ErrorMessage))
		case model.StatusSkipped:
			log.Info("store skipped", zap.String("target", name), zap.String("reason", outcome.ErrorMessage))
		default:
			log.Info("store complete", zap.String("target", name), zap.Int("rows", outcome.RecordCount))
		}
	}

	succeeded, failed, skipped := summary.Counts()
	log.Info("storage run complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
		zap.Int("rows", summary.TotalRecords()),
	)
	return summary
}

func (e *Engine) storeOne(ctx context.Context, name string, set model.RecordSet, mode WriteMode) model.Outcome {
	outcome := model.Outcome{Name: name}

	target, ok := e.targets[name]
	if !ok {
		outcome.Status = model.StatusSkipped
		outcome.ErrorMessage = "no storage target configured"
		return outcome
	}

	if set.Empty() {
		outcome.Status = model.StatusSkipped
		outcome.ErrorMessage = "no records collected"
		return outcome
	}

	exists, err := e.sink.Exists(ctx, target.Table)
	if err != nil {
		outcome.Status = model.StatusError
		outcome.ErrorMessage = err.Error()
		return outcome
	}
	if !exists {
		outcome.Status = model.StatusError
		outcome.ErrorMessage = fmt.Sprintf("table %s does not exist; run migrate first", target.Table)
		return outcome
	}

	columns := set.AllColumns()
	rows := set.Rows()

	var n int64
	switch mode {
	case ModeAppend:
		n, err = e.sink.Insert(ctx, target.Table, columns, rows)
	case ModeReplace:
		n, err = e.sink.Replace(ctx, target.Table, columns, rows)
	case ModeUpsert:
		rows, err = dedupeByKey(rows, columns, target.KeyColumns)
		if err == nil {
			n, err = e.sink.Upsert(ctx, target.Table, columns, target.KeyColumns, rows)
		}
	default:
		err = eris.Errorf("store: unknown write mode %q", mode)
	}

	if err != nil {
		outcome.Status = model.StatusError
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	outcome.Status = model.StatusSuccess
	outcome.RecordCount = int(n)
	return outcome
}

// dedupeByKey collapses rows sharing an identity key to the last occurrence,
// keeping first-seen order. A batch with repeated keys would otherwise make
// the delete-then-insert upsert reintroduce the duplicate.
func dedupeByKey(rows [][]any, columns, keyColumns []string) ([][]any, error) {
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
			return nil, eris.Errorf("store: key column %q not in record columns", k)
		}
		keyIdx = append(keyIdx, found)
	}

	out := make([][]any, 0, len(rows))
	pos := make(map[string]int, len(rows))
	for _, row := range rows {
		parts := make([]string, len(keyIdx))
		for i, ki := range keyIdx {
			// Type-tagged so 1 (number) and "1" (string) stay distinct keys.
			parts[i] = fmt.Sprintf("%T:%v", row[ki], row[ki])
		}
		key := strings.Join(parts, "\x1f")

		if p, seen := pos[key]; seen {
			out[p] = row
			continue
		}
		pos[key] = len(out)
		out = append(out, row)
	}
	return out, nil
}
