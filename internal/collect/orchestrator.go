package collect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

// Orchestrator runs a set of collectors and gathers their outputs. One
// failing source never aborts the others; its failure is recorded in the
// summary instead.
type Orchestrator struct {
	reg *Registry
}

// NewOrchestrator creates an orchestrator over the given registry.
func NewOrchestrator(reg *Registry) *Orchestrator {
	return &Orchestrator{reg: reg}
}

// Run collects from the named sources (all registered sources when names is
// empty), in registration order. It returns the collected sets keyed by
// source name and a summary with exactly one outcome per attempted source.
//
// An unknown source name fails the whole call before any collection starts.
// A collector error is confined to its own outcome; partial records the
// collector managed to return are kept under its name so callers can decide
// what to do with them.
func (o *Orchestrator) Run(ctx context.Context, names []string) (map[string]model.RecordSet, model.Summary, error) {
	log := zap.L().With(zap.String("component", "collect.orchestrator"))

	collectors, err := o.reg.Select(names)
	if err != nil {
		return nil, model.Summary{}, err
	}

	sets := make(map[string]model.RecordSet, len(collectors))
	var summary model.Summary

	for _, c := range collectors {
		if err := ctx.Err(); err != nil {
			return sets, summary, err
		}

		srcLog := log.With(zap.String("source", c.Name()))
		srcLog.Info("collecting")

		start := time.Now()
		set, err := c.Collect(ctx)
		elapsed := time.Since(start)

		set.Name = c.Name()
		sets[c.Name()] = set

		if err != nil {
			srcLog.Error("collection failed",
				zap.Error(err),
				zap.Int("partial_records", len(set.Records)),
				zap.Duration("elapsed", elapsed),
			)
			summary.Append(model.Outcome{
				Name:         c.Name(),
				Status:       model.StatusError,
				RecordCount:  len(set.Records),
				Duration:     elapsed,
				ErrorMessage: err.Error(),
			})
			continue
		}

		srcLog.Info("collection complete",
			zap.Int("records", len(set.Records)),
			zap.Duration("elapsed", elapsed),
		)
		summary.Append(model.Outcome{
			Name:        c.Name(),
			Status:      model.StatusSuccess,
			RecordCount: len(set.Records),
			Duration:    elapsed,
		})
	}

	succeeded, failed, _ := summary.Counts()
	log.Info("collection run complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("records", summary.TotalRecords()),
	)
	return sets, summary, nil
}
