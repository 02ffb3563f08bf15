package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbor-insights/pulse-cli/internal/collect"
	"github.com/arbor-insights/pulse-cli/internal/runlog"
	"github.com/arbor-insights/pulse-cli/internal/store"
)

var (
	collectSources    []string
	collectMode       string
	collectSummaryOut string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect from all (or selected) sources and store the results",
	Long: "Runs the full pipeline: fetch and normalize records from each source, " +
		"then write them to their storage targets. One failing source or target " +
		"never aborts the rest; both phase summaries are always printed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		modeStr := collectMode
		if modeStr == "" {
			modeStr = cfg.Collect.Mode
		}
		mode, err := store.ParseMode(modeStr)
		if err != nil {
			return err
		}

		targets, err := store.LoadTargets(cfg.Targets.Path)
		if err != nil {
			return err
		}

		reg := buildRegistry(newFetchClient(), credProvider())
		sets, collected, err := collect.NewOrchestrator(reg).Run(ctx, collectSources)
		if err != nil {
			return err
		}

		sink, log, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck

		stored := store.NewEngine(sink, targets).Store(ctx, sets, mode)

		runID := runlog.NewRunID()
		if log != nil {
			if err := log.Record(ctx, runID, runlog.PhaseCollect, collected); err != nil {
				zap.L().Error("failed to record collect summary", zap.Error(err))
			}
			if err := log.Record(ctx, runID, runlog.PhaseStore, stored); err != nil {
				zap.L().Error("failed to record store summary", zap.Error(err))
			}
		}

		fmt.Printf("run %s (mode %s)\n\n", runID, mode)
		fmt.Print(runlog.FormatSummary("collection", collected))
		fmt.Println()
		fmt.Print(runlog.FormatSummary("storage", stored))

		if collectSummaryOut != "" {
			f, err := os.Create(collectSummaryOut)
			if err != nil {
				return eris.Wrapf(err, "create summary file %s", collectSummaryOut)
			}
			defer f.Close() //nolint:errcheck
			if err := runlog.WriteSummaryCSV(f, collected, stored); err != nil {
				return err
			}
		}

		if collected.Failed() || stored.Failed() {
			return eris.New("run completed with failures (see summaries above)")
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringSliceVar(&collectSources, "sources", nil, "collect only these sources (default: all)")
	collectCmd.Flags().StringVar(&collectMode, "mode", "", "write mode: append, replace, or upsert (default from config)")
	collectCmd.Flags().StringVar(&collectSummaryOut, "summary-out", "", "also write both summaries to this CSV file")
	rootCmd.AddCommand(collectCmd)
}
