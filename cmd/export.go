package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/arbor-insights/pulse-cli/internal/runlog"
)

var (
	exportRun    string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's outcome rows for audit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		log, closeFn, err := openRunLog(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		entries, err := log.ByRun(ctx, exportRun)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return eris.Errorf("no entries recorded for run %s", exportRun)
		}

		switch exportFormat {
		case "csv":
			out := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return eris.Wrapf(err, "create %s", exportOut)
				}
				defer f.Close() //nolint:errcheck
				out = f
			}
			return runlog.WriteCSV(out, entries)
		case "xlsx":
			if exportOut == "" {
				return eris.New("--out is required for xlsx export")
			}
			return runlog.WriteXLSX(exportOut, entries)
		default:
			return eris.Errorf("unknown export format %q (want csv or xlsx)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRun, "run", "", "run ID to export")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (stdout for csv when omitted)")
	_ = exportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportCmd)
}
