package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent run outcomes from the run log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		log, closeFn, err := openRunLog(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		entries, err := log.List(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tPHASE\tNAME\tSTATUS\tRECORDS\tSECONDS\tRECORDED\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%s\t%s\n",
				truncateID(e.RunID), e.Phase, e.Name, e.Status,
				e.RecordCount, e.DurationSeconds,
				e.RecordedAt.Format("2006-01-02 15:04"),
				e.ErrorMessage,
			)
		}
		return w.Flush()
	},
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max number of entries to display")
	rootCmd.AddCommand(runsCmd)
}
