package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arbor-insights/pulse-cli/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered sources and their storage targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		targets, err := store.LoadTargets(cfg.Targets.Path)
		if err != nil {
			return err
		}

		reg := buildRegistry(newFetchClient(), credProvider())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTABLE\tKEY\tCOLUMNS")
		for _, c := range reg.All() {
			table, key := "-", "-"
			if t, ok := targets[c.Name()]; ok {
				table = t.Table
				key = strings.Join(t.KeyColumns, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.Name(), table, key, len(c.Columns()))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
