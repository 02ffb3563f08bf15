package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/arbor-insights/pulse-cli/internal/db"
	"github.com/arbor-insights/pulse-cli/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured store",
	Long: "Provisions the activity schema and tables. Migration is always " +
		"explicit: the storage engine refuses to write to missing tables " +
		"rather than create them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		switch cfg.Store.Driver {
		case "postgres":
			pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Migrate(ctx, pool)
		case "sqlite":
			sink, err := store.NewSQLite(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer sink.Close() //nolint:errcheck
			return sink.Migrate(ctx)
		default:
			return eris.Errorf("unknown store driver %q (want postgres or sqlite)", cfg.Store.Driver)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
