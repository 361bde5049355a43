package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := connectDatabase(cmd.Context(), cfg.DSN(), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigrations(db, cfg.MigrationsPath, logger)
		},
	}
}
