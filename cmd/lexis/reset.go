package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lexis/internal/repository/postgres"
	"lexis/internal/service"
)

func newResetCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe a learner's progress, badges and stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive learner id")
			}

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

			stats := service.NewStatsService(postgres.NewStore(db, cfg.Location()), logger)
			if err := stats.ResetProgress(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to reset learner %d: %w", userID, err)
			}

			logger.Info("Learner progress reset", zap.Int64("user_id", userID))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "learner id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
