package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"slotbook/internal/store/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			db, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer closeDatabase(db, log)

			applied, err := postgres.Migrate(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", slog.Int("count", len(applied)), slog.Any("files", applied))
			return nil
		},
	}
}
