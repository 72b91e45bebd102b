package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fatflowers/billing/internal/platform/db"
	"github.com/fatflowers/billing/pkg/config"
	"github.com/fatflowers/billing/pkg/logger"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger schema and indexes for the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := db.Open(cmd.Context(), log, cfg)
			if err != nil {
				log.Errorw("migrate_failed", "driver", cfg.Database.Driver, "error", err)
				return err
			}
			log.Infow("migrate_done", "driver", cfg.Database.Driver)
			return store.Close(context.Background())
		},
	}
}
