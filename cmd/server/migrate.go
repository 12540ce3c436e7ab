package main

import (
	"github.com/spf13/cobra"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/store"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the countries table and indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireDatabase(cfg); err != nil {
			return err
		}
		db, err := postgres.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := store.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Info("schema migrated")
		return nil
	},
}
