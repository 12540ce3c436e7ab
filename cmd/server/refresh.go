package main

import (
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.refresh.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("refresh complete",
			"processed", result.Processed,
			"skipped", result.Skipped,
			"total_countries", result.Status.TotalCountries,
			"summary_written", result.ArtifactWritten,
		)
		return nil
	},
}
