package cli

import (
	"encoding/json"
	"errors"
	"storefront_server/config"
	"storefront_server/services"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the database and cache",
	Long:  "Pings the database and, when enabled, the Redis cache and prints the results as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB()

		sm := services.NewServiceManager(logger, config.GetConfig(), db)
		defer sm.Close()

		ctx := cmd.Context()
		dbStatus, dbErr := sm.HealthService.GetDatabaseHealthStatus(ctx)
		cacheStatus, cacheErr := sm.HealthService.GetCacheHealthStatus(ctx)

		report := map[string]any{
			"server":   sm.HealthService.GetServerHealthStatus(),
			"database": dbStatus,
			"cache":    cacheStatus,
			"pool":     db.GetStats(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}

		return errors.Join(dbErr, cacheErr)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
