package cli

import (
	"context"
	"fmt"
	"storefront_server/config"
	"storefront_server/database"
	"storefront_server/metrics"

	"github.com/MonkyMars/gecho"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront data core",
	Long:          "Manages the storefront database: schema migrations and dependency health checks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return metrics.Register(prometheus.DefaultRegisterer)
	},
}

// Execute runs the CLI
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// connectDB initializes the shared database instance. Callers release it with
// database.CloseInstance.
func connectDB() (*database.DB, *gecho.Logger, error) {
	logger := config.GetLogger()
	if err := database.Initialize(); err != nil {
		return nil, logger, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database.GetInstance(), logger, nil
}

func closeDB() {
	if err := database.CloseInstance(); err != nil {
		config.GetLogger().Warn("Failed to close database", gecho.Field("error", err))
	}
}
