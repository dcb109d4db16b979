package cli

import (
	"fmt"
	"storefront_server/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long:  "Applies all migrations that haven't been applied yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB()

		applied, err := migrations.NewRunner(logger, db.DB).Migrate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last migration group",
	Long:  "Reverts every migration applied by the most recent migrate run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB()

		reverted, err := migrations.NewRunner(logger, db.DB).Rollback(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", reverted)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, logger, err := connectDB()
		if err != nil {
			return err
		}
		defer closeDB()

		statuses, err := migrations.NewRunner(logger, db.DB).Status(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = fmt.Sprintf("applied (group %d)", s.GroupID)
			}
			fmt.Fprintf(out, "%s_%s\t%s\n", s.Name, s.Comment, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, rollbackCmd, statusCmd)
}
