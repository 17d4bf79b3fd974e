package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"daily-goals-backend/internal/db"
	"daily-goals-backend/internal/logging"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

			database, err := db.Connect(cfg.DBDriver, cfg.ConnString())
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(cmd.Context(), database, cfg.DBDriver); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.DBDriver).Msg("schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
