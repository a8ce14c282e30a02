package system

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/teleclinic_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the databases listed in server.databases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if err := database.InitializeDatabases(cmd.Context(), cfg); err != nil {
				return err
			}
			slog.Info("databases ready", "databases", cfg.Server.Databases)
			return nil
		},
	}
}
