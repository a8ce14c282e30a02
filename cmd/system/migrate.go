package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/teleclinic_backend/config"
	"github.com/Alijeyrad/teleclinic_backend/pkg/authorize"
	"github.com/Alijeyrad/teleclinic_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	var (
		timeout      time.Duration
		skipPolicies bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the booking and chat tables, then seed role policies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := migrateSchema(ctx, cfg); err != nil {
				return err
			}
			if skipPolicies {
				return nil
			}
			return seedPolicies(ctx, cfg)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	cmd.Flags().BoolVar(&skipPolicies, "skip-policies", false, "only migrate the application database")
	return cmd
}

func migrateSchema(ctx context.Context, cfg *config.Config) error {
	client, drv, err := database.NewRepoClient(cfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := database.Migrate(ctx, drv); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Database.DBName, err)
	}
	slog.Info("schema migrated", "db", cfg.Database.DBName)
	return nil
}

func seedPolicies(ctx context.Context, cfg *config.Config) error {
	authCfg := authorize.FromCentralConfig(cfg.Authorization)
	authCfg.PolicySyncEnabled = false
	auth, cleanup, err := authorize.Open(authCfg, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return err
	}
	defer cleanup(ctx)

	if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	slog.Info("policies seeded", "db", cfg.CasbinDatabase.DBName)
	return nil
}
