package http

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/teleclinic_backend/config"
)

// NewHTTPCommand groups the API server commands. Its persistent flags
// override the matching server.* keys of the config file.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the booking and chat API",
	}
	cmd.PersistentFlags().Int("port", 0, "listen port, overrides server.port")
	cmd.PersistentFlags().String("env", "", "environment name, overrides server.environment")

	cmd.AddCommand(NewStartCommand())
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.ReadConfig(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		cfg.Server.Environment = env
	}
	return cfg, cfg.Validate()
}
