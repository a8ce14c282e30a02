package system

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/teleclinic_backend/pkg/logs"
)

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Maintenance and tooling commands",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logs.Default())
		},
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewGenDocsCommand())
	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewDoctorAddCommand())
	cmd.AddCommand(NewIssueTokenCommand())

	return cmd
}
