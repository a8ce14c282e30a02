package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/teleclinic_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/teleclinic_backend/cmd/system"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "teleclinic",
		Short: "Teleclinic appointment booking and doctor chat backend.",
		Long: `Teleclinic lets patients book time slots from a doctor's weekly availability
and hold text consultations with doctors once a chat request is accepted.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "config file path")

	root.AddCommand(systemcmd.NewSystemCommand(), httpcmd.NewHTTPCommand())
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
