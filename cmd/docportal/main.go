package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "docportal",
		Short:   "docportal -- PDF catalog builder and document chat server",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("json", false, "Output machine-readable JSON")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress spinners, only output result")
	root.PersistentFlags().String("config", "", "Path to the YAML config file (default docportal.yaml)")
	root.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	root.AddCommand(processCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(catalogCmdGroup())
	root.AddCommand(configCmdGroup())
	return root
}
