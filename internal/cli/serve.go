package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	MetricsAddr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipelines on the configured interval",
		Long: `Run intake and the corpus pipeline immediately and then on every
scheduler tick until interrupted. Prometheus metrics are served on
--metrics-addr (or metrics.addr from the config) under /metrics.

Example:
  signalengine serve --metrics-addr :9102`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			addr := opts.MetricsAddr
			if addr == "" {
				addr = application.Config().Metrics.Addr
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Serve(ctx, addr); err != nil {
				return WrapExitError(ExitFailure, "serve failed", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "listen address of the metrics endpoint")

	return cmd
}
