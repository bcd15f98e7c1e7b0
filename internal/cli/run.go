package cli

import (
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SkipIntake bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run intake and the corpus pipeline once",
		Long: `Run one live intake pass followed by one corpus pass: promotion of live
items, normalization, the lifecycle rules, entity authority and trust.
The corpus and every artifact are written back to the configured store.

Example:
  signalengine run --config signals.yaml
  signalengine run --skip-intake`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			if opts.SkipIntake {
				run, err := application.RunCorpus(commandContext(cmd))
				if err != nil {
					return WrapExitError(ExitFailure, "corpus run failed", err)
				}
				return writeJSON(cmd.OutOrStdout(), run.Summary)
			}
			if err := application.RunAll(commandContext(cmd)); err != nil {
				return WrapExitError(ExitFailure, "run failed", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.SkipIntake, "skip-intake", false, "only run the corpus pipeline")

	return cmd
}

// NewIntakeCommand creates the intake command.
func NewIntakeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "intake",
		Short:         "Fetch feeds once and update the live buffer",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			run, err := application.RunIntake(commandContext(cmd))
			if err != nil {
				return WrapExitError(ExitFailure, "intake run failed", err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"runId":   run.RunID,
				"report":  run.Result.Report,
				"signals": run.Result.Signals,
			})
		},
	}
}
