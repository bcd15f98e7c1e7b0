package cli

import (
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <corpus.json>",
		Short: "Normalize a corpus document into the configured store",
		Long: `Normalize a corpus document and replace the stored corpus with it. Use it
to seed a store or to move a JSON snapshot into the sqlite driver.

Example:
  signalengine import legacy.json --config sqlite.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(args[0])
			if err != nil {
				return err
			}

			application, logger, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Import(commandContext(cmd), raw)
			if err != nil {
				return WrapExitError(ExitFailure, "import failed", err)
			}
			logger.Info("corpus imported", "kept", report.Kept, "duplicates", report.Duplicates, "missingTitle", report.MissingTitle)
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}
