package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/usecase"
)

// ProcessOptions holds flags for the process command.
type ProcessOptions struct {
	*RootOptions
	Now    string
	Output string
}

// NewProcessCommand creates the process command.
func NewProcessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProcessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "process <corpus.json>",
		Short: "Run the corpus engine over a file without touching the store",
		Long: `Read a corpus document, run normalization, the declared passes and trust
aggregation at a fixed time, and print the resulting corpus and reports.
Nothing is written to the configured store.

Example:
  signalengine process data.json --now 2026-05-12T12:00:00Z
  signalengine process data.json --out processed.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Now, "now", "", "evaluation time in RFC3339 (defaults to the current time)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write the result to a file instead of stdout")

	return cmd
}

func runProcess(opts *ProcessOptions, path string, cmd *cobra.Command) error {
	cfg, logger, err := opts.load(cmd)
	if err != nil {
		return err
	}

	now := time.Now().In(cfg.Scheduler.Location())
	if opts.Now != "" {
		now, err = time.Parse(time.RFC3339, opts.Now)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --now", err)
		}
	}

	raw, err := readRaw(path)
	if err != nil {
		return err
	}

	outcome := usecase.NewEngine(cfg, logger.With("component", "engine")).Process(raw, now)
	result := map[string]any{
		"corpus":        outcome.Corpus,
		"normalization": outcome.Normalization,
		"passes":        outcome.Passes,
		"trust":         outcome.Trust,
	}

	if opts.Output == "" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "create output", err)
	}
	defer f.Close()
	return writeJSON(f, result)
}

func readRaw(path string) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read corpus", err)
	}
	raw, err := domain.DecodeRawRecords(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("decode %s", path), err)
	}
	return raw, nil
}
