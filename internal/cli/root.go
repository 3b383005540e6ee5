// Package cli provides the command-line interface for review-bridge.
package cli

import (
	"github.com/runoshun/review-bridge/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupWorker  = "worker"
	groupHistory = "history"
	groupSetup   = "setup"
)

// NewRootCommand creates the root command for review-bridge.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "review-bridge",
		Short: "Run report review workers",
		Long: `review-bridge runs an external review worker against a report file
and returns the worker's output unchanged.

The worker is started as "executable script FILE KEY MODEL" without a shell.
Its standard error is streamed as diagnostics while it runs; a non-zero exit
is reported as "Worker script failed: <stderr>".`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil {
				return nil
			}

			if verbose {
				c.SetLogMirror(cmd.ErrOrStderr())
			}

			// config init must work even when the existing file is broken
			if cmd.Name() == "init" {
				return nil
			}

			cfg, err := c.ConfigLoader.Load()
			if err != nil {
				// Reported by the command that needs the config
				return nil
			}
			for _, w := range cfg.Warnings {
				c.Logger.Warn("config warning", "detail", w)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Mirror the diagnostic log to stderr")

	// Define command groups
	root.AddGroup(
		&cobra.Group{ID: groupWorker, Title: "Worker Commands:"},
		&cobra.Group{ID: groupHistory, Title: "History Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	reviewCmd := newReviewCommand(c)
	reviewCmd.GroupID = groupWorker

	invokeCmd := newInvokeCommand(c)
	invokeCmd.GroupID = groupWorker

	historyCmd := newHistoryCommand(c)
	historyCmd.GroupID = groupHistory

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(
		reviewCmd,
		invokeCmd,
		historyCmd,
		configCmd,
	)

	return root
}
