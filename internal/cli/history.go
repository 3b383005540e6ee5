package cli

import (
	"fmt"

	"github.com/runoshun/review-bridge/internal/app"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase"
	"github.com/spf13/cobra"
)

// newHistoryCommand creates the history command.
func newHistoryCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded invocations",
		Long: `Inspect and prune the record of past worker invocations.

Records hold the executable, entry, file, model, timing, final state and
failure message of each run. Credentials are never recorded.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newHistoryListCommand(c))
	cmd.AddCommand(newHistoryShowCommand(c))
	cmd.AddCommand(newHistoryPruneCommand(c))

	return cmd
}

// newHistoryListCommand creates the history list subcommand.
func newHistoryListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		state  string
		format string
		limit  int
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded invocations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(opts.format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}

			uc := c.ListHistoryUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListHistoryInput{
				State: domain.InvocationState(opts.state),
				Limit: opts.limit,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.format != formatText {
				views := make([]recordView, 0, len(out.Records))
				for _, r := range out.Records {
					views = append(views, newRecordView(r))
				}
				return writeStructured(w, opts.format, views)
			}

			if len(out.Records) == 0 {
				_, _ = fmt.Fprintln(w, "No invocations recorded.")
				return nil
			}
			printHistoryList(w, out.Records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of records (0 = all)")
	cmd.Flags().StringVar(&opts.state, "state", "", "Filter by final state (succeeded, failed, cancelled, spawn_error)")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "Output format: text, json or yaml")

	return cmd
}

// newHistoryShowCommand creates the history show subcommand.
func newHistoryShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		format string
		lines  int
	}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one invocation and its log",
		Long: `Show a recorded invocation and its diagnostic log.

<id> may be the full invocation ID or any unique prefix of it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}

			uc := c.ShowInvocationUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ShowInvocationInput{
				ID:    args[0],
				Lines: opts.lines,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.format != formatText {
				return writeStructured(w, opts.format, newRecordView(out.Record))
			}

			printRecord(w, out.Record)
			if out.Log != "" {
				_, _ = fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Log ("+out.LogPath+"):"))
				_, _ = fmt.Fprint(w, out.Log)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 0, "Number of log lines from the end (0 = all)")
	cmd.Flags().StringVar(&opts.format, "format", formatText, "Output format: text, json or yaml")

	return cmd
}

// newHistoryPruneCommand creates the history prune subcommand.
func newHistoryPruneCommand(c *app.Container) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old invocation records",
		Long: `Delete all but the newest records.

Without --keep, [history] max_entries is used; a value of 0 there keeps
everything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			if !cmd.Flags().Changed("keep") {
				cfg, err := c.ConfigLoader.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if cfg.History.MaxEntries == 0 {
					_, _ = fmt.Fprintln(w, "Nothing to prune.")
					return nil
				}
				keep = cfg.History.MaxEntries
			}

			uc := c.PruneHistoryUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.PruneHistoryInput{Keep: keep})
			if err != nil {
				return err
			}

			if out.Removed == 0 {
				_, _ = fmt.Fprintln(w, "Nothing to prune.")
				return nil
			}
			_, _ = fmt.Fprintf(w, "Pruned %d records (kept %d).\n", out.Removed, keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of newest records to keep")

	return cmd
}
