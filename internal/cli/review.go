package cli

import (
	"context"

	"github.com/runoshun/review-bridge/internal/app"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase"
	"github.com/spf13/cobra"
)

// newReviewCommand creates the review command for running the review worker on a file.
func newReviewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		apiKey string
		model  string
		flags  invocationFlags
	}

	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Review a report file with the worker",
		Long: `Run the configured review worker against a report file.

The worker is started as "[worker] executable" "[worker] script" FILE KEY MODEL.
The three values are passed through unchanged. On success the worker's
standard output is printed exactly as produced.

Arguments:
  <file>    Report file passed to the worker

When --api-key is omitted, the key is read from the environment variable
named by [review] api_key_env. When --model is omitted, [review] default_model
is used.

Examples:
  # Review a report
  review-bridge review report.md --model gpt-4o

  # Machine-readable result for a UI caller
  review-bridge review report.md --json

  # Show a progress view with the worker's stderr
  review-bridge review report.md --tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.RunReviewInput{
				FilePath: args[0],
				APIKey:   opts.apiKey,
				Model:    opts.model,
				Timeout:  opts.flags.timeout,
			}
			uc := c.RunReviewUseCase()

			return runInvocation(cmd, opts.flags, "review "+args[0],
				func(ctx context.Context, diag domain.DiagnosticFunc) (string, domain.InvocationResult, error) {
					in.Diagnostics = diag
					out, err := uc.Execute(ctx, in)
					if out == nil {
						return "", domain.InvocationResult{}, err
					}
					return out.ID, out.Result, nil
				})
		},
	}

	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "Access credential passed to the worker")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model name passed to the worker")
	opts.flags.register(cmd)

	return cmd
}
