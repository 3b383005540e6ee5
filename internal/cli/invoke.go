package cli

import (
	"context"
	"strings"

	"github.com/runoshun/review-bridge/internal/app"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase"
	"github.com/spf13/cobra"
)

// newInvokeCommand creates the invoke command for running an arbitrary worker.
func newInvokeCommand(c *app.Container) *cobra.Command {
	var opts struct {
		dir   string
		flags invocationFlags
	}

	cmd := &cobra.Command{
		Use:   "invoke <executable> [entry [args...]]",
		Short: "Run any worker through the invoker",
		Long: `Run an executable with an optional entry point and arguments, using the
same invoker, diagnostics and history as review.

Flags must come before <executable>; everything after it is passed to the
worker unchanged.

Examples:
  review-bridge invoke python ./worker/review.py report.md KEY gpt-4o
  review-bridge invoke --json node worker.js --input data.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.InvokeWorkerInput{
				Executable: args[0],
				Dir:        opts.dir,
				Timeout:    opts.flags.timeout,
			}
			if len(args) > 1 {
				in.Entry = args[1]
				in.Args = args[2:]
			}
			uc := c.InvokeWorkerUseCase()

			return runInvocation(cmd, opts.flags, strings.Join(args[:min(len(args), 2)], " "),
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

	// Worker arguments may look like flags
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Working directory (overrides [worker] dir)")
	opts.flags.register(cmd)

	return cmd
}
