package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/tui/progress"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// launchProgressFunc is a function variable for launching the progress view, allowing it to be mocked in tests.
var launchProgressFunc = launchProgress

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

func defaultIsTerminal(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

func launchProgress(ctx context.Context, title string, run progress.RunFunc) (string, domain.InvocationResult, error) {
	return progress.Run(ctx, title, run)
}

// invocationFlags are the output flags shared by review and invoke.
type invocationFlags struct {
	timeout time.Duration
	json    bool
	quiet   bool
	tui     bool
}

func (f *invocationFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Cancel the worker after this duration (overrides [worker] timeout)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the result as a JSON object")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not stream worker stderr")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "Show a progress view while the worker runs")
	cmd.MarkFlagsMutuallyExclusive("quiet", "tui")
}

// executeFunc runs one invocation. A non-nil error means the worker was
// never invoked (for example a broken config file).
type executeFunc func(ctx context.Context, diag domain.DiagnosticFunc) (string, domain.InvocationResult, error)

// runInvocation executes run with the diagnostics sink chosen by the flags
// and writes the result. Success output is written verbatim.
func runInvocation(cmd *cobra.Command, flags invocationFlags, title string, run executeFunc) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		id  string
		res domain.InvocationResult
		err error
	)
	useTUI := flags.tui
	if useTUI && !isTerminal(cmd.ErrOrStderr()) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Progress view requested but stderr is not a TTY; falling back to plain output.")
		useTUI = false
	}

	if useTUI {
		var setupErr error
		id, res, err = launchProgressFunc(ctx, title, func(ctx context.Context, diag domain.DiagnosticFunc) (string, domain.InvocationResult) {
			var runID string
			var runRes domain.InvocationResult
			runID, runRes, setupErr = run(ctx, diag)
			return runID, runRes
		})
		if setupErr != nil {
			return setupErr
		}
		if err != nil {
			return err
		}
	} else {
		id, res, err = run(ctx, streamDiagnostics(cmd.ErrOrStderr(), flags.quiet))
		if err != nil {
			return err
		}
	}

	return writeResult(cmd.OutOrStdout(), id, res, flags.json)
}

// streamDiagnostics returns a sink that echoes worker stderr lines to w.
func streamDiagnostics(w io.Writer, quiet bool) domain.DiagnosticFunc {
	if quiet {
		return nil
	}
	return func(line string) {
		_, _ = fmt.Fprintf(w, "Worker stderr: %s\n", line)
	}
}

// writeResult prints the output on success. On failure it returns the
// result's error, or ErrReported once the JSON envelope carries it.
func writeResult(w io.Writer, id string, res domain.InvocationResult, asJSON bool) error {
	if asJSON {
		if err := writeEnvelope(w, id, res); err != nil {
			return err
		}
		if !res.Succeeded() {
			return ErrReported
		}
		return nil
	}

	if !res.Succeeded() {
		return res.Err
	}
	_, err := io.WriteString(w, res.Output)
	return err
}
