package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase/shared"
)

// InvokeWorkerInput contains the parameters for running an arbitrary worker.
// Fields are ordered to minimize memory padding.
type InvokeWorkerInput struct {
	Diagnostics domain.DiagnosticFunc // Receives worker stderr lines (optional)
	Executable  string                // Program to run (required)
	Entry       string                // Entry-point argument (optional)
	Dir         string                // Working directory (empty = [worker] dir)
	Args        []string              // Positional arguments after Entry
	Timeout     time.Duration         // Overrides [worker] timeout when > 0
}

// InvokeWorkerOutput contains the outcome of an invocation.
type InvokeWorkerOutput struct {
	ID     string                  // Invocation ID
	Result domain.InvocationResult // Success or failure of the worker
}

// InvokeWorker runs any worker through the invoker and records it.
type InvokeWorker struct {
	runner       *shared.Runner
	configLoader domain.ConfigLoader
}

// NewInvokeWorker creates a new InvokeWorker use case.
func NewInvokeWorker(
	invoker domain.WorkerInvoker,
	history domain.HistoryRepository,
	configLoader domain.ConfigLoader,
	logs domain.InvocationLogs,
	logger domain.Logger,
	clock domain.Clock,
	newID domain.IDGenerator,
) *InvokeWorker {
	return &InvokeWorker{
		runner: &shared.Runner{
			Invoker: invoker,
			History: history,
			Logs:    logs,
			Logger:  logger,
			Clock:   clock,
			NewID:   newID,
		},
		configLoader: configLoader,
	}
}

// Execute runs the worker. Like RunReview, the output is returned together
// with the result's error once the worker was invoked.
func (uc *InvokeWorker) Execute(ctx context.Context, in InvokeWorkerInput) (*InvokeWorkerOutput, error) {
	if in.Executable == "" {
		return nil, errors.New("executable cannot be empty")
	}

	cfg, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dir := in.Dir
	if dir == "" {
		dir = cfg.Worker.Dir
	}
	timeout := in.Timeout
	if timeout <= 0 {
		timeout = cfg.Worker.Timeout.Std()
	}

	outcome := uc.runner.Run(ctx, shared.Run{
		Command: "invoke",
		Request: domain.InvocationRequest{
			Executable: in.Executable,
			Entry:      in.Entry,
			Dir:        dir,
			Env:        cfg.WorkerEnv(),
			Args:       append([]string(nil), in.Args...),
		},
		History:     cfg.History,
		Timeout:     timeout,
		Diagnostics: in.Diagnostics,
	})

	return &InvokeWorkerOutput{
		ID:     outcome.ID,
		Result: outcome.Result,
	}, outcome.Result.Err
}
