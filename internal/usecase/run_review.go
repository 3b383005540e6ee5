// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/usecase/shared"
)

// RunReviewInput contains the parameters for reviewing one report file.
// Fields are ordered to minimize memory padding.
type RunReviewInput struct {
	Diagnostics domain.DiagnosticFunc // Receives worker stderr lines (optional)
	FilePath    string                // Report file passed to the worker
	APIKey      string                // Access credential (empty = read from [review] api_key_env)
	Model       string                // Model name (empty = [review] default_model)
	Timeout     time.Duration         // Overrides [worker] timeout when > 0
}

// RunReviewOutput contains the outcome of a review.
type RunReviewOutput struct {
	ID     string                  // Invocation ID
	Result domain.InvocationResult // Success or failure of the worker
}

// RunReview runs the review worker against a file.
type RunReview struct {
	runner       *shared.Runner
	configLoader domain.ConfigLoader
	getenv       func(string) string
}

// NewRunReview creates a new RunReview use case.
func NewRunReview(
	invoker domain.WorkerInvoker,
	history domain.HistoryRepository,
	configLoader domain.ConfigLoader,
	logs domain.InvocationLogs,
	logger domain.Logger,
	clock domain.Clock,
	newID domain.IDGenerator,
	getenv func(string) string,
) *RunReview {
	return &RunReview{
		runner: &shared.Runner{
			Invoker: invoker,
			History: history,
			Logs:    logs,
			Logger:  logger,
			Clock:   clock,
			NewID:   newID,
		},
		configLoader: configLoader,
		getenv:       getenv,
	}
}

// Execute runs the worker as `executable script FILE KEY MODEL`.
// The three values are passed through verbatim, without validation.
// When the worker ran, the output is returned together with the result's
// error, so callers always get the invocation ID.
func (uc *RunReview) Execute(ctx context.Context, in RunReviewInput) (*RunReviewOutput, error) {
	cfg, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	apiKey, err := shared.CredentialFromEnv(in.APIKey, cfg.Review.APIKeyEnv, uc.getenv)
	if err != nil {
		return nil, err
	}

	model := in.Model
	if model == "" {
		model = cfg.Review.DefaultModel
	}

	timeout := in.Timeout
	if timeout <= 0 {
		timeout = cfg.Worker.Timeout.Std()
	}

	outcome := uc.runner.Run(ctx, shared.Run{
		Command: "review",
		File:    in.FilePath,
		Model:   model,
		Request: domain.InvocationRequest{
			Executable: cfg.Worker.Executable,
			Entry:      cfg.Worker.Script,
			Dir:        cfg.Worker.Dir,
			Env:        cfg.WorkerEnv(),
			Args:       []string{in.FilePath, apiKey, model},
		},
		History:     cfg.History,
		Timeout:     timeout,
		Diagnostics: in.Diagnostics,
	})

	return &RunReviewOutput{
		ID:     outcome.ID,
		Result: outcome.Result,
	}, outcome.Result.Err
}
