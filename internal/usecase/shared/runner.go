package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
)

// Runner invokes a worker under a fresh invocation ID and records the outcome.
type Runner struct {
	Invoker domain.WorkerInvoker
	History domain.HistoryRepository // nil disables recording
	Logs    domain.InvocationLogs    // nil leaves log files alone
	Logger  domain.Logger
	Clock   domain.Clock
	NewID   domain.IDGenerator
}

// Run describes one invocation for Runner.
// Fields are ordered to minimize memory padding.
type Run struct {
	Diagnostics domain.DiagnosticFunc
	Command     string // "review" or "invoke"
	File        string // Recorded for review runs
	Model       string // Recorded for review runs
	Request     domain.InvocationRequest
	History     domain.HistoryConfig
	Timeout     time.Duration // 0 = no limit
}

// Outcome is the result of Runner.Run.
type Outcome struct {
	Record *domain.InvocationRecord
	ID     string
	Result domain.InvocationResult
}

// Run executes the invocation and returns its outcome.
// History failures are logged and never change the result.
func (r *Runner) Run(ctx context.Context, run Run) Outcome {
	id := r.NewID()
	req := run.Request
	req.ID = id

	if run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, run.Timeout)
		defer cancel()
	}

	rec := &domain.InvocationRecord{
		ID:         id,
		Command:    run.Command,
		Executable: req.Executable,
		Entry:      req.Entry,
		File:       run.File,
		Model:      run.Model,
		State:      domain.StateNotStarted,
		ArgCount:   len(req.Args),
		StartedAt:  r.Clock.Now(),
	}

	r.Logger.Info(id, "usecase", fmt.Sprintf("%s started", run.Command))
	res := r.Invoker.Invoke(ctx, req, run.Diagnostics)
	rec.Finish(res, r.Clock.Now())

	if res.Succeeded() {
		r.Logger.Info(id, "usecase", fmt.Sprintf("%s succeeded (%d bytes)", run.Command, len(res.Output)))
	} else {
		r.Logger.Warn(id, "usecase", fmt.Sprintf("%s failed: %s", run.Command, res.Kind()))
	}

	r.record(rec, run.History)
	r.closeLog(id)

	return Outcome{
		ID:     id,
		Result: res,
		Record: rec,
	}
}

func (r *Runner) record(rec *domain.InvocationRecord, cfg domain.HistoryConfig) {
	if r.History == nil || !cfg.IsEnabled() {
		return
	}
	if err := r.History.Save(rec); err != nil {
		r.Logger.Warn(rec.ID, "history", fmt.Sprintf("save record: %v", err))
		return
	}
	if cfg.MaxEntries <= 0 {
		return
	}
	removed, err := r.History.Prune(cfg.MaxEntries)
	if err != nil {
		r.Logger.Warn(rec.ID, "history", fmt.Sprintf("prune: %v", err))
		return
	}
	if len(removed) > 0 {
		r.Logger.Debug(rec.ID, "history", fmt.Sprintf("pruned %d records", len(removed)))
	}
	RemoveLogs(r.Logs, r.Logger, removed)
}

func (r *Runner) closeLog(id string) {
	if r.Logs == nil {
		return
	}
	if err := r.Logs.CloseInvocation(id); err != nil {
		r.Logger.Warn("", "log", fmt.Sprintf("close invocation log %s: %v", domain.ShortID(id), err))
	}
}

// RemoveLogs deletes the log files of pruned invocations.
// Failures are logged and do not stop the remaining removals.
func RemoveLogs(logs domain.InvocationLogs, logger domain.Logger, ids []string) {
	if logs == nil {
		return
	}
	for _, id := range ids {
		if err := logs.RemoveInvocation(id); err != nil {
			logger.Warn("", "log", fmt.Sprintf("remove invocation log %s: %v", domain.ShortID(id), err))
		}
	}
}
