package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(invoker domain.WorkerInvoker, history domain.HistoryRepository) (*Runner, *testutil.MockLogger) {
	logger := &testutil.MockLogger{}
	return &Runner{
		Invoker: invoker,
		History: history,
		Logger:  logger,
		Clock: &testutil.MockClock{
			NowTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			Step:    3 * time.Second,
		},
		NewID: testutil.SequentialIDs(),
	}, logger
}

func TestRunner_Run_Success(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult(`{"score":5}`)}
	history := testutil.NewMockHistoryRepository()
	runner, logger := newTestRunner(invoker, history)

	out := runner.Run(context.Background(), Run{
		Command: "review",
		File:    "report.pdf",
		Model:   "gpt-4o",
		Request: domain.InvocationRequest{
			Executable: "python",
			Entry:      "review.py",
			Args:       []string{"report.pdf", "sk-secret", "gpt-4o"},
		},
	})

	assert.Equal(t, "00000001-0000-4000-8000-000000000000", out.ID)
	require.NoError(t, out.Result.Err)
	assert.Equal(t, `{"score":5}`, out.Result.Output)

	require.Len(t, invoker.Requests, 1)
	assert.Equal(t, out.ID, invoker.Requests[0].ID)

	rec := history.Records[out.ID]
	require.NotNil(t, rec)
	assert.Equal(t, "review", rec.Command)
	assert.Equal(t, "report.pdf", rec.File)
	assert.Equal(t, "gpt-4o", rec.Model)
	assert.Equal(t, 3, rec.ArgCount)
	assert.Equal(t, domain.StateSucceeded, rec.State)
	assert.Equal(t, 11, rec.OutputBytes)
	assert.Equal(t, 3*time.Second, rec.Duration())
	assert.Equal(t, -1, history.PruneArg, "no prune without max entries")

	assert.True(t, logger.Contains("review started"))
	assert.True(t, logger.Contains("review succeeded (11 bytes)"))
	assert.False(t, logger.Contains("sk-secret"))
}

func TestRunner_Run_FailureRecorded(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.FailureResult("bad key", 1)}
	history := testutil.NewMockHistoryRepository()
	runner, logger := newTestRunner(invoker, history)

	out := runner.Run(context.Background(), Run{
		Command: "invoke",
		Request: domain.InvocationRequest{Executable: "python"},
		History: domain.HistoryConfig{MaxEntries: 10},
	})

	assert.ErrorIs(t, out.Result.Err, domain.ErrWorkerFailure)
	rec := history.Records[out.ID]
	require.NotNil(t, rec)
	assert.Equal(t, domain.StateFailed, rec.State)
	assert.Equal(t, domain.KindWorkerFailure, rec.ErrorKind)
	assert.Equal(t, "Worker script failed: bad key", rec.Message)
	assert.Equal(t, 1, rec.ExitCode)
	assert.Equal(t, 10, history.PruneArg)
	assert.True(t, logger.Contains("invoke failed: worker_failure"))
}

func TestRunner_Run_HistoryDisabled(t *testing.T) {
	disabled := false
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult("ok")}
	history := testutil.NewMockHistoryRepository()
	runner, _ := newTestRunner(invoker, history)

	runner.Run(context.Background(), Run{
		Command: "review",
		Request: domain.InvocationRequest{Executable: "python"},
		History: domain.HistoryConfig{Enabled: &disabled, MaxEntries: 5},
	})

	assert.Equal(t, 0, history.Saves)
	assert.Equal(t, -1, history.PruneArg)
}

func TestRunner_Run_NilHistory(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult("ok")}
	runner, _ := newTestRunner(invoker, nil)

	out := runner.Run(context.Background(), Run{Request: domain.InvocationRequest{Executable: "python"}})

	assert.True(t, out.Result.Succeeded())
}

func TestRunner_Run_HistoryErrorsDoNotChangeResult(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult("ok")}

	t.Run("save error", func(t *testing.T) {
		history := testutil.NewMockHistoryRepository()
		history.SaveErr = errors.New("disk full")
		runner, logger := newTestRunner(invoker, history)

		out := runner.Run(context.Background(), Run{Request: domain.InvocationRequest{Executable: "python"}})

		assert.True(t, out.Result.Succeeded())
		assert.True(t, logger.Contains("save record: disk full"))
	})

	t.Run("prune error", func(t *testing.T) {
		history := testutil.NewMockHistoryRepository()
		history.PruneErr = errors.New("locked")
		runner, logger := newTestRunner(invoker, history)

		out := runner.Run(context.Background(), Run{
			Request: domain.InvocationRequest{Executable: "python"},
			History: domain.HistoryConfig{MaxEntries: 1},
		})

		assert.True(t, out.Result.Succeeded())
		assert.True(t, logger.Contains("prune: locked"))
	})
}

func TestRunner_Run_PrunedLogsRemoved(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult("ok")}
	history := testutil.NewMockHistoryRepository()
	require.NoError(t, history.Save(&domain.InvocationRecord{
		ID:        "old00001-0000-4000-8000-000000000000",
		StartedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}))
	logs := &testutil.MockInvocationLogs{}
	runner, _ := newTestRunner(invoker, history)
	runner.Logs = logs

	out := runner.Run(context.Background(), Run{
		Request: domain.InvocationRequest{Executable: "python"},
		History: domain.HistoryConfig{MaxEntries: 1},
	})

	assert.Equal(t, []string{"old00001-0000-4000-8000-000000000000"}, logs.Removed)
	assert.Equal(t, []string{out.ID}, logs.Closed, "log of the finished run is closed")
	assert.Contains(t, history.Records, out.ID)
}

func TestRunner_Run_LogRemovalErrorIsLogged(t *testing.T) {
	invoker := &testutil.MockInvoker{Result: testutil.SuccessResult("ok")}
	history := testutil.NewMockHistoryRepository()
	require.NoError(t, history.Save(&domain.InvocationRecord{
		ID:        "old00001-0000-4000-8000-000000000000",
		StartedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}))
	runner, logger := newTestRunner(invoker, history)
	runner.Logs = &testutil.MockInvocationLogs{RemoveErr: errors.New("busy")}

	out := runner.Run(context.Background(), Run{
		Request: domain.InvocationRequest{Executable: "python"},
		History: domain.HistoryConfig{MaxEntries: 1},
	})

	assert.True(t, out.Result.Succeeded())
	assert.True(t, logger.Contains("remove invocation log old00001: busy"))
}

func TestRunner_Run_Timeout(t *testing.T) {
	invoker := &testutil.MockInvoker{WaitForCtx: true}
	history := testutil.NewMockHistoryRepository()
	runner, _ := newTestRunner(invoker, history)

	start := time.Now()
	out := runner.Run(context.Background(), Run{
		Command: "review",
		Request: domain.InvocationRequest{Executable: "python"},
		Timeout: 50 * time.Millisecond,
	})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, out.Result.Err, domain.ErrCancelled)
	assert.ErrorIs(t, out.Result.Err, context.DeadlineExceeded)
	assert.Equal(t, domain.StateCancelled, history.Records[out.ID].State)
}

func TestRunner_Run_DiagnosticsForwarded(t *testing.T) {
	invoker := &testutil.MockInvoker{
		Result:      testutil.SuccessResult("ok"),
		Diagnostics: []string{"loading", "scoring"},
	}
	runner, _ := newTestRunner(invoker, nil)

	var lines []string
	runner.Run(context.Background(), Run{
		Request:     domain.InvocationRequest{Executable: "python"},
		Diagnostics: func(line string) { lines = append(lines, line) },
	})

	assert.Equal(t, []string{"loading", "scoring"}, lines)
}

func TestCredentialFromEnv(t *testing.T) {
	getenv := func(name string) string {
		if name == "REVIEW_BRIDGE_API_KEY" {
			return "sk-from-env"
		}
		return ""
	}

	tests := []struct {
		name     string
		explicit string
		envName  string
		want     string
		wantErr  bool
	}{
		{"explicit wins", "sk-flag", "REVIEW_BRIDGE_API_KEY", "sk-flag", false},
		{"from env", "", "REVIEW_BRIDGE_API_KEY", "sk-from-env", false},
		{"unset env", "", "OTHER_KEY", "", false},
		{"no env name", "", "", "", false},
		{"invalid env name", "", "1BAD-NAME", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CredentialFromEnv(tt.explicit, tt.envName, getenv)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidEnvVarName(t *testing.T) {
	assert.True(t, IsValidEnvVarName("OPENAI_API_KEY"))
	assert.True(t, IsValidEnvVarName("_x1"))
	assert.False(t, IsValidEnvVarName("1ABC"))
	assert.False(t, IsValidEnvVarName("A-B"))
	assert.False(t, IsValidEnvVarName(""))
}
