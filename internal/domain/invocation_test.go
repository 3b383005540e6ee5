package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationRequest_Argv(t *testing.T) {
	t.Run("entry first then args in order", func(t *testing.T) {
		req := InvocationRequest{
			Executable: "python",
			Entry:      "review.py",
			Args:       []string{"/tmp/report.pdf", "sk-key", "gpt-4o"},
		}
		assert.Equal(t, []string{"review.py", "/tmp/report.pdf", "sk-key", "gpt-4o"}, req.Argv())
	})

	t.Run("empty entry is omitted", func(t *testing.T) {
		req := InvocationRequest{Executable: "echo", Args: []string{"a b", "c"}}
		assert.Equal(t, []string{"a b", "c"}, req.Argv())
	})

	t.Run("no args", func(t *testing.T) {
		req := InvocationRequest{Executable: "true"}
		assert.Empty(t, req.Argv())
	})

	t.Run("does not alias Args", func(t *testing.T) {
		args := make([]string, 1, 4)
		args[0] = "x"
		req := InvocationRequest{Executable: "echo", Args: args}
		argv := req.Argv()
		argv[0] = "changed"
		assert.Equal(t, "x", args[0])
	})
}

func TestInvocationResult(t *testing.T) {
	ok := InvocationResult{Output: `{"ok":true}`, State: StateSucceeded}
	assert.True(t, ok.Succeeded())
	assert.Empty(t, ok.Message())
	assert.Empty(t, ok.Kind())

	failed := InvocationResult{
		Err:      NewInvocationError(KindWorkerFailure, "Worker script failed: bad key", 1, nil),
		State:    StateFailed,
		ExitCode: 1,
	}
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "Worker script failed: bad key", failed.Message())
	assert.Equal(t, KindWorkerFailure, failed.Kind())
}
