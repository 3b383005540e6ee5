package executor

import (
	"fmt"

	"github.com/runoshun/review-bridge/internal/domain"
)

// tracker follows one invocation through its states and logs each step.
type tracker struct {
	logger domain.Logger
	id     string
	state  domain.InvocationState
}

func (t *tracker) to(next domain.InvocationState) {
	if !t.state.CanTransitionTo(next) {
		t.logger.Warn(t.id, categoryInvoker, fmt.Sprintf("%v: %s -> %s", domain.ErrInvalidTransition, t.state, next))
	}
	t.logger.Debug(t.id, categoryInvoker, fmt.Sprintf("state: %s -> %s", t.state, next))
	t.state = next
}

func (t *tracker) spawnFailed(err error) domain.InvocationResult {
	t.to(domain.StateSpawnError)
	t.logger.Error(t.id, categoryInvoker, "spawn failed: "+err.Error())
	return domain.InvocationResult{
		Err:      domain.NewInvocationError(domain.KindSpawn, err.Error(), -1, err),
		ExitCode: -1,
	}
}

func (t *tracker) cancel(cause error) domain.InvocationResult {
	t.to(domain.StateCancelled)
	msg := fmt.Sprintf("%v: %v", domain.ErrCancelled, cause)
	t.logger.Warn(t.id, categoryInvoker, msg)
	return domain.InvocationResult{
		Err:      domain.NewInvocationError(domain.KindCancelled, msg, -1, cause),
		ExitCode: -1,
	}
}

func (t *tracker) fail(kind domain.ErrorKind, msg string, exitCode int, cause error) domain.InvocationResult {
	t.to(domain.StateFailed)
	t.logger.Error(t.id, categoryInvoker, fmt.Sprintf("%s (exit %d)", kind, exitCode))
	return domain.InvocationResult{
		Err:      domain.NewInvocationError(kind, msg, exitCode, cause),
		ExitCode: exitCode,
	}
}
