package domain

// InvocationState is a step in the lifecycle of one worker invocation.
type InvocationState string

const (
	StateNotStarted InvocationState = "not_started" // Request built, no process yet
	StateSpawned    InvocationState = "spawned"     // Process started
	StateDraining   InvocationState = "draining"    // Output streams being consumed
	StateWaiting    InvocationState = "waiting"     // Worker exited, remaining output being collected
	StateSucceeded  InvocationState = "succeeded"   // Exit 0 and output decoded
	StateFailed     InvocationState = "failed"      // Non-zero exit, wait error or undecodable output
	StateCancelled  InvocationState = "cancelled"   // Context cancelled, process killed
	StateSpawnError InvocationState = "spawn_error" // Process could not be started
)

// transitions defines the allowed state transitions.
// Flow: not_started → spawned → draining → waiting → succeeded|failed
//
//	not_started → spawn_error|cancelled; draining|waiting → cancelled
var transitions = map[InvocationState][]InvocationState{
	StateNotStarted: {StateSpawned, StateSpawnError, StateCancelled},
	StateSpawned:    {StateDraining},
	StateDraining:   {StateWaiting, StateCancelled},
	StateWaiting:    {StateSucceeded, StateFailed, StateCancelled},
	StateSucceeded:  {},
	StateFailed:     {},
	StateCancelled:  {},
	StateSpawnError: {},
}

// AllStates returns all valid states.
func AllStates() []InvocationState {
	return []InvocationState{
		StateNotStarted,
		StateSpawned,
		StateDraining,
		StateWaiting,
		StateSucceeded,
		StateFailed,
		StateCancelled,
		StateSpawnError,
	}
}

// CanTransitionTo returns true if the state can transition to the target state.
func (s InvocationState) CanTransitionTo(target InvocationState) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transition is possible.
func (s InvocationState) IsTerminal() bool {
	allowed, ok := transitions[s]
	return ok && len(allowed) == 0
}

// IsValid returns true if the state is a known value.
func (s InvocationState) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Display returns a human-readable representation of the state.
func (s InvocationState) Display() string {
	switch s {
	case StateNotStarted:
		return "Not started"
	case StateSpawned:
		return "Spawned"
	case StateDraining:
		return "Running"
	case StateWaiting:
		return "Exiting"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	case StateSpawnError:
		return "Spawn error"
	default:
		return string(s)
	}
}
