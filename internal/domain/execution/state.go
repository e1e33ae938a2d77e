// Package execution provides the run state machine, error taxonomy and
// exit classification for driven load test processes.
package execution

// RunState represents the state of a load test run.
type RunState string

const (
	StateIdle      RunState = "idle"      // No run active
	StateStarting  RunState = "starting"  // Process being spawned
	StateRunning   RunState = "running"   // Process alive, output streaming
	StateCompleted RunState = "completed" // Process exited on its own
	StateCancelled RunState = "cancelled" // Stopped by the user
	StateTimedOut  RunState = "timed_out" // Timeout budget exceeded
	StateFailed    RunState = "failed"    // Could not start or exited with a classified error
)

// IsValid checks if the state is a known state.
func (s RunState) IsValid() bool {
	switch s {
	case StateIdle, StateStarting, StateRunning,
		StateCompleted, StateCancelled, StateTimedOut, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the state is a terminal state. Terminal states return
// to Idle once cleanup has run.
func (s RunState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled ||
		s == StateTimedOut || s == StateFailed
}

// CanTransitionTo checks if a transition from the current state to the target
// state is valid.
func (s RunState) CanTransitionTo(target RunState) bool {
	transitions := map[RunState][]RunState{
		StateIdle:     {StateStarting},
		StateStarting: {StateRunning, StateFailed},
		StateRunning:  {StateCompleted, StateCancelled, StateTimedOut, StateFailed},
		// Terminal states clean up back to idle.
		StateCompleted: {StateIdle},
		StateCancelled: {StateIdle},
		StateTimedOut:  {StateIdle},
		StateFailed:    {StateIdle},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == target {
			return true
		}
	}
	return false
}

// String implements Stringer interface.
func (s RunState) String() string {
	return string(s)
}
