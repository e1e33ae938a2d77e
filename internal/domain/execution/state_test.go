// Package execution provides unit tests for the run state machine.
package execution

import (
	"testing"
)

// TestRunState_IsValid tests valid state detection.
func TestRunState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state RunState
		want  bool
	}{
		{"idle is valid", StateIdle, true},
		{"starting is valid", StateStarting, true},
		{"running is valid", StateRunning, true},
		{"completed is valid", StateCompleted, true},
		{"cancelled is valid", StateCancelled, true},
		{"timed_out is valid", StateTimedOut, true},
		{"failed is valid", StateFailed, true},
		{"invalid state", RunState("invalid"), false},
		{"empty state", RunState(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("RunState.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRunState_IsTerminal tests terminal state detection.
func TestRunState_IsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state RunState
		want  bool
	}{
		{"completed is terminal", StateCompleted, true},
		{"cancelled is terminal", StateCancelled, true},
		{"timed_out is terminal", StateTimedOut, true},
		{"failed is terminal", StateFailed, true},
		{"idle is not terminal", StateIdle, false},
		{"starting is not terminal", StateStarting, false},
		{"running is not terminal", StateRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("RunState.IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRunState_CanTransitionTo tests valid state transitions.
func TestRunState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   RunState
		to     RunState
		wantOk bool
	}{
		// Happy path: idle -> starting -> running -> completed
		{"idle -> starting", StateIdle, StateStarting, true},
		{"starting -> running", StateStarting, StateRunning, true},
		{"running -> completed", StateRunning, StateCompleted, true},

		// Start failure
		{"starting -> failed", StateStarting, StateFailed, true},

		// Terminations of a live run
		{"running -> cancelled", StateRunning, StateCancelled, true},
		{"running -> timed_out", StateRunning, StateTimedOut, true},
		{"running -> failed", StateRunning, StateFailed, true},

		// Terminal states clean up back to idle
		{"completed -> idle", StateCompleted, StateIdle, true},
		{"cancelled -> idle", StateCancelled, StateIdle, true},
		{"timed_out -> idle", StateTimedOut, StateIdle, true},
		{"failed -> idle", StateFailed, StateIdle, true},

		// Invalid transitions
		{"idle -> running (skip)", StateIdle, StateRunning, false},
		{"idle -> completed (skip)", StateIdle, StateCompleted, false},
		{"starting -> completed (skip)", StateStarting, StateCompleted, false},
		{"starting -> cancelled", StateStarting, StateCancelled, false},
		{"completed -> running (terminal)", StateCompleted, StateRunning, false},
		{"failed -> running (terminal)", StateFailed, StateRunning, false},
		{"idle -> idle (no change)", StateIdle, StateIdle, false},
		{"running -> running (no change)", StateRunning, StateRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOk := tt.from.CanTransitionTo(tt.to)
			if gotOk != tt.wantOk {
				t.Errorf("RunState.CanTransitionTo() = %v, want %v", gotOk, tt.wantOk)
			}
		})
	}
}

// TestRunState_String tests string representation.
func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{StateIdle, "idle"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateCompleted, "completed"},
		{StateCancelled, "cancelled"},
		{StateTimedOut, "timed_out"},
		{StateFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("RunState.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
