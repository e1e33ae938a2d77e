package execution

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/report"
)

// Run represents a single execution of a load test.
type Run struct {
	// Basic information
	ID      string `json:"id"` // UUID
	Command string `json:"command,omitempty"`

	// State
	State RunState `json:"state"`

	// Timestamps
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    *time.Duration `json:"duration,omitempty"`

	// Outcome: exactly one of Failure or Result is set by the owning use
	// case once the run reaches a terminal state.
	ExitCode int                   `json:"exit_code"`
	Failure  *ErrorRecord          `json:"failure,omitempty"`
	Result   *report.ParsedMetrics `json:"result,omitempty"`
}

// IsCompleted checks if the run is in a terminal state.
func (r *Run) IsCompleted() bool {
	return r.State.IsTerminal()
}

// SetState sets the state with validation.
// Returns an error if the transition is invalid.
func (r *Run) SetState(newState RunState) error {
	if !r.State.CanTransitionTo(newState) {
		return &InvalidStateTransitionError{
			From: r.State,
			To:   newState,
		}
	}
	r.State = newState
	return nil
}

// CalculateDuration calculates and sets the duration based on started_at and completed_at.
func (r *Run) CalculateDuration() {
	if r.StartedAt != nil && r.CompletedAt != nil {
		duration := r.CompletedAt.Sub(*r.StartedAt)
		r.Duration = &duration
	}
}

// ToJSON serializes the run to JSON.
func (r *Run) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// InvalidStateTransitionError represents an invalid state transition.
type InvalidStateTransitionError struct {
	From RunState
	To   RunState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}
