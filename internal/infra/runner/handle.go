// Package runner owns the external load tool process: it starts it, performs
// non-blocking reads of its standard streams on behalf of a cooperative host
// loop, detects timeouts, and supports graceful cancellation with forceful
// escalation.
package runner

import (
	"bytes"
	"time"
)

// Sentinel exit codes reported through the completion callback when the
// process did not exit on its own.
const (
	// ExitStopped is reported when the run was cancelled via Stop.
	ExitStopped = -1
	// ExitTimeout is reported when the timeout budget was exceeded.
	ExitTimeout = -2
)

// OutputCallback receives raw output chunks. Chunks arrive in production
// order but with arbitrary size and boundary; never assume a chunk ends on a
// line boundary. Callbacks run synchronously inside Poll/Stop and must not
// block.
type OutputCallback func(chunk string)

// CompletionCallback fires exactly once per run with the exit code (real or
// sentinel) and the full frozen output buffer. It is guaranteed to fire after
// all output callbacks for the run.
type CompletionCallback func(exitCode int, output string)

// StartOptions carries the caller-supplied callbacks and the timeout budget
// for one run.
type StartOptions struct {
	// OnOutput receives stdout chunks. Required for streaming; may be nil.
	OnOutput OutputCallback

	// OnError receives stderr chunks and timeout notices. When nil, stderr
	// is folded into OnOutput.
	OnError OutputCallback

	// OnCompletion fires exactly once when the run reaches a terminal state.
	OnCompletion CompletionCallback

	// Timeout is the run budget. Zero means unbounded.
	Timeout time.Duration
}

// ExecutionHandle tracks one live run. It is owned exclusively by the Runner
// for the duration of the run and destroyed when the process exits, is
// stopped, or times out. The output buffer is append-only while the run is
// live and frozen once the run completes.
type ExecutionHandle struct {
	src     processSource
	command string

	buf       bytes.Buffer
	startedAt time.Time
	timeout   time.Duration
	completed bool

	onOutput     OutputCallback
	onError      OutputCallback
	onCompletion CompletionCallback
}

// Command returns the command line this handle is running.
func (h *ExecutionHandle) Command() string {
	return h.command
}

// timedOut reports whether the timeout budget has been exceeded.
func (h *ExecutionHandle) timedOut(now time.Time) bool {
	return h.timeout > 0 && now.Sub(h.startedAt) > h.timeout
}

// emitOutput appends a stdout chunk to the buffer and forwards it.
func (h *ExecutionHandle) emitOutput(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	h.buf.Write(chunk)
	if h.onOutput != nil {
		h.onOutput(string(chunk))
	}
}

// emitError appends a stderr chunk to the buffer and forwards it to the
// error handler, folding into the output handler when none was supplied.
func (h *ExecutionHandle) emitError(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	h.buf.Write(chunk)
	switch {
	case h.onError != nil:
		h.onError(string(chunk))
	case h.onOutput != nil:
		h.onOutput(string(chunk))
	}
}
