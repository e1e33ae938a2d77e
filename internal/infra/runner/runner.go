package runner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/execution"
)

const (
	// readChunkSize is the buffer size for one non-blocking read.
	readChunkSize = 4096

	// maxBytesPerPoll caps how much one Poll call consumes per stream so a
	// chatty process cannot starve the host loop.
	maxBytesPerPoll = 64 * 1024

	// defaultGracePeriod is how long Stop waits between the graceful
	// termination request and the forceful kill.
	defaultGracePeriod = 2 * time.Second

	// reapDeadline bounds the wait for the process to disappear after a
	// forceful kill.
	reapDeadline = 5 * time.Second
)

// Runner executes at most one external process at a time. It is built for a
// single-threaded cooperative model: a host loop calls Poll/IsRunning on a
// fixed cadence and all callbacks fire synchronously during those calls.
type Runner struct {
	handle *ExecutionHandle // nil when idle; at most one live run
	grace  time.Duration
	clock  func() time.Time
	spawn  func(argv []string) (processSource, error)
}

// New creates an idle runner.
func New() *Runner {
	return &Runner{
		grace: defaultGracePeriod,
		clock: time.Now,
		spawn: func(argv []string) (processSource, error) {
			return startProcess(argv)
		},
	}
}

// Start spawns the command with its output streams redirected to
// non-blocking pipes. It fails with an AlreadyRunning record while a run is
// live and with ProcessStartFailed when the spawn itself fails.
func (r *Runner) Start(command string, opts StartOptions) error {
	if r.IsRunning() {
		rec := execution.NewErrorRecord(execution.KindAlreadyRunning,
			"a test is already running; stop it before starting another")
		rec.Command = command
		return rec
	}

	argv, err := SplitCommandLine(command)
	if err != nil {
		rec := execution.NewErrorRecord(execution.KindProcessStartFailed,
			fmt.Sprintf("malformed command line: %v", err))
		rec.Command = command
		return rec
	}

	src, err := r.spawn(argv)
	if err != nil {
		rec := execution.NewErrorRecord(execution.KindProcessStartFailed,
			fmt.Sprintf("could not start %s: %v", argv[0], err))
		rec.Command = command
		rec.Suggestion = "verify the binary path and its execute permission"
		return rec
	}

	r.handle = &ExecutionHandle{
		src:          src,
		command:      command,
		startedAt:    r.clock(),
		timeout:      opts.Timeout,
		onOutput:     opts.OnOutput,
		onError:      opts.OnError,
		onCompletion: opts.OnCompletion,
	}

	slog.Info("Runner: process started", "command", argv[0], "timeout", opts.Timeout)
	return nil
}

// IsRunning reports whether a run is live. It shares timeout detection with
// Poll: a run whose budget has lapsed is transitioned to TimedOut during the
// check itself, so both entry points always agree.
func (r *Runner) IsRunning() bool {
	h := r.handle
	if h == nil {
		return false
	}
	if h.timedOut(r.clock()) {
		r.expireTimeout(h)
		return false
	}
	return !h.completed
}

// Poll services the live run: timeout detection, non-blocking reads of both
// streams, and completion handling. Safe to call when idle.
func (r *Runner) Poll() {
	h := r.handle
	if h == nil || h.completed {
		return
	}

	if h.timedOut(r.clock()) {
		r.expireTimeout(h)
		return
	}

	// Forward whatever bytes are currently available, without blocking.
	h.emitOutput(readAvailable(h.src.ReadStdout))
	h.emitError(readAvailable(h.src.ReadStderr))

	code, exited := h.src.TryWait()
	if !exited {
		return
	}

	// The process is dead: drain the remaining buffered bytes. The pipes
	// reach end-of-stream once empty, so this is bounded.
	r.drain(h)
	r.finish(h, code)
}

// Stop cancels the live run: graceful termination first, forceful kill if
// the process survives the grace period. A Stop on an idle runner is a
// no-op returning success. The run always ends Cancelled with pipes closed
// and the process reaped.
func (r *Runner) Stop() error {
	h := r.handle
	if h == nil || h.completed {
		return nil
	}

	slog.Info("Runner: stopping process", "command", h.Command(), "grace", r.grace)

	if err := h.src.Terminate(); err != nil {
		slog.Warn("Runner: graceful termination request failed", "error", err)
	}

	if _, exited := h.src.WaitExit(r.grace); !exited {
		slog.Warn("Runner: process survived grace period, killing")
		if err := h.src.Kill(); err != nil {
			slog.Error("Runner: kill failed", "error", err)
		}
		h.src.WaitExit(reapDeadline)
	}

	r.drain(h)
	r.finish(h, ExitStopped)
	return nil
}

// expireTimeout handles a lapsed budget: termination signal, a
// ProcessTimeout notice through the error path, and completion with the
// timeout sentinel. Converges on the same cleanup as every other path.
func (r *Runner) expireTimeout(h *ExecutionHandle) {
	slog.Warn("Runner: timeout budget exceeded", "timeout", h.timeout)

	rec := execution.NewErrorRecord(execution.KindProcessTimeout,
		fmt.Sprintf("the test did not finish within its %s budget", h.timeout))
	rec.Suggestion = "increase the timeout or shorten the test duration"
	rec.Command = h.Command()

	if err := h.src.Terminate(); err != nil {
		slog.Warn("Runner: graceful termination request failed", "error", err)
	}
	if _, exited := h.src.WaitExit(r.grace); !exited {
		if err := h.src.Kill(); err != nil {
			slog.Error("Runner: kill failed", "error", err)
		}
		h.src.WaitExit(reapDeadline)
	}

	r.drain(h)
	h.emitError([]byte(rec.Error() + "\n"))
	r.finish(h, ExitTimeout)
}

// drain reads both streams to end-of-stream and forwards the chunks. Called
// only once the process is dead, so the reads cannot hang.
func (r *Runner) drain(h *ExecutionHandle) {
	for {
		chunk := readAvailable(h.src.ReadStdout)
		if len(chunk) == 0 {
			break
		}
		h.emitOutput(chunk)
	}
	for {
		chunk := readAvailable(h.src.ReadStderr)
		if len(chunk) == 0 {
			break
		}
		h.emitError(chunk)
	}
}

// finish is the single cleanup routine every terminal path converges on:
// close pipes, freeze the buffer, clear the handle, and fire the completion
// callback exactly once, after all output callbacks.
func (r *Runner) finish(h *ExecutionHandle, exitCode int) {
	if h.completed {
		return
	}
	h.completed = true

	if err := h.src.Close(); err != nil {
		slog.Warn("Runner: closing pipes failed", "error", err)
	}
	r.handle = nil

	output := h.buf.String()
	slog.Info("Runner: run finished", "exit_code", exitCode, "output_bytes", len(output))

	if h.onCompletion != nil {
		h.onCompletion(exitCode, output)
	}
}

// readAvailable collects currently available bytes from a non-blocking read
// function, stopping at EAGAIN, end-of-stream, or the per-poll byte cap.
func readAvailable(read func([]byte) (int, error)) []byte {
	var collected []byte
	buf := make([]byte, readChunkSize)
	for len(collected) < maxBytesPerPoll {
		n, err := read(buf)
		if n > 0 {
			collected = append(collected, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, io.EOF) {
				break
			}
			slog.Warn("Runner: stream read failed", "error", err)
			break
		}
		if n == 0 {
			break
		}
	}
	return collected
}

// SplitCommandLine splits a command line into argv, honoring single quotes,
// double quotes and backslash escapes. This is the inverse of the quoting
// the command assembler applies.
func SplitCommandLine(cmdLine string) ([]string, error) {
	var parts []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool
	var escapeNext bool
	inToken := false

	for _, r := range cmdLine {
		if escapeNext {
			current.WriteRune(r)
			escapeNext = false
			continue
		}

		switch {
		case r == '\\' && !inSingleQuote:
			escapeNext = true
			inToken = true
		case r == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			inToken = true
		case r == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			inToken = true
		case (r == ' ' || r == '\t') && !inSingleQuote && !inDoubleQuote:
			if inToken {
				parts = append(parts, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if inSingleQuote || inDoubleQuote {
		return nil, fmt.Errorf("unclosed quote")
	}
	if escapeNext {
		return nil, fmt.Errorf("trailing escape character")
	}
	if inToken {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	return parts, nil
}
