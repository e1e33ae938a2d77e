// Package usecase wires the command assembler, process runner, error
// classifier and output parser into one load test execution service.
package usecase

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/loadtest"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/report"
	"github.com/whhaicheng/HTTP-BenchMind/internal/infra/adapter"
	"github.com/whhaicheng/HTTP-BenchMind/internal/infra/runner"
)

// runBudgetSlack is added on top of the requested test duration to form the
// runner's timeout budget, covering tool startup and report rendering time.
const runBudgetSlack = 30 * time.Second

// Callbacks are supplied by the presentation layer. They run synchronously
// inside Poll/StopTest and must not block.
type Callbacks struct {
	// OnOutput receives raw stdout chunks as they arrive.
	OnOutput func(chunk string)

	// OnError receives raw stderr chunks and timeout notices. When nil,
	// stderr is folded into OnOutput.
	OnError func(chunk string)

	// OnResult fires once when a run completes successfully, with the
	// parsed metrics.
	OnResult func(run *execution.Run, metrics *report.ParsedMetrics)

	// OnFailure fires once when a run ends in any other terminal state.
	OnFailure func(run *execution.Run, record *execution.ErrorRecord)
}

// LoadTestUseCase drives one load test at a time: it assembles the command,
// owns the runner, and turns the finished buffer into either a classified
// error or structured metrics.
type LoadTestUseCase struct {
	adapter *adapter.OhaAdapter
	runner  *runner.Runner

	run       *execution.Run // active run, or the last finished one
	callbacks Callbacks
}

// NewLoadTestUseCase creates a new load test use case.
func NewLoadTestUseCase(adapt *adapter.OhaAdapter, run *runner.Runner) *LoadTestUseCase {
	return &LoadTestUseCase{
		adapter: adapt,
		runner:  run,
	}
}

// StartTest validates and assembles the command for the specification, then
// starts the external process. Specification, security and start failures
// surface synchronously as *execution.ErrorRecord errors; everything after
// that arrives through the callbacks.
func (uc *LoadTestUseCase) StartTest(spec *loadtest.TestSpecification, cb Callbacks) (*execution.Run, error) {
	if uc.runner.IsRunning() {
		return nil, execution.NewErrorRecord(execution.KindAlreadyRunning,
			"a test is already running; stop it before starting another")
	}

	cmd, err := uc.adapter.BuildRunCommand(spec)
	if err != nil {
		return nil, err
	}

	run := &execution.Run{
		ID:        uuid.New().String(),
		Command:   cmd.CmdLine,
		State:     execution.StateIdle,
		CreatedAt: time.Now(),
	}
	if err := run.SetState(execution.StateStarting); err != nil {
		return nil, err
	}

	uc.callbacks = cb
	budget := time.Duration(spec.Duration)*time.Second + runBudgetSlack

	startErr := uc.runner.Start(cmd.CmdLine, runner.StartOptions{
		OnOutput:     cb.OnOutput,
		OnError:      cb.OnError,
		OnCompletion: func(exitCode int, output string) { uc.finishRun(exitCode, output) },
		Timeout:      budget,
	})
	if startErr != nil {
		run.SetState(execution.StateFailed)
		if rec, ok := startErr.(*execution.ErrorRecord); ok {
			run.Failure = rec
		}
		uc.run = run
		return nil, startErr
	}

	now := time.Now()
	run.StartedAt = &now
	run.SetState(execution.StateRunning)
	uc.run = run

	slog.Info("LoadTest: run started", "run_id", run.ID, "budget", budget)
	return run, nil
}

// Poll services the live run; safe to call when idle. The host loop calls
// this on a fixed cadence.
func (uc *LoadTestUseCase) Poll() {
	uc.runner.Poll()
}

// IsRunning reports whether a run is live, evaluating the timeout budget as
// part of the check.
func (uc *LoadTestUseCase) IsRunning() bool {
	return uc.runner.IsRunning()
}

// StopTest cancels the live run. A no-op returning success when idle.
func (uc *LoadTestUseCase) StopTest() error {
	return uc.runner.Stop()
}

// ActiveRun returns the active run, or the last finished one.
func (uc *LoadTestUseCase) ActiveRun() *execution.Run {
	return uc.run
}

// finishRun is the single completion path: it closes out the run record and
// routes the frozen buffer to the classifier or the parser.
func (uc *LoadTestUseCase) finishRun(exitCode int, output string) {
	run := uc.run
	if run == nil {
		return
	}

	now := time.Now()
	run.CompletedAt = &now
	run.CalculateDuration()
	run.ExitCode = exitCode

	switch exitCode {
	case runner.ExitTimeout:
		run.SetState(execution.StateTimedOut)
		rec := execution.NewErrorRecord(execution.KindProcessTimeout,
			"the test did not finish within its timeout budget")
		rec.Suggestion = "increase the timeout or shorten the test duration"
		rec.ExitCode = exitCode
		rec.Command = run.Command
		run.Failure = rec
		slog.Warn("LoadTest: run timed out", "run_id", run.ID)
		uc.emitFailure(run, rec)

	case runner.ExitStopped:
		run.SetState(execution.StateCancelled)
		rec := execution.NewErrorRecord(execution.KindInterrupted,
			"the test was cancelled before completion")
		rec.ExitCode = exitCode
		rec.Command = run.Command
		run.Failure = rec
		slog.Info("LoadTest: run cancelled", "run_id", run.ID)
		uc.emitFailure(run, rec)

	case 0:
		run.SetState(execution.StateCompleted)
		if !report.IsValidReport(output) {
			slog.Warn("LoadTest: output does not look like a load tool report", "run_id", run.ID)
		}
		metrics := report.Parse(output)
		metrics.CompletedAt = now
		run.Result = metrics
		slog.Info("LoadTest: run completed",
			"run_id", run.ID,
			"rps", metrics.RequestsPerSecond,
			"total", metrics.TotalRequests,
			"failed", metrics.FailedRequests)
		if uc.callbacks.OnResult != nil {
			uc.callbacks.OnResult(run, metrics)
		}

	default:
		run.SetState(execution.StateFailed)
		rec := execution.Classify(exitCode, output, run.Command)
		run.Failure = rec
		slog.Warn("LoadTest: run failed",
			"run_id", run.ID,
			"exit_code", exitCode,
			"kind", rec.Kind)
		uc.emitFailure(run, rec)
	}
}

func (uc *LoadTestUseCase) emitFailure(run *execution.Run, rec *execution.ErrorRecord) {
	if uc.callbacks.OnFailure != nil {
		uc.callbacks.OnFailure(run, rec)
	}
}
