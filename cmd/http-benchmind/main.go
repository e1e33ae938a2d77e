// Package main is the CLI entry point for HTTP-BenchMind.
// It stands in for the GUI host loop: it drives the load test use case on a
// fixed polling cadence and renders results; all business logic lives in
// internal/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/whhaicheng/HTTP-BenchMind/internal/app/usecase"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/loadtest"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/report"
	"github.com/whhaicheng/HTTP-BenchMind/internal/infra/adapter"
	"github.com/whhaicheng/HTTP-BenchMind/internal/infra/runner"
	"github.com/whhaicheng/HTTP-BenchMind/internal/infra/tool"
)

const Version = "1.0.0"

// pollInterval is the host loop cadence.
const pollInterval = 100 * time.Millisecond

var (
	flagURL         string
	flagMethod      string
	flagConcurrency int
	flagDuration    int
	flagTimeout     int
	flagHeaders     []string
	flagBody        string
	flagBinary      string
	flagJSON        bool
	flagVerbose     bool
)

func main() {
	root := &cobra.Command{
		Use:     "http-benchmind",
		Short:   "Drive an oha load test and report structured metrics",
		Version: Version,
		RunE:    runTest,
	}

	root.Flags().StringVar(&flagURL, "url", "", "target URL (required, explicit scheme)")
	root.Flags().StringVarP(&flagMethod, "method", "m", "GET", "HTTP method")
	root.Flags().IntVarP(&flagConcurrency, "concurrency", "c", 10, "concurrent workers")
	root.Flags().IntVarP(&flagDuration, "duration", "z", 10, "test duration in seconds")
	root.Flags().IntVarP(&flagTimeout, "timeout", "t", 5, "per-request timeout in seconds")
	root.Flags().StringArrayVarP(&flagHeaders, "header", "H", nil, "request header, 'Name: value' (repeatable)")
	root.Flags().StringVarP(&flagBody, "body", "d", "", "request body")
	root.Flags().StringVar(&flagBinary, "binary", "", "explicit path to the oha binary")
	root.Flags().BoolVar(&flagJSON, "json", false, "print the full run record as JSON")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "stream raw tool output")
	root.MarkFlagRequired("url")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	headers, err := parseHeaderFlags(flagHeaders)
	if err != nil {
		return err
	}

	spec := &loadtest.TestSpecification{
		URL:         flagURL,
		Method:      flagMethod,
		Concurrency: flagConcurrency,
		Duration:    flagDuration,
		Timeout:     flagTimeout,
		Headers:     headers,
		Body:        flagBody,
	}

	locator := tool.NewLocator()
	locator.Path = flagBinary
	if flagVerbose {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		if v, verr := locator.Version(ctx); verr == nil {
			slog.Info("Tool: detected oha", "version", v)
		} else {
			slog.Warn("Tool: version probe failed", "error", verr)
		}
		cancel()
	}
	uc := usecase.NewLoadTestUseCase(adapter.NewOhaAdapter(locator), runner.New())

	var failure *execution.ErrorRecord
	var metrics *report.ParsedMetrics

	callbacks := usecase.Callbacks{
		OnResult: func(run *execution.Run, m *report.ParsedMetrics) {
			metrics = m
		},
		OnFailure: func(run *execution.Run, rec *execution.ErrorRecord) {
			failure = rec
		},
	}
	if flagVerbose {
		callbacks.OnOutput = func(chunk string) { fmt.Print(chunk) }
		callbacks.OnError = func(chunk string) { fmt.Fprint(os.Stderr, chunk) }
	}

	run, err := uc.StartTest(spec, callbacks)
	if err != nil {
		printFailure(err)
		return err
	}

	color.New(color.FgCyan).Fprintf(os.Stderr, "Running %s %s for %ds with %d workers (run %s)\n",
		spec.NormalizedMethod(), spec.URL, spec.Duration, spec.Concurrency, run.ID[:8])

	// Cooperative host loop. Ctrl-C requests a graceful stop.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for uc.IsRunning() {
		select {
		case <-ticker.C:
			uc.Poll()
		case <-interrupt:
			fmt.Fprintln(os.Stderr, "\nstopping...")
			uc.StopTest()
		}
	}

	if flagJSON {
		if err := printRunJSON(uc.ActiveRun()); err != nil {
			return err
		}
		if failure != nil {
			return failure
		}
		return nil
	}

	switch {
	case metrics != nil:
		printMetrics(metrics)
		return nil
	case failure != nil:
		printFailure(failure)
		return failure
	default:
		return fmt.Errorf("run %s finished without a result", run.ID)
	}
}

// printRunJSON renders the terminal run record, outcome included, to stdout.
func printRunJSON(run *execution.Run) error {
	data, err := run.ToJSON()
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// parseHeaderFlags parses repeated "Name: value" flags into a header map.
func parseHeaderFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("malformed header %q, want 'Name: value'", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

func printMetrics(m *report.ParsedMetrics) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	bold.Println("Result")
	fmt.Printf("  Requests/sec:  %.2f\n", m.RequestsPerSecond)
	fmt.Printf("  Total:         %d requests\n", m.TotalRequests)
	if m.FailedRequests > 0 {
		red.Printf("  Failed:        %d requests\n", m.FailedRequests)
	} else {
		fmt.Printf("  Failed:        %d requests\n", m.FailedRequests)
	}
	green.Printf("  Success rate:  %.2f%%\n", m.SuccessRate)

	if d := m.Details; d != nil {
		bold.Println("Latency")
		printLatency := func(label string, secs float64) {
			if secs > 0 {
				fmt.Printf("  %-8s %.4f secs\n", label, secs)
			}
		}
		printLatency("avg:", d.LatencyAvg)
		printLatency("min:", d.LatencyMin)
		printLatency("max:", d.LatencyMax)
		printLatency("p50:", d.LatencyP50)
		printLatency("p90:", d.LatencyP90)
		printLatency("p95:", d.LatencyP95)
		printLatency("p99:", d.LatencyP99)
		if d.TransferRate > 0 {
			fmt.Printf("  %-8s %.1f KiB/s\n", "data:", d.TransferRate/1024)
		}
	}
}

func printFailure(err error) {
	red := color.New(color.FgRed, color.Bold)
	if rec, ok := err.(*execution.ErrorRecord); ok {
		red.Fprintf(os.Stderr, "test failed (%s)\n", rec.Kind)
		fmt.Fprintf(os.Stderr, "  %s\n", rec.Message)
		if rec.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", rec.Suggestion)
		}
		if rec.ExitCode != 0 {
			fmt.Fprintf(os.Stderr, "  exit code: %d\n", rec.ExitCode)
		}
		return
	}
	red.Fprintf(os.Stderr, "test failed: %v\n", err)
}
