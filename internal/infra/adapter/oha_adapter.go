// Package adapter provides the command assembler for the oha load tool.
package adapter

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/execution"
	"github.com/whhaicheng/HTTP-BenchMind/internal/domain/loadtest"
)

// Command represents an assembled command line, ready for the runner.
type Command struct {
	// Command line (including arguments), externally supplied tokens quoted.
	CmdLine string `json:"cmd_line"`
}

// BinaryLocator supplies the path to the load tool executable.
// Implemented by the tool package; "not found" is a hard failure before any
// process is spawned.
type BinaryLocator interface {
	Locate() (string, error)
}

// OhaAdapter builds oha command lines from validated test specifications.
type OhaAdapter struct {
	locator BinaryLocator
}

// NewOhaAdapter creates an adapter backed by the given locator.
func NewOhaAdapter(locator BinaryLocator) *OhaAdapter {
	return &OhaAdapter{locator: locator}
}

// Shell sequences that could escape single-argument quoting. Scanned over
// the URL and all header names and values; a match rejects the whole
// specification. A bare "&" is allowed since query strings carry it.
var rejectedSequences = []string{
	";", "`", "$(", "${", "|", "<", ">", "&&", "\n", "\r", "\x00",
}

// BuildRunCommand turns a test specification into an escaped command line.
// Fails with an InvalidSpecification record when the spec violates its
// invariants, SecurityRejected when a field carries shell metacharacters,
// and BinaryNotFound when the locator comes up empty.
func (a *OhaAdapter) BuildRunCommand(spec *loadtest.TestSpecification) (*Command, error) {
	if err := spec.Validate(); err != nil {
		rec := execution.NewErrorRecord(execution.KindInvalidSpec, err.Error())
		rec.Suggestion = "review the test parameters"
		return nil, rec
	}

	if err := a.rejectShellMeta(spec); err != nil {
		return nil, err
	}

	binary, err := a.locator.Locate()
	if err != nil {
		rec := execution.NewErrorRecord(execution.KindBinaryNotFound, err.Error())
		rec.Suggestion = "install oha (https://github.com/hatoo/oha) or configure an explicit binary path"
		return nil, rec
	}

	// Fixed argument order: binary, concurrency, duration, timeout, method,
	// TUI off, headers, optional body, target URL last.
	parts := []string{
		quoteArg(binary),
		"-c", fmt.Sprintf("%d", spec.Concurrency),
		"-z", fmt.Sprintf("%ds", spec.Duration),
	}
	if spec.Timeout > 0 {
		parts = append(parts, "-t", fmt.Sprintf("%ds", spec.Timeout))
	}
	parts = append(parts,
		"-m", spec.NormalizedMethod(),
		"--no-tui",
	)

	for _, name := range sortedHeaderNames(spec.Headers) {
		parts = append(parts, "-H", quoteArg(fmt.Sprintf("%s: %s", name, spec.Headers[name])))
	}

	if spec.Body != "" {
		parts = append(parts, "-d", quoteArg(spec.Body))
	}

	parts = append(parts, quoteArg(spec.URL))

	return &Command{CmdLine: strings.Join(parts, " ")}, nil
}

// rejectShellMeta scans the externally supplied fields for sequences from
// the rejected set.
func (a *OhaAdapter) rejectShellMeta(spec *loadtest.TestSpecification) error {
	check := func(field, value string) error {
		for _, seq := range rejectedSequences {
			if strings.Contains(value, seq) {
				rec := execution.NewErrorRecord(execution.KindSecurityRejected,
					fmt.Sprintf("%s contains the shell sequence %q", field, seq))
				rec.Suggestion = "remove shell metacharacters from the value"
				return rec
			}
		}
		return nil
	}

	if err := check("url", spec.URL); err != nil {
		return err
	}
	for name, value := range spec.Headers {
		if err := check(fmt.Sprintf("header %q name", name), name); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("header %q value", name), value); err != nil {
			return err
		}
	}
	return nil
}

// sortedHeaderNames gives headers a stable order; insertion order is
// irrelevant per the specification contract.
func sortedHeaderNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quoteArg quotes one externally supplied token using the host platform's
// shell-quoting convention. Flags and their literal values are never passed
// through here. Only the single-quote form is invertible by the runner's
// SplitCommandLine, whose backslash handling is POSIX; the runner itself is
// POSIX-only, so the double-quote form is display convention on Windows,
// not an execution path.
func quoteArg(s string) string {
	if runtime.GOOS == "windows" {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
