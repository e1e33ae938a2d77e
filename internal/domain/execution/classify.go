package execution

import (
	"fmt"
	"strings"
)

// Well-known exit codes of the driven tool and the shells that launch it.
const (
	exitOK             = 0
	exitUsage          = 2   // Argument parsing failure
	exitNotExecutable  = 126 // Found but not executable
	exitNotFound       = 127 // Command not found
	exitInterrupted    = 130 // 128 + SIGINT
	exitKilled         = 137 // 128 + SIGKILL, typically the OOM killer
	exitSegfault       = 139 // 128 + SIGSEGV
)

// Classify maps an exit code and the accumulated output text to an
// ErrorRecord. Exit code 0 yields the success sentinel. Classification is
// best-effort: a specific, actionable kind is preferred over Unknown whenever
// a pattern matches, and unparseable input never causes a failure.
func Classify(exitCode int, output string, command string) *ErrorRecord {
	rec := classifyExitCode(exitCode)
	if rec == nil {
		rec = classifyOutput(exitCode, output)
	}
	rec.ExitCode = exitCode
	rec.Command = command
	return rec
}

// classifyExitCode handles exit codes with a direct, unambiguous meaning.
// Returns nil when the code needs text analysis.
func classifyExitCode(exitCode int) *ErrorRecord {
	switch exitCode {
	case exitOK:
		return &ErrorRecord{
			Kind:    KindNone,
			Message: "test completed successfully",
		}
	case exitUsage:
		return &ErrorRecord{
			Kind:       KindInvalidArguments,
			Message:    "the load tool rejected its command line arguments",
			Suggestion: "check the target URL, method and header values for the run",
		}
	case exitNotExecutable:
		return &ErrorRecord{
			Kind:       KindBinaryNotExecutable,
			Message:    "the load tool binary exists but is not executable",
			Suggestion: "grant execute permission, e.g. chmod +x on the binary",
		}
	case exitNotFound:
		return &ErrorRecord{
			Kind:       KindBinaryNotFound,
			Message:    "the load tool binary was not found",
			Suggestion: "install oha (https://github.com/hatoo/oha) or set an explicit binary path",
		}
	case exitInterrupted:
		return &ErrorRecord{
			Kind:    KindInterrupted,
			Message: "the test was interrupted by the user",
		}
	case exitKilled:
		return &ErrorRecord{
			Kind:       KindResourceExhausted,
			Message:    "the load tool was killed, likely by the system due to resource exhaustion",
			Suggestion: "lower the concurrency level or free up system memory",
		}
	case exitSegfault:
		return &ErrorRecord{
			Kind:       KindProcessCrashed,
			Message:    "the load tool crashed with a segmentation fault",
			Suggestion: "try a newer version of the tool",
		}
	default:
		return nil
	}
}

// Textual clues scanned case-insensitively, in priority order. The first
// matching group wins.
var outputClues = []struct {
	kind       ErrorKind
	suggestion string
	substrings []string
}{
	{
		kind:       KindDNSError,
		suggestion: "verify the hostname in the URL resolves, e.g. with nslookup or dig",
		substrings: []string{
			"dns error",
			"failed to lookup",
			"name or service not known",
			"no such host",
			"temporary failure in name resolution",
		},
	},
	{
		kind:       KindTLSError,
		suggestion: "check the server certificate, or use plain http if TLS is not configured",
		substrings: []string{
			"certificate verify failed",
			"certificate has expired",
			"self signed certificate",
			"self-signed certificate",
			"tls handshake",
			"ssl error",
			"invalid certificate",
		},
	},
	{
		kind:       KindNetworkError,
		suggestion: "verify the target server is reachable and accepting connections",
		substrings: []string{
			"connection refused",
			"connection reset",
			"connection timed out",
			"connect timeout",
			"no route to host",
			"network is unreachable",
			"broken pipe",
		},
	},
	{
		kind:       KindPermissionDenied,
		suggestion: "check filesystem and network permissions for the current user",
		substrings: []string{
			"permission denied",
			"operation not permitted",
			"access is denied",
		},
	},
}

// Generic error markers collected as supporting detail for Unknown.
var errorMarkers = []string{"error", "failed", "exception", "panic"}

// classifyOutput scans the output text for known failure clues.
func classifyOutput(exitCode int, output string) *ErrorRecord {
	lower := strings.ToLower(output)

	for _, clue := range outputClues {
		for _, sub := range clue.substrings {
			if idx := strings.Index(lower, sub); idx >= 0 {
				return &ErrorRecord{
					Kind:       clue.kind,
					Message:    fmt.Sprintf("the load tool reported: %s", excerptAround(output, idx)),
					Suggestion: clue.suggestion,
					Excerpt:    excerptAround(output, idx),
				}
			}
		}
	}

	// No specific clue matched. Collect error-looking lines as detail.
	var detail []string
	for _, line := range strings.Split(output, "\n") {
		lineLower := strings.ToLower(line)
		for _, marker := range errorMarkers {
			if strings.Contains(lineLower, marker) {
				detail = append(detail, strings.TrimSpace(line))
				break
			}
		}
		if len(detail) >= 5 {
			break
		}
	}

	rec := &ErrorRecord{
		Kind:    KindUnknown,
		Message: fmt.Sprintf("the load tool exited with code %d", exitCode),
		Excerpt: strings.Join(detail, "\n"),
	}
	if len(detail) > 0 {
		rec.Message = fmt.Sprintf("the load tool exited with code %d: %s", exitCode, detail[0])
	}
	return rec
}

// excerptAround returns the full line containing the byte offset, trimmed.
func excerptAround(output string, idx int) string {
	start := strings.LastIndexByte(output[:idx], '\n') + 1
	end := strings.IndexByte(output[idx:], '\n')
	if end < 0 {
		end = len(output)
	} else {
		end += idx
	}
	return strings.TrimSpace(output[start:end])
}
