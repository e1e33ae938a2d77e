package execution

import "fmt"

// ErrorKind classifies a failed execution into a closed set of semantic
// failure kinds. New kinds are a compile-time-visible change; code that
// handles errors should switch exhaustively over this type.
type ErrorKind string

const (
	// KindNone marks the success sentinel record for exit code 0.
	KindNone ErrorKind = "none"

	KindBinaryNotFound      ErrorKind = "binary_not_found"
	KindBinaryNotExecutable ErrorKind = "binary_not_executable"
	KindProcessStartFailed  ErrorKind = "process_start_failed"
	KindProcessTimeout      ErrorKind = "process_timeout"
	KindProcessCrashed      ErrorKind = "process_crashed"
	KindInvalidArguments    ErrorKind = "invalid_arguments"
	KindInterrupted         ErrorKind = "interrupted"
	KindResourceExhausted   ErrorKind = "resource_exhausted"
	KindPermissionDenied    ErrorKind = "permission_denied"
	KindNetworkError        ErrorKind = "network_error"
	KindDNSError            ErrorKind = "dns_error"
	KindTLSError            ErrorKind = "tls_error"
	KindAlreadyRunning      ErrorKind = "already_running"
	KindInvalidSpec         ErrorKind = "invalid_specification"
	KindSecurityRejected    ErrorKind = "security_rejected"
	KindUnknown             ErrorKind = "unknown"
)

// String implements Stringer interface.
func (k ErrorKind) String() string {
	return string(k)
}

// ErrorRecord is the value object produced once per failed execution. It is
// never mutated after creation and is directly displayable: message plus
// suggestion need no further transformation.
type ErrorRecord struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`

	// Details bag.
	ExitCode int    `json:"exit_code"`
	Excerpt  string `json:"excerpt,omitempty"` // Relevant output excerpt
	Command  string `json:"command,omitempty"` // The command that was run
}

// Error implements the error interface so records can travel through normal
// error returns at the build/start boundary.
func (e *ErrorRecord) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsSuccess reports whether this is the success sentinel and should be
// treated as "no error" by callers.
func (e *ErrorRecord) IsSuccess() bool {
	return e.Kind == KindNone
}

// NewErrorRecord creates a record with a kind and message.
func NewErrorRecord(kind ErrorKind, message string) *ErrorRecord {
	return &ErrorRecord{Kind: kind, Message: message}
}
