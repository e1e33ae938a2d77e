// Package execution provides unit tests for exit classification.
package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify_ExitCodes tests the direct exit code mappings.
func TestClassify_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		wantKind ErrorKind
	}{
		{"zero is success", 0, KindNone},
		{"usage error", 2, KindInvalidArguments},
		{"not executable", 126, KindBinaryNotExecutable},
		{"not found", 127, KindBinaryNotFound},
		{"interrupted", 130, KindInterrupted},
		{"killed", 137, KindResourceExhausted},
		{"segfault", 139, KindProcessCrashed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify(tt.exitCode, "", "oha --no-tui http://example.com")
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantKind, rec.Kind)
			assert.Equal(t, tt.exitCode, rec.ExitCode)
			assert.Equal(t, "oha --no-tui http://example.com", rec.Command)
			assert.NotEmpty(t, rec.Message)
		})
	}
}

// TestClassify_Success tests the success sentinel record.
func TestClassify_Success(t *testing.T) {
	rec := Classify(0, "Requests/sec: 100.0\n", "oha http://example.com")
	require.NotNil(t, rec)
	assert.True(t, rec.IsSuccess())
	assert.Equal(t, KindNone, rec.Kind)
}

// TestClassify_OutputClues tests text-based classification when the exit
// code alone carries no meaning.
func TestClassify_OutputClues(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantKind ErrorKind
	}{
		{
			name:     "dns failure",
			output:   "Error: dns error: failed to lookup address information\n",
			wantKind: KindDNSError,
		},
		{
			name:     "dns no such host",
			output:   "dial tcp: lookup nosuch.invalid: no such host\n",
			wantKind: KindDNSError,
		},
		{
			name:     "tls certificate",
			output:   "error: certificate verify failed: self signed certificate\n",
			wantKind: KindTLSError,
		},
		{
			name:     "tls handshake",
			output:   "TLS handshake eof while reading response\n",
			wantKind: KindTLSError,
		},
		{
			name:     "connection refused",
			output:   "Error: Connection refused (os error 111)\n",
			wantKind: KindNetworkError,
		},
		{
			name:     "network unreachable",
			output:   "connect error: Network is unreachable\n",
			wantKind: KindNetworkError,
		},
		{
			name:     "permission denied",
			output:   "oha: permission denied\n",
			wantKind: KindPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify(1, tt.output, "cmd")
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantKind, rec.Kind)
			assert.NotEmpty(t, rec.Suggestion)
			assert.NotEmpty(t, rec.Excerpt)
			assert.Equal(t, 1, rec.ExitCode)
		})
	}
}

// TestClassify_CluePriority tests that DNS wins over the generic network
// group when both clue sets match.
func TestClassify_CluePriority(t *testing.T) {
	output := "connection refused\ndns error: failed to lookup address\n"
	rec := Classify(1, output, "cmd")
	assert.Equal(t, KindDNSError, rec.Kind)
}

// TestClassify_Unknown tests the fallback when nothing matches.
func TestClassify_Unknown(t *testing.T) {
	rec := Classify(3, "something odd happened\nerror: widget misaligned\n", "cmd")
	require.NotNil(t, rec)
	assert.Equal(t, KindUnknown, rec.Kind)
	assert.Contains(t, rec.Message, "exited with code 3")
	assert.Contains(t, rec.Excerpt, "widget misaligned")
}

// TestClassify_UnknownNoDetail tests the fallback with no error-looking lines.
func TestClassify_UnknownNoDetail(t *testing.T) {
	rec := Classify(7, "all quiet\n", "cmd")
	assert.Equal(t, KindUnknown, rec.Kind)
	assert.Contains(t, rec.Message, "exited with code 7")
	assert.Empty(t, rec.Excerpt)
}

// TestErrorRecord_Error tests the error interface rendering.
func TestErrorRecord_Error(t *testing.T) {
	rec := NewErrorRecord(KindBinaryNotFound, "oha missing")
	assert.Equal(t, "binary_not_found: oha missing", rec.Error())

	rec.Suggestion = "install it"
	assert.Equal(t, "binary_not_found: oha missing (install it)", rec.Error())
}
