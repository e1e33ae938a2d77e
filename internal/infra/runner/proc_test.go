package runner

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pollUntilDone drives the host loop against a real subprocess.
func pollUntilDone(t *testing.T, r *Runner, deadline time.Duration) {
	t.Helper()
	limit := time.Now().Add(deadline)
	for r.IsRunning() {
		if time.Now().After(limit) {
			t.Fatal("process did not finish in time")
		}
		r.Poll()
		time.Sleep(5 * time.Millisecond)
	}
}

// TestRunner_RealProcess tests the full lifecycle against an actual
// subprocess: both streams captured, real exit code propagated.
func TestRunner_RealProcess(t *testing.T) {
	shPath, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	r := New()
	var errChunks []string
	var completions []int
	var final string

	err = r.Start(shPath+" -c 'echo report line; echo warn 1>&2; exit 3'", StartOptions{
		OnError: func(chunk string) { errChunks = append(errChunks, chunk) },
		OnCompletion: func(exitCode int, output string) {
			completions = append(completions, exitCode)
			final = output
		},
	})
	require.NoError(t, err)

	pollUntilDone(t, r, 5*time.Second)

	require.Equal(t, []int{3}, completions)
	assert.Contains(t, final, "report line")
	assert.Contains(t, final, "warn")
	assert.NotEmpty(t, errChunks)
}

// TestRunner_RealProcessTimeout tests budget expiry against a real
// subprocess: the timeout sentinel is reported, the notice reaches the
// error path, and the process is reaped rather than orphaned.
func TestRunner_RealProcessTimeout(t *testing.T) {
	shPath, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	r := New()
	var proc *osProcess
	baseSpawn := r.spawn
	r.spawn = func(argv []string) (processSource, error) {
		src, err := baseSpawn(argv)
		if err == nil {
			proc = src.(*osProcess)
		}
		return src, err
	}

	var errChunks []string
	var completions []int
	err = r.Start(shPath+" -c 'sleep 30'", StartOptions{
		OnError: func(chunk string) { errChunks = append(errChunks, chunk) },
		OnCompletion: func(exitCode int, output string) {
			completions = append(completions, exitCode)
		},
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	pollUntilDone(t, r, 10*time.Second)

	require.Equal(t, []int{ExitTimeout}, completions)
	require.NotEmpty(t, errChunks)
	assert.Contains(t, errChunks[len(errChunks)-1], "did not finish within")
	require.NotNil(t, proc)
	assert.NotNil(t, proc.cmd.ProcessState, "process reaped")
}

// TestRunner_RealProcessStop tests cancellation of a long-running real
// subprocess.
func TestRunner_RealProcessStop(t *testing.T) {
	shPath, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	r := New()
	var completions []int
	err = r.Start(shPath+" -c 'sleep 30'", StartOptions{
		OnCompletion: func(exitCode int, output string) {
			completions = append(completions, exitCode)
		},
	})
	require.NoError(t, err)
	require.True(t, r.IsRunning())

	require.NoError(t, r.Stop())
	assert.Equal(t, []int{ExitStopped}, completions)
	assert.False(t, r.IsRunning())
}
