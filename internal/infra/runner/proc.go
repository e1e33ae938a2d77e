package runner

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// processSource abstracts the subprocess behind the handle so Poll can be
// exercised in tests with a scripted source instead of a real process.
type processSource interface {
	// ReadStdout and ReadStderr never block: they return whatever bytes are
	// currently available, io.EOF at end of stream, or an error satisfying
	// errors.Is(err, unix.EAGAIN) when nothing is buffered yet.
	ReadStdout(p []byte) (int, error)
	ReadStderr(p []byte) (int, error)

	// TryWait reports, without blocking, whether the process has exited and
	// with which code.
	TryWait() (exitCode int, exited bool)

	// WaitExit blocks up to d for the process to exit.
	WaitExit(d time.Duration) (exitCode int, exited bool)

	// Terminate requests graceful termination; Kill is unconditional.
	Terminate() error
	Kill() error

	// Close releases the pipes. The process must already be reaped.
	Close() error
}

// osProcess is the production processSource backed by os/exec. The child's
// stdout and stderr are redirected to pipes whose read ends are put into
// non-blocking mode; a single goroutine reaps the process and publishes the
// exit status on waitCh.
//
// Reads go through unix.Read on the raw descriptors rather than os.File.Read:
// the latter parks the goroutine in the runtime poller instead of returning
// EAGAIN, which would block the cooperative host loop.
type osProcess struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File
	outFD  int
	errFD  int

	waitCh   chan int
	exitCode int
	exited   bool
}

// startProcess spawns the command with its output streams piped.
func startProcess(argv []string) (*osProcess, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	closeAll := func() {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, err
	}

	// The parent holds only the read ends; the write ends live in the child.
	outW.Close()
	errW.Close()

	// Fd() detaches the files from the runtime poller; the descriptors are
	// then switched to non-blocking for the raw reads.
	outFD := int(outR.Fd())
	errFD := int(errR.Fd())
	err = unix.SetNonblock(outFD, true)
	if err == nil {
		err = unix.SetNonblock(errFD, true)
	}
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		outR.Close()
		errR.Close()
		return nil, fmt.Errorf("set pipes non-blocking: %w", err)
	}

	p := &osProcess{
		cmd:    cmd,
		stdout: outR,
		stderr: errR,
		outFD:  outFD,
		errFD:  errFD,
		waitCh: make(chan int, 1),
	}

	go func() {
		err := cmd.Wait()
		p.waitCh <- exitCodeFromWait(cmd, err)
	}()

	return p, nil
}

// exitCodeFromWait derives an exit code from a finished command, mapping
// signal deaths to the conventional 128+signal form.
func exitCodeFromWait(cmd *exec.Cmd, waitErr error) int {
	state := cmd.ProcessState
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	code := state.ExitCode()
	if code < 0 && waitErr != nil {
		return -1
	}
	return code
}

// readFD performs one non-blocking read on a raw descriptor.
func readFD(fd int, b []byte) (int, error) {
	n, err := unix.Read(fd, b)
	if n < 0 {
		n = 0
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		// Write end closed and buffer empty: end of stream.
		return 0, io.EOF
	}
	return n, nil
}

func (p *osProcess) ReadStdout(b []byte) (int, error) {
	return readFD(p.outFD, b)
}

func (p *osProcess) ReadStderr(b []byte) (int, error) {
	return readFD(p.errFD, b)
}

func (p *osProcess) TryWait() (int, bool) {
	if p.exited {
		return p.exitCode, true
	}
	select {
	case code := <-p.waitCh:
		p.exited = true
		p.exitCode = code
		return code, true
	default:
		return 0, false
	}
}

func (p *osProcess) WaitExit(d time.Duration) (int, bool) {
	if p.exited {
		return p.exitCode, true
	}
	select {
	case code := <-p.waitCh:
		p.exited = true
		p.exitCode = code
		return code, true
	case <-time.After(d):
		return 0, false
	}
}

func (p *osProcess) Terminate() error {
	if p.exited || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(unix.SIGTERM)
}

func (p *osProcess) Kill() error {
	if p.exited || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(unix.SIGKILL)
}

func (p *osProcess) Close() error {
	err := p.stdout.Close()
	if e := p.stderr.Close(); err == nil {
		err = e
	}
	return err
}
