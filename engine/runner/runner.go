//go:build !windows

// Package runner spawns provider subprocesses, streams their output, and
// terminates them safely. Each Run owns exactly one OS process; stdin is
// closed immediately — no interactive input is ever sent.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/dmora/agentexec"
)

// DefaultGracePeriod is the SIGTERM→SIGKILL window used when Options
// leaves GracePeriod zero.
const DefaultGracePeriod = 5 * time.Second

// readChunk is the per-read buffer size for the stdout/stderr pumps.
const readChunk = 32 * 1024

// Options configures one subprocess run.
type Options struct {
	// Dir is the subprocess working directory. Empty inherits ours.
	Dir string

	// Env is the subprocess environment. Nil inherits ours.
	Env []string

	// Timeout bounds the subprocess lifetime. Zero means unbounded.
	Timeout time.Duration

	// GracePeriod is the SIGTERM→SIGKILL window. Zero means
	// DefaultGracePeriod.
	GracePeriod time.Duration

	// OnStdout and OnStderr receive output chunks as they arrive,
	// unbuffered beyond OS pipe buffering. Called from the reader
	// goroutines; chunks already delivered stay valid after a timeout.
	OnStdout func(chunk []byte)
	OnStderr func(chunk []byte)
}

// Result holds the subprocess outcome. Partial output is populated even
// when Run also returns an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Run spawns binary with args and blocks until exit, timeout, or context
// cancellation. A non-zero exit is not an error — it is reported through
// Result.ExitCode. Run returns an error only for spawn failure
// (wrapping the OS error), timeout (wrapping agentexec.ErrTimeout), or
// cancellation (wrapping agentexec.ErrTerminated); in the latter two
// cases Result carries whatever output arrived first and ExitCode -1.
func Run(ctx context.Context, binary string, args []string, opts Options) (Result, error) {
	start := time.Now()

	cmd := exec.Command(binary, args...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	// cmd.Stdin left nil: the child reads from /dev/null.

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("runner: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("runner: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1, Duration: time.Since(start)}, fmt.Errorf("runner: start: %w", err)
	}

	outPump := newPump(stdout, opts.OnStdout)
	errPump := newPump(stderr, opts.OnStderr)

	// cmd.Wait must run after both pipes are drained (it closes them).
	done := make(chan error, 1)
	go func() {
		outPump.wait()
		errPump.wait()
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	select {
	case waitErr := <-done:
		return collect(outPump, errPump, exitCode(waitErr), start), nil

	case <-deadline:
		Terminate(cmd.Process, grace, done)
		res := collect(outPump, errPump, -1, start)
		return res, fmt.Errorf("runner: %w after %s", agentexec.ErrTimeout, opts.Timeout)

	case <-ctx.Done():
		Terminate(cmd.Process, grace, done)
		res := collect(outPump, errPump, -1, start)
		return res, fmt.Errorf("runner: %w: %w", agentexec.ErrTerminated, ctx.Err())
	}
}

// Terminate sends SIGTERM to proc, waits up to grace for exited to
// signal, then sends SIGKILL. Reports false without signaling when the
// process had already exited. Used by both the timeout path and
// explicit cancellation.
func Terminate(proc *os.Process, grace time.Duration, exited <-chan error) bool {
	if !Signal(proc, syscall.SIGTERM) {
		// Already gone; reap the wait result so the goroutine exits.
		<-exited
		return false
	}
	select {
	case <-exited:
	case <-time.After(grace):
		Signal(proc, os.Kill)
		<-exited
	}
	return true
}

// Signal sends sig to proc. Reports false, without delivering anything,
// when the process has already exited (os.ErrProcessDone).
func Signal(proc *os.Process, sig os.Signal) bool {
	err := proc.Signal(sig)
	return !errors.Is(err, os.ErrProcessDone)
}

// collect assembles the final Result from both pumps.
func collect(outPump, errPump *pump, exitCode int, start time.Time) Result {
	return Result{
		Stdout:   outPump.output(),
		Stderr:   errPump.output(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}
}

// exitCode maps cmd.Wait's error to an exit code: 0 on nil, the child's
// status on *exec.ExitError (-1 if signal-killed), -1 otherwise.
func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// pump drains one pipe on its own goroutine, forwarding chunks to an
// optional callback and accumulating the full stream.
type pump struct {
	mu   sync.Mutex
	buf  []byte
	done chan struct{}
}

func newPump(r io.Reader, forward func([]byte)) *pump {
	p := &pump{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		chunk := make([]byte, readChunk)
		for {
			n, err := r.Read(chunk)
			if n > 0 {
				data := chunk[:n]
				p.mu.Lock()
				p.buf = append(p.buf, data...)
				p.mu.Unlock()
				if forward != nil {
					forward(data)
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return p
}

func (p *pump) wait() { <-p.done }

func (p *pump) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.buf)
}
