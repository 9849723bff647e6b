// Package sandbox runs assembled agents as short-lived child processes in
// throwaway module directories. Isolation is at the OS process level: a
// hard deadline, bounded output capture, and a temp dir that is always
// removed, no matter how the run ends.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

const (
	// ArtifactFilename keeps locations in compiler and runtime errors
	// aligned with what the static checker reports.
	ArtifactFilename = "agent.go"

	defaultTimeout   = 30 * time.Second
	defaultMaxOutput = 64 * 1024

	sandboxGoMod = "module agent\n\ngo 1.24\n"
)

// PrepareFunc runs inside the materialized sandbox directory before the
// agent starts, typically to install third-party modules. An error aborts
// the run and is returned to the caller unwrapped.
type PrepareFunc func(ctx context.Context, dir string) error

// Result captures one sandboxed execution.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

// Combined returns stderr followed by stdout, which is the order failure
// extraction wants: diagnostics and panics land on stderr.
func (r *Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stderr + "\n" + r.Stdout
}

// Executor materializes and runs agent sources. The zero value is not
// usable; construct with NewExecutor.
type Executor struct {
	GoBin     string
	Timeout   time.Duration
	MaxOutput int
	Env       []string // nil means a copy of the host environment
}

// NewExecutor returns an executor with the given hard deadline (zero means
// the 30s default).
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{
		GoBin:     "go",
		Timeout:   timeout,
		MaxOutput: defaultMaxOutput,
	}
}

// Run writes source into a fresh temp module, runs prepare (if any), then
// executes the agent under the deadline. The temp directory is removed on
// every path. A non-nil Result is returned whenever the process actually
// ran, including timeouts and nonzero exits.
func (e *Executor) Run(ctx context.Context, source string, prepare PrepareFunc) (*Result, error) {
	dir, err := os.MkdirTemp("", "forge-run-*")
	if err != nil {
		return nil, fmt.Errorf("creating sandbox dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, ArtifactFilename), []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("writing artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(sandboxGoMod), 0o644); err != nil {
		return nil, fmt.Errorf("writing sandbox go.mod: %w", err)
	}

	if prepare != nil {
		if err := prepare(ctx, dir); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.GoBin, "run", ".")
	cmd.Dir = dir
	cmd.Env = e.environ()

	// go run execs the built agent as a grandchild that inherits the output
	// pipes. Killing only the go run parent would leave the agent alive and
	// cmd.Run blocked copying its output, so the deadline must take down the
	// whole process group, and Wait must stop draining pipes shortly after.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	stdout := newLimitedBuffer(e.MaxOutput)
	stderr := newLimitedBuffer(e.MaxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Duration:  time.Since(start),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("starting agent process: %w", runErr)
	}
	return res, nil
}

// environ returns the child environment: the configured one, or a copy of
// the host's so declared secrets in .env files flow through.
func (e *Executor) environ() []string {
	if e.Env != nil {
		return append([]string(nil), e.Env...)
	}
	return os.Environ()
}
