package sandbox

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func requireGo(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}
}

func TestRunSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)
	requireGo(t)

	e := NewExecutor(2 * time.Minute)
	src := `package main

import "fmt"

func main() {
	fmt.Println("hello from the sandbox")
}
`
	res, err := e.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if !strings.Contains(res.Stdout, "hello from the sandbox") {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
}

func TestRunNonzeroExit(t *testing.T) {
	defer goleak.VerifyNone(t)
	requireGo(t)

	e := NewExecutor(2 * time.Minute)
	src := `package main

import "os"

func main() {
	os.Exit(3)
}
`
	res, err := e.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("expected a nonzero exit code")
	}
}

func TestRunPanicProducesStderr(t *testing.T) {
	defer goleak.VerifyNone(t)
	requireGo(t)

	e := NewExecutor(2 * time.Minute)
	src := `package main

func main() {
	panic("deliberate failure")
}
`
	res, err := e.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("expected a nonzero exit code")
	}
	if !strings.Contains(res.Stderr, "deliberate failure") {
		t.Errorf("stderr = %q, want the panic message", res.Stderr)
	}
}

func TestRunTimeoutKillsBusyLoopPromptly(t *testing.T) {
	defer goleak.VerifyNone(t)
	requireGo(t)

	e := NewExecutor(time.Second)
	src := `package main

func main() {
	for {
	}
}
`
	start := time.Now()
	res, err := e.Run(context.Background(), src, nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if res.ExitCode == 0 {
		t.Errorf("exit code = %d, want nonzero on timeout", res.ExitCode)
	}
	// A busy loop never exits on its own: the deadline must kill the whole
	// process group and return control within the deadline plus WaitDelay
	// plus compile time, never blocking on the orphaned agent's pipes.
	if elapsed > 10*time.Second {
		t.Errorf("run took %v after a 1s deadline", elapsed)
	}
}

func TestRunTimeoutRemovesSandboxDir(t *testing.T) {
	defer goleak.VerifyNone(t)
	requireGo(t)

	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	e := NewExecutor(time.Second)
	src := `package main

func main() {
	for {
	}
}
`
	res, err := e.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "forge-run-") {
			t.Errorf("sandbox dir %s survived the timeout path", entry.Name())
		}
	}
}

func TestRunPrepareFailureAbortsWithoutExecuting(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := NewExecutor(time.Minute)
	wantErr := context.Canceled
	res, err := e.Run(context.Background(), "package main\n\nfunc main() {}\n",
		func(ctx context.Context, dir string) error { return wantErr })
	if err != wantErr {
		t.Fatalf("err = %v, want the prepare error unwrapped", err)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil when prepare fails", res)
	}
}

func TestCombinedOrdersStderrFirst(t *testing.T) {
	r := &Result{Stdout: "out", Stderr: "err"}
	if got := r.Combined(); got != "err\nout" {
		t.Errorf("Combined = %q", got)
	}
	r = &Result{Stdout: "only"}
	if got := r.Combined(); got != "only" {
		t.Errorf("Combined = %q", got)
	}
}

func TestLimitedBufferTruncates(t *testing.T) {
	b := newLimitedBuffer(8)
	n, err := b.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("Write = (%d, %v)", n, err)
	}
	if b.String() != "01234567" {
		t.Errorf("buffer = %q", b.String())
	}
	if !b.Truncated() {
		t.Error("expected truncation flag")
	}
}
