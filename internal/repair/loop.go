package repair

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"agentforge/internal/assembly"
	"agentforge/internal/deps"
	"agentforge/internal/progress"
	"agentforge/internal/sandbox"
	"agentforge/internal/validate"
)

// DefaultMaxRetries bounds TESTING passes per session.
const DefaultMaxRetries = 5

// Runner executes an artifact in isolation and reports what happened. The
// production implementation is SandboxRunner; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, source string) (*sandbox.Result, error)
}

// Corrector rewrites failing code. Satisfied by collaborator.Corrector.
type Corrector interface {
	Correct(ctx context.Context, code string, errs []string) (string, error)
}

// Loop is the repair state machine. One Loop can serve many sessions; all
// per-run state lives in the Session it returns.
type Loop struct {
	runner     Runner
	corrector  Corrector
	maxRetries int
	reporter   progress.Reporter
	logger     *zap.Logger
}

// NewLoop builds a repair loop. maxRetries <= 0 selects the default; a nil
// reporter or logger is replaced with a no-op.
func NewLoop(runner Runner, corrector Corrector, maxRetries int, reporter progress.Reporter, logger *zap.Logger) *Loop {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if reporter == nil {
		reporter = progress.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		runner:     runner,
		corrector:  corrector,
		maxRetries: maxRetries,
		reporter:   reporter,
		logger:     logger,
	}
}

// Run validates art and repairs it in place until it passes or the budget
// runs out. art.Source is replaced wholesale by each correction; on return
// it always holds the last attempted code, so the caller has something to
// persist even after exhaustion. A non-nil error means the run itself broke
// (collaborator transport, sandbox host failure) and the session state is
// whatever was reached; validation failures are not errors.
func (l *Loop) Run(ctx context.Context, art *assembly.Artifact) (*Session, error) {
	session := newSession()
	l.logger.Info("repair session started",
		zap.String("session_id", session.ID),
		zap.String("agent", art.AgentName),
		zap.Int("max_retries", l.maxRetries))

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		session.State = StateTesting
		l.emit(progress.LevelProgress, "Testing code (attempt %d/%d)...", attempt, l.maxRetries)

		result, depFailure, err := l.test(ctx, art.Source)
		if err != nil {
			return session, err
		}

		session.Attempts = append(session.Attempts, Attempt{
			Number: attempt,
			Source: art.Source,
			Result: result,
		})

		if result.OK() {
			session.State = StateValid
			l.emit(progress.LevelSuccess, "Code valid, no errors detected")
			l.logger.Info("repair session valid",
				zap.String("session_id", session.ID),
				zap.Int("attempts", attempt))
			return session, nil
		}

		session.State = StateInvalid
		l.emit(progress.LevelError, "%d error(s) detected", len(result.Errors))
		for _, rec := range result.Errors {
			l.emit(progress.LevelWarning, "  %s", truncate(rec.String(), 160))
		}

		if attempt == l.maxRetries {
			break
		}
		if depFailure {
			// Installing dependencies is not correcting code: the
			// TESTING slot is consumed but the corrector is not asked
			// to rewrite anything.
			continue
		}

		session.State = StateCorrecting
		l.emit(progress.LevelProgress, "Correcting code with collaborator...")
		fixed, err := l.corrector.Correct(ctx, art.Source, result.Messages())
		if err != nil {
			return session, fmt.Errorf("corrector failed: %w", err)
		}

		last := &session.Attempts[len(session.Attempts)-1]
		last.CorrectorUsed = true
		if strings.TrimSpace(fixed) == "" {
			// Unusable response: keep the previous artifact, the
			// attempt is spent regardless.
			l.emit(progress.LevelWarning, "Corrector returned no code, keeping previous artifact")
		} else {
			art.Source = fixed
			last.CorrectedSrc = fixed
		}
	}

	session.State = StateTerminated
	l.emit(progress.LevelWarning, "Max attempts reached (%d), keeping last code despite errors", l.maxRetries)
	l.logger.Warn("repair session exhausted",
		zap.String("session_id", session.ID),
		zap.Int("attempts", session.AttemptCount()))
	return session, nil
}

// test runs one TESTING pass: syntax gate, then sandboxed execution.
// depFailure marks results that must not reach the corrector.
func (l *Loop) test(ctx context.Context, source string) (result *validate.Result, depFailure bool, err error) {
	// The static gate is strictly cheaper than spawning a process and
	// always runs first.
	if rec := validate.CheckSyntax(source); rec != nil {
		return validate.Failed(*rec), false, nil
	}

	res, err := l.runner.Run(ctx, source)
	if err != nil {
		var installErr *deps.InstallError
		if errors.As(err, &installErr) {
			return validate.Failed(validate.ErrorRecord{
				Kind:    validate.KindDependency,
				Message: installErr.Error(),
			}), true, nil
		}
		return nil, false, err
	}

	if res.TimedOut {
		return validate.Failed(validate.ErrorRecord{
			Kind:    validate.KindTimeout,
			Message: fmt.Sprintf("execution timed out after %s (the agent may be blocking on input or looping)", res.Duration.Round(time.Millisecond)),
		}), false, nil
	}

	if res.ExitCode == 0 {
		return validate.Ok(), false, nil
	}

	records := validate.ExtractErrors(res.Combined())
	if len(records) == 0 {
		// Nonzero exit with silent output still yields a record, so the
		// corrector is never fed an empty error list.
		records = []validate.ErrorRecord{{
			Kind:    validate.KindRuntime,
			Message: fmt.Sprintf("process exited with code %d and produced no output", res.ExitCode),
		}}
	}
	return validate.Failed(records...), false, nil
}

func (l *Loop) emit(level progress.Level, format string, args ...any) {
	l.reporter.Emit(progress.Event{
		Message: fmt.Sprintf(format, args...),
		Level:   level,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SandboxRunner is the production Runner: it resolves third-party imports,
// lets the installer provide them inside the sandbox dir, then executes.
type SandboxRunner struct {
	Executor  *sandbox.Executor
	Installer *deps.Installer
}

// Run executes source with dependency provisioning wired into the
// executor's prepare hook. Resolve cannot fail here in practice because the
// syntax gate already parsed the source, but a failure is still surfaced.
func (r *SandboxRunner) Run(ctx context.Context, source string) (*sandbox.Result, error) {
	modules, err := deps.Resolve(source)
	if err != nil {
		return nil, err
	}
	var prepare sandbox.PrepareFunc
	if len(modules) > 0 {
		prepare = func(ctx context.Context, dir string) error {
			return r.Installer.Ensure(ctx, dir, modules)
		}
	}
	return r.Executor.Run(ctx, source, prepare)
}
