// Package repair drives the bounded test-correct-retest cycle that turns an
// assembled artifact into a runnable one, or proves it cannot within the
// attempt budget. All state lives in the Session owned by one Loop.Run call;
// nothing is shared across runs.
package repair

import (
	"github.com/google/uuid"

	"agentforge/internal/validate"
)

// State is the loop's position in its lifecycle.
type State string

const (
	StatePending    State = "PENDING"
	StateTesting    State = "TESTING"
	StateValid      State = "VALID"
	StateInvalid    State = "INVALID"
	StateCorrecting State = "CORRECTING"
	// StateTerminated means the budget ran out with errors remaining.
	// The last artifact is still returned; the caller decides its fate.
	StateTerminated State = "TERMINATED_WITH_ERRORS"
)

// Terminal reports whether the state ends a session.
func (s State) Terminal() bool {
	return s == StateValid || s == StateTerminated
}

// Attempt records one TESTING pass: the artifact that was tested, the
// verdict, and the replacement artifact when a correction followed.
type Attempt struct {
	Number        int
	Source        string
	Result        *validate.Result
	CorrectedSrc  string // empty when no correction happened
	CorrectorUsed bool
}

// Session is the full history of one repair run. It is created by Loop.Run
// and discarded (or persisted by the caller) when the run ends.
type Session struct {
	ID       string
	State    State
	Attempts []Attempt
}

func newSession() *Session {
	return &Session{
		ID:    uuid.NewString(),
		State: StatePending,
	}
}

// AttemptCount returns how many TESTING passes ran.
func (s *Session) AttemptCount() int { return len(s.Attempts) }

// CorrectionCount returns how many times the corrector was consulted.
func (s *Session) CorrectionCount() int {
	n := 0
	for _, a := range s.Attempts {
		if a.CorrectorUsed {
			n++
		}
	}
	return n
}

// FinalResult returns the verdict of the last TESTING pass, or nil when no
// pass ran.
func (s *Session) FinalResult() *validate.Result {
	if len(s.Attempts) == 0 {
		return nil
	}
	return s.Attempts[len(s.Attempts)-1].Result
}
