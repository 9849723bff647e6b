package collaborator

import (
	"fmt"
	"strings"
)

// excerptLen bounds how much raw model output error messages carry.
const excerptLen = 200

// TransportError wraps a failure to reach or get a usable answer from the
// provider. It is fatal to the whole run: the pipeline never spends repair
// attempts on network weather.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PlanParseError means the planner's response was not the JSON plan we
// asked for. Excerpt carries the head of the offending response for logs.
type PlanParseError struct {
	Excerpt string
	Err     error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("plan response is not a valid component list: %v (response starts: %q)", e.Err, e.Excerpt)
}

func (e *PlanParseError) Unwrap() error { return e.Err }

// ComponentValidationError lists every structural problem with a generator
// response at once, so one round trip to the logs shows the full damage.
type ComponentValidationError struct {
	Component string
	Problems  []string
}

func (e *ComponentValidationError) Error() string {
	return fmt.Sprintf("generated component %q is malformed: %s",
		e.Component, strings.Join(e.Problems, "; "))
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > excerptLen {
		return s[:excerptLen]
	}
	return s
}
