// Package validate holds the static syntax gate and the failure-output
// extractor that together decide whether an assembled agent is usable and,
// when it is not, what the corrector should be told.
package validate

import "fmt"

// Status is the overall verdict of one validation pass.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// ErrorKind categorizes a single validation failure.
type ErrorKind string

const (
	KindSyntax     ErrorKind = "syntax"
	KindRuntime    ErrorKind = "runtime"
	KindTimeout    ErrorKind = "timeout"
	KindDependency ErrorKind = "dependency"
)

// ErrorRecord is one located (or best-effort unlocated) failure. Line is 0
// when no location could be recovered from the output.
type ErrorRecord struct {
	Kind    ErrorKind
	File    string
	Line    int
	Context string // source or function line adjacent to the failure, if any
	Message string
}

// String renders the record the way it is shown to the corrector.
func (r ErrorRecord) String() string {
	switch {
	case r.File != "" && r.Context != "":
		return fmt.Sprintf("[%s] %s:%d (%s): %s", r.Kind, r.File, r.Line, r.Context, r.Message)
	case r.File != "":
		return fmt.Sprintf("[%s] %s:%d: %s", r.Kind, r.File, r.Line, r.Message)
	default:
		return fmt.Sprintf("[%s] %s", r.Kind, r.Message)
	}
}

// Result is the outcome of one TESTING pass over an artifact.
type Result struct {
	Status Status
	Errors []ErrorRecord
}

// OK reports whether the pass found nothing wrong.
func (r *Result) OK() bool { return r.Status == StatusOK }

// Messages flattens the records into corrector-ready strings.
func (r *Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.String())
	}
	return out
}

// Ok returns a passing result.
func Ok() *Result { return &Result{Status: StatusOK} }

// Failed wraps records into a failing result.
func Failed(records ...ErrorRecord) *Result {
	return &Result{Status: StatusError, Errors: records}
}
