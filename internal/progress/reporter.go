// Package progress defines the event stream the pipeline emits while it
// works. The pipeline knows nothing about terminals or log files; callers
// plug in whatever Reporter suits them.
package progress

// Level classifies a progress event for rendering purposes.
type Level string

const (
	LevelInfo     Level = "info"
	LevelSuccess  Level = "success"
	LevelError    Level = "error"
	LevelWarning  Level = "warning"
	LevelProgress Level = "progress"
)

// Event is a single human-readable status update.
type Event struct {
	Message string
	Level   Level
}

// Reporter receives pipeline events. Implementations must be safe to call
// from the single pipeline goroutine; they are never called concurrently.
type Reporter interface {
	Emit(ev Event)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(ev Event)

func (f ReporterFunc) Emit(ev Event) { f(ev) }

// Nop discards all events. Used as the default when no reporter is wired.
func Nop() Reporter { return ReporterFunc(func(Event) {}) }
