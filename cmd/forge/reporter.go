package main

import (
	"github.com/pterm/pterm"

	"agentforge/internal/progress"
)

// consoleReporter renders pipeline progress events with pterm.
type consoleReporter struct{}

func (consoleReporter) Emit(ev progress.Event) {
	switch ev.Level {
	case progress.LevelSuccess:
		pterm.Success.Println(ev.Message)
	case progress.LevelError:
		pterm.Error.Println(ev.Message)
	case progress.LevelWarning:
		pterm.Warning.Println(ev.Message)
	case progress.LevelProgress:
		pterm.Println(pterm.Cyan("> " + ev.Message))
	default:
		pterm.Info.Println(ev.Message)
	}
}
