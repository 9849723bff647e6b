package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// InstallError reports that required third-party modules could not be made
// available. It is not a code defect: the repair loop surfaces it without
// asking the corrector to rewrite anything.
type InstallError struct {
	Modules []string
	Output  string
	Err     error
}

func (e *InstallError) Error() string {
	msg := fmt.Sprintf("cannot provide modules %s", strings.Join(e.Modules, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InstallError) Unwrap() error { return e.Err }

// Installer fetches third-party modules into a sandbox directory. Install
// is off by default; enabling it is an explicit policy decision because it
// runs the module proxy against LLM-chosen import paths.
type Installer struct {
	GoBin       string
	AutoInstall bool
}

// NewInstaller returns an installer using the `go` binary on PATH.
func NewInstaller(autoInstall bool) *Installer {
	return &Installer{GoBin: "go", AutoInstall: autoInstall}
}

// Ensure makes every module in the list resolvable from dir. With
// AutoInstall disabled and a non-empty list it fails immediately without
// touching the network.
func (in *Installer) Ensure(ctx context.Context, dir string, modules []string) error {
	if len(modules) == 0 {
		return nil
	}
	if !in.AutoInstall {
		return &InstallError{
			Modules: modules,
			Err:     fmt.Errorf("automatic dependency installation is disabled"),
		}
	}

	for _, module := range modules {
		cmd := exec.CommandContext(ctx, in.GoBin, "get", module)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return &InstallError{
				Modules: []string{module},
				Output:  strings.TrimSpace(string(out)),
				Err:     err,
			}
		}
	}
	return nil
}
