package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"agentforge/internal/deps"
	"agentforge/internal/validate"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Statically check a generated artifact without executing it",
	Long: `Parses the artifact and reports syntax problems plus the third-party
modules it would need at execution time. No process is spawned.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	source := string(data)

	if rec := validate.CheckSyntax(source); rec != nil {
		pterm.Error.Printfln("Syntax error: %s", rec.String())
		return fmt.Errorf("artifact does not parse")
	}
	pterm.Success.Println("Syntax OK")

	modules, err := deps.Resolve(source)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		pterm.Info.Println("No third-party modules required")
		return nil
	}
	pterm.Info.Printfln("Third-party modules required (%d):", len(modules))
	for _, m := range modules {
		pterm.Info.Printfln("  %s", m)
	}
	return nil
}
