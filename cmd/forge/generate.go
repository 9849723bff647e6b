package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentforge/internal/collaborator"
	"agentforge/internal/configgen"
	"agentforge/internal/deps"
	"agentforge/internal/pipeline"
	"agentforge/internal/repair"
	"agentforge/internal/sandbox"
	"agentforge/internal/store"
)

var agentName string

var generateCmd = &cobra.Command{
	Use:   "generate [description]",
	Short: "Generate a runnable agent from a plain-text description",
	Long: `Runs the full pipeline: plan the description into components, generate
each component with the configured LLM provider, assemble one Go program,
validate and repair it in a sandbox, and write the artifact plus its .env
and config templates to the output directory.

Example:
  forge generate "watch an RSS feed and email me a daily digest" --name digest-bot`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&agentName, "name", "n", "agent", "Name for the generated agent")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")
	ctx := cmd.Context()

	client, err := collaborator.NewClient(ctx, collaborator.ProviderConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.TimeoutDuration(),
	})
	if err != nil {
		return err
	}

	executor := sandbox.NewExecutor(cfg.Generation.ExecTimeoutDuration())
	executor.MaxOutput = cfg.Generation.MaxOutputKB * 1024
	runner := &repair.SandboxRunner{
		Executor:  executor,
		Installer: deps.NewInstaller(cfg.Generation.AutoInstall),
	}

	reporter := consoleReporter{}
	loop := repair.NewLoop(runner, collaborator.NewCorrector(client),
		cfg.Generation.MaxRetries, reporter, logger)

	var runStore pipeline.RunStore
	if st, err := store.Open(cfg.Store.Path); err != nil {
		logger.Warn("run store unavailable, history disabled", zap.Error(err))
	} else {
		defer st.Close()
		runStore = st
	}

	p := pipeline.New(pipeline.Options{
		Planner:       collaborator.NewPlanner(client),
		ToolGenerator: collaborator.NewToolGenerator(client),
		LLMGenerator:  collaborator.NewLLMGenerator(client),
		Repairer:      loop,
		Deriver:       configgen.NewDeriver(cfg.Generation.OutputDir, "", reporter),
		OutputDir:     cfg.Generation.OutputDir,
		Store:         runStore,
		Reporter:      reporter,
		Logger:        logger,
	})

	result, err := p.Run(ctx, request, agentName)
	if err != nil {
		return err
	}

	pterm.Println()
	if result.State == repair.StateValid {
		pterm.Success.Printfln("Agent ready: %s (%d attempt(s))", result.ArtifactPath, result.Attempts)
	} else {
		pterm.Warning.Printfln("Agent saved with unresolved errors: %s", result.ArtifactPath)
		for _, e := range result.Errors {
			pterm.Warning.Printfln("  %s", e)
		}
	}
	if result.Config != nil && result.Config.EnvPath != "" {
		pterm.Info.Printfln("Fill in %s before running the agent", result.Config.EnvPath)
	}
	return nil
}
