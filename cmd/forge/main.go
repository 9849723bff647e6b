// Command forge generates runnable Go agents from natural-language
// descriptions: it plans the request with an LLM, generates each component,
// assembles a single program, and validates/repairs it in a sandbox until
// it runs or the attempt budget is spent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agentforge/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "agentforge - LLM-driven automation agent generator",
	Long: `agentforge turns a plain-text description of an automation into a
runnable Go program.

The pipeline decomposes the request into components, asks an LLM
collaborator to implement each one, merges the results into a single
artifact, and then drives a bounded test-and-repair loop: static syntax
check, sandboxed execution with a hard timeout, structured error
extraction, and LLM-assisted correction. Whatever the outcome, the final
artifact plus its .env and config templates are written to the output
directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Declared secrets (GROQ_API_KEY, ...) may live in a local .env.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "console" {
			zapCfg.Encoding = "console"
		}
		if verbose || cfg.Logging.Level == "debug" {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "forge.yaml", "Path to configuration file")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
