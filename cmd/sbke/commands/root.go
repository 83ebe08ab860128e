// Package commands defines all Cobra CLI commands for the sbke binary.
package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/sbke-go/internal/audit"
	"github.com/54b3r/sbke-go/internal/config"
	"github.com/54b3r/sbke-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// envFile holds the --env-file flag value.
var envFile string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	var started time.Time

	root := &cobra.Command{
		Use:   "sbke",
		Short: "Space-biology knowledge engine: search and analytics over research papers",
		Long: `sbke indexes space-biology research papers into a vector store and
answers questions about them.

It runs reranked semantic search over paper chunks, computes research trends
and coverage gaps across the corpus, and uses an LLM to write persona-specific
summaries, consensus analyses and gap narratives.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.sbke/config.yaml).
See 'sbke --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			if _, err := config.LoadDotEnv(envFile, log); err != nil {
				return err
			}

			// Env vars always override YAML values.
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), loadedConfigPath)
			started = time.Now()

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			audit.LogCommandEnd(cmd.Context(), logging.New(), cmd.Name(), started, nil)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.sbke/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before the YAML config")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewSearchCmd(),
		NewTrendsCmd(),
		NewGapsCmd(),
		NewPapersCmd(),
		NewVersionCmd(),
	)

	return root
}
