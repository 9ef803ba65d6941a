// Package main provides the bibflow CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath overrides the default config file location
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibflow",
	Short: "Biomedical literature normalization and update tracking",
	Long: `bibflow converts biomedical literature corpora (PubMed/MEDLINE XML,
PubMed Central full-text XML, MARC catalogue XML) into a common BioC
representation, and tracks which records changed between repeated
snapshots via per-field content hashes, so downstream text-mining tools
only reprocess documents that actually changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/bibflow/config.yml)")
	rootCmd.Version = Version
}

// loadConfig resolves the pipeline configuration, or exits with a config
// error.
func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
