package main

import (
	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved pipeline configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if humanOutput {
		path := configPath
		if path == "" {
			path = config.Path()
		}
		outputHuman("config file: %s\n", path)
		outputHuman("hash_fields: %v\n", cfg.HashFields)
		outputHuman("chunk_size:  %d\n", cfg.ChunkSize)
		outputHuman("hash_dir:    %s\n", cfg.HashDir)
		outputHuman("pmid_dir:    %s\n", cfg.PMIDDir)
		outputHuman("catalog:     %s\n", cfg.CatalogPath)
		return nil
	}
	return outputJSON(cfg)
}
