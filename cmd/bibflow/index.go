package main

import (
	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/catalog"
)

var indexCatalogPath string

func init() {
	indexCmd.Flags().StringVar(&indexCatalogPath, "catalog", "", "Catalog database path (default from config)")
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <biocfile>...",
	Short: "Load converted documents into the searchable catalog",
	Long: `Load BioC files into the SQLite document catalog. Files whose
content hash matches the previous indexing are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cat := mustOpenCatalog(indexCatalogPath)
	defer cat.Close()

	total := 0
	for _, path := range args {
		n, err := cat.IndexFile(path)
		if err != nil {
			exitWithError(ExitError, "indexing %s: %v", path, err)
		}
		if n == 0 {
			progressf("%s: unchanged, skipped", path)
		} else {
			progressf("%s: %d documents", path, n)
		}
		total += n
	}

	if humanOutput {
		outputHuman("Indexed %d document(s)\n", total)
	} else {
		outputJSON(StatusResponse{Status: "ok", Documents: total})
	}
	return nil
}

// mustOpenCatalog opens the catalog at the given path, falling back to the
// configured location.
func mustOpenCatalog(path string) *catalog.Catalog {
	if path == "" {
		path = loadConfig().CatalogPath
	}
	if path == "" {
		exitWithError(ExitConfigError, "no catalog path given (use --catalog or set catalog_path in config)")
	}
	cat, err := catalog.Open(path)
	if err != nil {
		exitWithError(ExitError, "opening catalog %s: %v", path, err)
	}
	return cat
}
