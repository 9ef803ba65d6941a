package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/catalog"
)

// DefaultSearchLimit bounds search output when no --limit is given.
const DefaultSearchLimit = 50

var (
	searchCatalogPath string
	searchLimit       int
)

func init() {
	searchCmd.Flags().StringVar(&searchCatalogPath, "catalog", "", "Catalog database path (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Full-text search over cataloged titles and abstracts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cat := mustOpenCatalog(searchCatalogPath)
	defer cat.Close()

	results, err := cat.Search(strings.Join(args, " "), searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if humanOutput {
		if len(results) == 0 {
			outputHuman("No matches\n")
			return nil
		}
		for i, r := range results {
			outputHuman("%d. %s", i+1, r.PMID)
			if r.Year != 0 {
				outputHuman(" (%d)", r.Year)
			}
			outputHuman("\n   %s\n", r.Title)
		}
		return nil
	}
	if results == nil {
		results = []catalog.Result{}
	}
	return outputJSON(results)
}
