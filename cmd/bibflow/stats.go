package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/convert"
	"github.com/bibflow/bibflow/internal/stats"
)

var (
	statsFormat string
	statsOut    string
)

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", convert.FormatPubMedXML, "Input format (pubmedxml, pmcxml, marcxml, biocxml)")
	statsCmd.Flags().StringVar(&statsOut, "out", "", "Write TSV summary to file (default: JSON to stdout)")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <sourcefile>...",
	Short: "Summarize titles, abstracts, years and journals in a corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	summary := stats.NewSummary()
	for _, source := range args {
		r, err := convert.OpenReader(source, statsFormat)
		if err != nil {
			if errors.Is(err, convert.ErrUnknownFormat) {
				exitWithError(ExitConfigError, "%v", err)
			}
			exitWithError(ExitError, "opening %s: %v", source, err)
		}
		if err := summary.Collect(r); err != nil {
			r.Close()
			exitWithError(ExitDataError, "summarizing %s: %v", source, err)
		}
		r.Close()
	}

	if statsOut != "" {
		f, err := os.Create(statsOut)
		if err != nil {
			exitWithError(ExitError, "creating %s: %v", statsOut, err)
		}
		defer f.Close()
		if err := summary.WriteTSV(f); err != nil {
			exitWithError(ExitError, "writing %s: %v", statsOut, err)
		}
		if humanOutput {
			outputHuman("Summary for %d documents written to %s\n", summary.Documents, statsOut)
		}
		return nil
	}

	if humanOutput {
		return summary.WriteTSV(os.Stdout)
	}
	return outputJSON(summary)
}
