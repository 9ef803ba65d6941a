package main

import (
	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/convert"
)

var tsvOut string

func init() {
	tsvCmd.Flags().StringVar(&tsvOut, "out", "", "Output TSV file (required)")
	tsvCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(tsvCmd)
}

var tsvCmd = &cobra.Command{
	Use:   "tsv <biocfile>",
	Short: "Flatten a BioC file to pmid/year/title/abstract TSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runTSV,
}

func runTSV(cmd *cobra.Command, args []string) error {
	err := convert.Files(args, convert.FormatBioCXML, tsvOut, convert.FormatTSV, nil)
	if err != nil {
		exitWithError(ExitError, "writing %s: %v", tsvOut, err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", tsvOut)
	} else {
		outputJSON(StatusResponse{Status: "ok", Path: tsvOut})
	}
	return nil
}
