package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/convert"
	"github.com/bibflow/bibflow/internal/hashdoc"
	"github.com/bibflow/bibflow/internal/xmltree"
)

var (
	hashFormat string
	hashOut    string
)

func init() {
	hashCmd.Flags().StringVar(&hashFormat, "format", convert.FormatPubMedXML, "Input format (pubmedxml, pmcxml, marcxml, biocxml)")
	hashCmd.Flags().StringVar(&hashOut, "out", "", "Output hash JSON file (required)")
	hashCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(hashCmd)
}

var hashCmd = &cobra.Command{
	Use:   "hash <sourcefile>",
	Short: "Compute per-field content hashes for every document in a file",
	Long: `Compute stable per-field content digests (date, title, subtitle,
abstract, journal, journalISO) for every document in a source file, written as
{sourceFile: {documentId: {field: digest}}} JSON. These hash files are the
durable state the gather command resolves updates from.

Examples:
  bibflow hash --out hashes/pubmed24n0001.xml.json pubmed24n0001.xml.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runHash,
}

func runHash(cmd *cobra.Command, args []string) error {
	source := args[0]

	r, err := convert.OpenReader(source, hashFormat)
	if err != nil {
		if errors.Is(err, convert.ErrUnknownFormat) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "opening %s: %v", source, err)
	}
	defer r.Close()

	digests, err := hashdoc.HashReader(r, nil)
	if err != nil {
		var parseErr *xmltree.ParseError
		if errors.As(err, &parseErr) {
			exitWithError(ExitDataError, "%v", err)
		}
		exitWithError(ExitError, "hashing %s: %v", source, err)
	}

	if err := hashdoc.WriteFile(hashOut, source, digests); err != nil {
		exitWithError(ExitError, "writing %s: %v", hashOut, err)
	}

	if humanOutput {
		outputHuman("Hashes for %d documents written to %s\n", len(digests), hashOut)
	} else {
		outputJSON(StatusResponse{Status: "ok", Documents: len(digests), Path: hashOut})
	}
	return nil
}
