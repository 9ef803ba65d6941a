package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/convert"
	"github.com/bibflow/bibflow/internal/corpus"
	"github.com/bibflow/bibflow/internal/xmltree"
)

var (
	convertInFormat  string
	convertOut       string
	convertOutFormat string
	convertPMIDDir   string
	convertInDir     string
	convertOutDir    string
	convertChunkSize int
)

func init() {
	convertCmd.Flags().StringVar(&convertInFormat, "in-format", "", "Input format (pubmedxml, pmcxml, marcxml, biocxml)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "Output file (single-output mode)")
	convertCmd.Flags().StringVar(&convertOutFormat, "out-format", "", "Output format (biocxml, txt, tsv)")
	convertCmd.Flags().StringVar(&convertPMIDDir, "pmid-dir", "", "Directory of <basename>.pmids allow-lists, one per input")
	convertCmd.Flags().StringVar(&convertInDir, "in-dir", "", "Input directory (chunked mode)")
	convertCmd.Flags().StringVar(&convertOutDir, "out-dir", "", "Output directory (chunked mode)")
	convertCmd.Flags().IntVar(&convertChunkSize, "chunk-size", 0, "Input files per output chunk (chunked mode; default from config)")
	convertCmd.MarkFlagRequired("in-format")
	convertCmd.MarkFlagRequired("out-format")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert [inputfile...]",
	Short: "Convert corpus files to BioC, plain text or TSV",
	Long: `Convert source files to the interchange container or a flattened
rendering. In single-output mode the input files are given as arguments and
merged into --out. In chunked mode --in-dir is scanned recursively, inputs
are grouped into chunks of --chunk-size files, and the assignment is
persisted next to --out-dir so unchanged chunks are not rewritten.

Examples:
  bibflow convert --in-format pubmedxml --out-format biocxml --out out.bioc.xml pubmed24n0001.xml
  bibflow convert --in-format pmcxml --out-format biocxml --in-dir PMCOA --out-dir PMCOA.converted`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertInDir != "" {
		return runConvertChunked()
	}
	if len(args) == 0 {
		exitWithError(ExitError, "no input files given (or use --in-dir)")
	}
	if convertOut == "" {
		exitWithError(ExitError, "--out is required in single-output mode")
	}

	var pmidFiles []string
	if convertPMIDDir != "" {
		for _, input := range args {
			pf := filepath.Join(convertPMIDDir, filepath.Base(input)+".pmids")
			if _, err := os.Stat(pf); err != nil {
				exitWithError(ExitError, "could not find the PMID file: %s", pf)
			}
			pmidFiles = append(pmidFiles, pf)
		}
	}

	convertOne(args, convertOut, pmidFiles)

	if humanOutput {
		outputHuman("Converted %d file(s) to %s\n", len(args), convertOut)
	} else {
		outputJSON(StatusResponse{Status: "ok", Path: convertOut})
	}
	return nil
}

func runConvertChunked() error {
	cfg := loadConfig()
	chunkSize := convertChunkSize
	if chunkSize == 0 {
		chunkSize = cfg.ChunkSize
	}
	if convertOutDir == "" {
		exitWithError(ExitError, "--out-dir is required with --in-dir")
	}

	inputs, err := corpus.FindFiles(convertInDir)
	if err != nil {
		exitWithError(ExitError, "scanning %s: %v", convertInDir, err)
	}
	if err := os.MkdirAll(convertOutDir, 0755); err != nil {
		exitWithError(ExitError, "creating %s: %v", convertOutDir, err)
	}

	pattern := filepath.Base(convertInDir) + ".converted.%08d." + convertOutFormat
	stateFile := convertOutDir + ".json"
	plan, err := corpus.PlanChunks(inputs, stateFile, convertOutDir, pattern, chunkSize)
	if err != nil {
		exitWithError(ExitError, "planning chunks: %v", err)
	}

	converted := 0
	for _, outFile := range plan.OutputFiles() {
		if !plan.Dirty[outFile] {
			continue
		}
		chunk := plan.Chunks[outFile]
		var pmidFiles []string
		if convertPMIDDir != "" {
			for _, input := range chunk {
				pf := filepath.Join(convertPMIDDir, filepath.Base(input)+".pmids")
				if _, err := os.Stat(pf); err != nil {
					exitWithError(ExitError, "could not find the PMID file: %s", pf)
				}
				pmidFiles = append(pmidFiles, pf)
			}
		}
		convertOne(chunk, outFile, pmidFiles)
		converted++
		progressf("%s: %d input file(s)", outFile, len(chunk))
	}

	if humanOutput {
		outputHuman("Rebuilt %d of %d chunk(s) in %s\n", converted, len(plan.Chunks), convertOutDir)
	} else {
		outputJSON(StatusResponse{Status: "ok", Documents: converted, Path: convertOutDir})
	}
	return nil
}

// convertOne runs one conversion, mapping failures to the right exit code.
func convertOne(inputs []string, outPath string, pmidFiles []string) {
	err := convert.Files(inputs, convertInFormat, outPath, convertOutFormat, pmidFiles)
	if err == nil {
		return
	}
	if errors.Is(err, convert.ErrUnknownFormat) {
		exitWithError(ExitConfigError, "%v", err)
	}
	var parseErr *xmltree.ParseError
	if errors.As(err, &parseErr) {
		exitWithError(ExitDataError, "%v", err)
	}
	exitWithError(ExitError, "converting to %s: %v", outPath, err)
}
