package main

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibflow/bibflow/internal/gather"
)

var (
	gatherHashDir     string
	gatherOutDir      string
	gatherFields      []string
	gatherExcludeFile string
)

func init() {
	gatherCmd.Flags().StringVar(&gatherHashDir, "hash-dir", "", "Directory of hash JSON files")
	gatherCmd.Flags().StringVar(&gatherOutDir, "out-dir", "", "Directory for PMID list outputs")
	gatherCmd.Flags().StringSliceVar(&gatherFields, "fields", nil, "Hash fields to compare (default: all stored fields)")
	gatherCmd.Flags().StringVar(&gatherExcludeFile, "exclude-file", "", "Newline-delimited ids to drop from the outputs")
	rootCmd.AddCommand(gatherCmd)
}

var gatherCmd = &cobra.Command{
	Use:   "gather",
	Short: "Resolve which source file owns each document id",
	Long: `Resolve, across repeated overlapping releases of a bibliographic
archive, which single source file holds the authoritative version of each
document id, using only the stored content hashes. Writes one
<basename>.pmids file per source file. Re-running with unchanged inputs
leaves every output's content and modification time untouched.

Examples:
  bibflow gather --hash-dir PUBMED.hashes --out-dir PUBMED.pmids
  bibflow gather --hash-dir PUBMED.hashes --out-dir PUBMED.pmids --fields title,abstract`,
	RunE: runGather,
}

func runGather(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	hashDir := gatherHashDir
	if hashDir == "" {
		hashDir = cfg.HashDir
	}
	outDir := gatherOutDir
	if outDir == "" {
		outDir = cfg.PMIDDir
	}
	if hashDir == "" || outDir == "" {
		exitWithError(ExitConfigError, "both --hash-dir and --out-dir are required (or set hash_dir/pmid_dir in config)")
	}

	fields := gatherFields
	if fields == nil {
		fields = cfg.HashFields
	}

	opts := gather.Options{Fields: fields, Progress: progressf}
	if gatherExcludeFile != "" {
		exclude, err := loadExcludeSet(gatherExcludeFile)
		if err != nil {
			exitWithError(ExitError, "reading exclude file: %v", err)
		}
		opts.Exclude = exclude
	}

	if err := gather.Run(hashDir, outDir, opts); err != nil {
		if errors.Is(err, gather.ErrUnknownField) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "gathering pmids: %v", err)
	}

	if humanOutput {
		outputHuman("PMID lists written to %s\n", outDir)
	} else {
		outputJSON(StatusResponse{Status: "ok", Path: outDir})
	}
	return nil
}

func loadExcludeSet(path string) (map[int]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exclude := make(map[int]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			return nil, err
		}
		exclude[id] = true
	}
	return exclude, scanner.Err()
}
