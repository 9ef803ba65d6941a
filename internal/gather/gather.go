// Package gather resolves, for each document id across many overlapping
// source-file releases, which single file holds its authoritative version,
// and writes one PMID list per source file. Content is never re-hashed:
// resolution works entirely off the per-file hash JSON state.
package gather

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bibflow/bibflow/internal/corpus"
	"github.com/bibflow/bibflow/internal/hashdoc"
)

// time0 is the zero time, used as the seed for mtime comparisons.
var time0 time.Time

// ErrUnknownField reports a requested hash field missing from the loaded
// hash records. This is a configuration error, never silently ignored.
var ErrUnknownField = fmt.Errorf("unknown hash field")

// Options controls a resolver run.
type Options struct {
	// Fields selects which hash fields take part in change detection,
	// in order. Nil compares the full per-document field map.
	Fields []string
	// Exclude removes ids from the written outputs after resolution
	// (e.g. ids already covered by a full-text archive). Exclusion never
	// perturbs the change-detection walk itself.
	Exclude map[int]bool
	// Progress, when non-nil, receives status lines.
	Progress func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Progress != nil {
		o.Progress(format, args...)
	}
}

// Run loads the hash state from hashDir, resolves an owning source file for
// every document id and writes `<basename>.pmids` files into outDir.
// Re-running with unchanged inputs leaves every output byte-for-byte and
// mtime-for-mtime identical.
func Run(hashDir, outDir string, opts Options) error {
	upToDate, err := outputsNewerThanInputs(hashDir, outDir)
	if err != nil {
		return err
	}
	if upToDate {
		opts.logf("outputs in %s are newer than all hash files; nothing to do", outDir)
		return nil
	}

	index, err := hashdoc.LoadDir(hashDir)
	if err != nil {
		return err
	}

	fileToIDs, err := Resolve(index, opts.Fields)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	sources := make([]string, 0, len(index))
	for source := range index {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		ids := fileToIDs[source]
		filtered := ids[:0:0]
		for _, id := range ids {
			if !opts.Exclude[id] {
				filtered = append(filtered, id)
			}
		}
		sort.Ints(filtered)

		outName := filepath.Join(outDir, filepath.Base(source)+".pmids")
		if err := writePMIDFile(outName, filtered); err != nil {
			return err
		}
		opts.logf("%s: %d ids", outName, len(filtered))
	}
	return nil
}

// Resolve maps each source file to the document ids it owns. File names
// encode release order via their embedded numeric suffix; ids appearing in
// a single file are assigned directly, and ids with multiple versions are
// walked from the newest release backwards: contiguous unchanged versions
// collapse to the oldest matching file, while a content change freezes the
// newer file as authoritative.
func Resolve(index hashdoc.Index, fields []string) (map[string][]int, error) {
	if err := validateFields(index, fields); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(index))
	for f := range index {
		files = append(files, f)
	}
	files = corpus.SortReleases(files)

	// occurrences[id] holds the indices of files mentioning id, ascending.
	occurrences := make(map[int][]int)
	for i, f := range files {
		for idText := range index[f] {
			id, err := strconv.Atoi(idText)
			if err != nil {
				return nil, fmt.Errorf("non-integer document id %q in %s", idText, f)
			}
			occurrences[id] = append(occurrences[id], i)
		}
	}

	fileToIDs := make(map[string][]int)
	assign := func(fileIdx, id int) {
		f := files[fileIdx]
		fileToIDs[f] = append(fileToIDs[f], id)
	}

	for id, occ := range occurrences {
		// Fast path: one version means that file owns the id, with no
		// hash comparison at all.
		if len(occ) == 1 {
			assign(occ[0], id)
			continue
		}

		idText := strconv.Itoa(id)
		newest := occ[len(occ)-1]
		rolling, err := compareValue(index, files[newest], idText, fields)
		if err != nil {
			return nil, err
		}
		owner := newest
		for k := len(occ) - 2; k >= 0; k-- {
			older, err := compareValue(index, files[occ[k]], idText, fields)
			if err != nil {
				return nil, err
			}
			if older != rolling {
				// Content changed between these releases; the newer
				// file stays authoritative.
				break
			}
			owner = occ[k]
		}
		assign(owner, id)
	}
	return fileToIDs, nil
}

// validateFields checks every requested field against the field names
// actually stored in the hash records, so a misconfigured field name fails
// even when every id would take the fast path.
func validateFields(index hashdoc.Index, fields []string) error {
	if fields == nil {
		return nil
	}
	known := make(map[string]bool)
	for _, digests := range index {
		for _, fieldMap := range digests {
			for f := range fieldMap {
				known[f] = true
			}
		}
	}
	for _, f := range fields {
		if !known[f] {
			return fmt.Errorf("%w %q in loaded hash records", ErrUnknownField, f)
		}
	}
	return nil
}

// compareValue builds the comparison string for one (file, id) occurrence.
// With a nil field selection the full field map is serialized in sorted
// order; otherwise the named fields are used in the given order, and a
// missing field is fatal.
func compareValue(index hashdoc.Index, file, id string, fields []string) (string, error) {
	digests := index[file][id]
	if fields == nil {
		keys := make([]string, 0, len(digests))
		for k := range digests {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + digests[k]
		}
		return strings.Join(parts, ";"), nil
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		v, ok := digests[f]
		if !ok {
			return "", fmt.Errorf("%w %q for document %s in %s", ErrUnknownField, f, id, file)
		}
		parts[i] = v
	}
	return strings.Join(parts, ";"), nil
}

// writePMIDFile writes newline-delimited ascending integers. If the
// recomputed content matches the existing file, the prior modification time
// is restored so downstream mtime-based staleness checks see a no-op.
func writePMIDFile(path string, pmids []int) error {
	var buf bytes.Buffer
	for _, p := range pmids {
		fmt.Fprintf(&buf, "%d\n", p)
	}

	var priorMod bool
	var priorTime = time0
	var priorSum [sha256.Size]byte
	if info, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		priorMod = true
		priorTime = info.ModTime()
		priorSum = sha256.Sum256(data)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}

	if priorMod && sha256.Sum256(buf.Bytes()) == priorSum {
		if err := os.Chtimes(path, priorTime, priorTime); err != nil {
			return err
		}
	}
	return nil
}

// outputsNewerThanInputs reports whether every existing output is strictly
// newer than every hash file, in which case resolution cannot change
// anything. An empty output directory never short-circuits.
func outputsNewerThanInputs(hashDir, outDir string) (bool, error) {
	outs, err := filepath.Glob(filepath.Join(outDir, "*.pmids"))
	if err != nil || len(outs) == 0 {
		return false, err
	}
	entries, err := os.ReadDir(hashDir)
	if err != nil {
		return false, err
	}
	var ins []os.DirEntry
	for _, in := range entries {
		if in.IsDir() {
			continue
		}
		ins = append(ins, in)
	}
	if len(ins) == 0 {
		return false, nil
	}

	oldestOut := time0
	for i, out := range outs {
		info, err := os.Stat(out)
		if err != nil {
			return false, err
		}
		if i == 0 || info.ModTime().Before(oldestOut) {
			oldestOut = info.ModTime()
		}
	}
	newestIn := time0
	for _, in := range ins {
		info, err := in.Info()
		if err != nil {
			return false, err
		}
		if info.ModTime().After(newestIn) {
			newestIn = info.ModTime()
		}
	}
	return oldestOut.After(newestIn), nil
}
