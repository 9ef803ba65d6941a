// Package corpus handles input-file discovery and the stable assignment of
// input files to output chunks across runs.
package corpus

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var digitRuns = regexp.MustCompile(`[0-9]+`)

// releaseNumber extracts the last run of digits from a file name. Archive
// file names embed a monotonic release number (pubmed24n1012.xml); files
// without digits sort first.
func releaseNumber(path string) int {
	runs := digitRuns.FindAllString(path, -1)
	if len(runs) == 0 {
		return 0
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		// Digit run too long for an int; release numbers never are.
		return 0
	}
	return n
}

// SortReleases orders paths by embedded release number, then by path. The
// update resolver's correctness depends on this ordering.
func SortReleases(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Slice(sorted, func(i, j int) bool {
		ni, nj := releaseNumber(sorted[i]), releaseNumber(sorted[j])
		if ni != nj {
			return ni < nj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// FindFiles lists all files under dir recursively, in release order.
func FindFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return SortReleases(files), nil
}
