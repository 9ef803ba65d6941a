package hashdoc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Index is the full hash state across source files:
// source file path -> document id -> field -> hex digest.
type Index map[string]FileDigests

// WriteFile persists the digests for one source file as indented JSON with
// the source path as the top-level key, matching the on-disk contract
// {sourceFilePath: {documentId: {field: hexDigest}}}.
func WriteFile(outPath, sourcePath string, digests FileDigests) error {
	payload := Index{sourcePath: digests}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(outPath, data, 0644)
}

// LoadDir reads every hash JSON file in a directory into one merged Index.
// Later files overwrite earlier entries for the same source path, matching
// repeated-ingestion semantics.
func LoadDir(dir string) (Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	merged := make(Index)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var idx Index
		if err := json.Unmarshal(data, &idx); err != nil {
			return nil, fmt.Errorf("reading hash file %s: %w", path, err)
		}
		for source, digests := range idx {
			merged[source] = digests
		}
	}
	return merged, nil
}
