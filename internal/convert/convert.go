package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Files converts inputs of one format into a single output file. The
// documents are first serialized to an interim BioC container (applying the
// optional per-input pmid allow-lists), which is then re-read to produce
// the final rendering. pmidFiles must be empty or match inputs one-to-one.
func Files(inputs []string, inFormat, outPath, outFormat string, pmidFiles []string) error {
	if err := checkInputFormat(inFormat); err != nil {
		return err
	}
	if err := checkOutputFormat(outFormat); err != nil {
		return err
	}

	var filters []map[string]bool
	if len(pmidFiles) > 0 {
		if len(pmidFiles) != len(inputs) {
			return fmt.Errorf("got %d pmid filter files for %d inputs", len(pmidFiles), len(inputs))
		}
		filters = make([]map[string]bool, len(pmidFiles))
		for i, pf := range pmidFiles {
			filter, err := LoadPMIDFilter(pf)
			if err != nil {
				return err
			}
			filters[i] = filter
		}
	}

	outFormat = strings.ToLower(outFormat)
	if outFormat == FormatBioCXML {
		return WriteBioCFile(inputs, inFormat, outPath, filters)
	}

	// txt and tsv re-read an interim container written next to the output.
	interim, err := os.CreateTemp(filepath.Dir(outPath), ".bibflow-interim-*.bioc.xml")
	if err != nil {
		return err
	}
	interimPath := interim.Name()
	interim.Close()
	defer os.Remove(interimPath)

	if err := WriteBioCFile(inputs, inFormat, interimPath, filters); err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	switch outFormat {
	case FormatTXT:
		err = renderTXT(interimPath, out)
	case FormatTSV:
		err = renderTSV(interimPath, out)
	}
	if err != nil {
		return err
	}
	return out.Close()
}

func checkInputFormat(format string) error {
	for _, f := range inputFormats {
		if strings.ToLower(format) == f {
			return nil
		}
	}
	return fmt.Errorf("%w %q for input (accepted: %s)",
		ErrUnknownFormat, format, strings.Join(inputFormats, ", "))
}

// LoadPMIDFilter reads a newline-delimited id list into a set keyed by the
// id's decimal form.
func LoadPMIDFilter(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	filter := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			filter[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pmid filter %s: %w", path, err)
	}
	return filter, nil
}
