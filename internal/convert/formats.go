// Package convert dispatches source files through the format parsers and
// serializes canonical Documents into interchange or plain-text output.
package convert

import (
	"fmt"
	"strings"

	"github.com/bibflow/bibflow/internal/document"
	"github.com/bibflow/bibflow/internal/marc"
	"github.com/bibflow/bibflow/internal/medline"
	"github.com/bibflow/bibflow/internal/pmc"
)

// Accepted format names.
const (
	FormatPubMedXML = "pubmedxml"
	FormatPMCXML    = "pmcxml"
	FormatMARCXML   = "marcxml"
	FormatBioCXML   = "biocxml"
	FormatTXT       = "txt"
	FormatTSV       = "tsv"
)

// ErrUnknownFormat reports a format name outside the accepted set.
var ErrUnknownFormat = fmt.Errorf("unknown format")

var inputFormats = []string{FormatPubMedXML, FormatPMCXML, FormatMARCXML, FormatBioCXML}
var outputFormats = []string{FormatBioCXML, FormatTXT, FormatTSV}

// OpenReader opens a streaming Document reader for the given input format.
func OpenReader(path, format string) (document.Reader, error) {
	switch strings.ToLower(format) {
	case FormatPubMedXML:
		return medline.NewReader(path)
	case FormatPMCXML:
		return pmc.NewReader(path)
	case FormatMARCXML:
		return marc.NewReader(path)
	case FormatBioCXML:
		return NewBioCReader(path)
	default:
		return nil, fmt.Errorf("%w %q for input (accepted: %s)",
			ErrUnknownFormat, format, strings.Join(inputFormats, ", "))
	}
}

func checkOutputFormat(format string) error {
	for _, f := range outputFormats {
		if strings.ToLower(format) == f {
			return nil
		}
	}
	return fmt.Errorf("%w %q for output (accepted: %s)",
		ErrUnknownFormat, format, strings.Join(outputFormats, ", "))
}
