// Package marc streams canonical Documents from MARC XML catalogue
// records. Only English-language records are yielded; others are skipped
// silently.
package marc

import (
	"strings"

	"github.com/bibflow/bibflow/internal/dates"
	"github.com/bibflow/bibflow/internal/document"
	"github.com/bibflow/bibflow/internal/textextract"
	"github.com/bibflow/bibflow/internal/xmltree"
)

// MARC field and subfield assignments for catalogue records.
const (
	controlID       = "001"
	controlMetadata = "008"
	fieldTitle      = "245"
	fieldNote       = "520"
	fieldHost       = "773"

	// Language code position within the 008 fixed-length data field.
	langOffset = 35
	langLen    = 3
)

// Reader yields one Document per English-language MARC record.
type Reader struct {
	rr *xmltree.RecordReader
}

// NewReader opens a MARC XML file.
func NewReader(path string) (*Reader, error) {
	rr, err := xmltree.NewRecordReader(path, "record")
	if err != nil {
		return nil, err
	}
	return &Reader{rr: rr}, nil
}

// Next returns the next English-language Document or io.EOF.
func (r *Reader) Next() (*document.Document, error) {
	for {
		node, err := r.rr.Next()
		if err != nil {
			return nil, err
		}
		doc := parseRecord(node)
		if doc != nil {
			return doc, nil
		}
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.rr.Close() }

// parseRecord returns nil for records that should be skipped.
func parseRecord(rec *xmltree.Node) *document.Document {
	metadata := controlField(rec, controlMetadata)
	if len(metadata) < langOffset+langLen ||
		metadata[langOffset:langOffset+langLen] != "eng" {
		return nil
	}

	doc := &document.Document{}
	doc.ID = strings.TrimSpace(controlField(rec, controlID))

	// Title is 245 $a plus the $b remainder, per catalogue convention.
	titleParts := []string{
		subfield(rec, fieldTitle, "a"),
		subfield(rec, fieldTitle, "b"),
	}
	title := strings.TrimSpace(strings.Join(titleParts, " "))
	doc.Title = textextract.CleanBlocks([]string{title})

	// An abstract exists only when both the note field and its $a
	// subfield are present.
	if abstract := subfield(rec, fieldNote, "a"); abstract != "" {
		doc.Abstract = textextract.CleanBlocks([]string{abstract})
	}

	doc.Journal = textextract.CleanBlock(subfield(rec, fieldHost, "t"))
	doc.JournalISO = textextract.CleanBlock(subfield(rec, fieldHost, "p"))
	if pubdate := subfield(rec, fieldHost, "g"); pubdate != "" {
		doc.Date = document.Date{Year: dates.SingleYearFromText(pubdate)}
	}

	return doc
}

// controlField returns the value of a controlfield by tag, or "".
func controlField(rec *xmltree.Node, tag string) string {
	for _, cf := range rec.ChildrenByTag("controlfield") {
		if cf.Attr("tag") == tag {
			return cf.Text
		}
	}
	return ""
}

// subfield returns the first matching datafield subfield value, or "".
func subfield(rec *xmltree.Node, tag, code string) string {
	for _, df := range rec.ChildrenByTag("datafield") {
		if df.Attr("tag") != tag {
			continue
		}
		for _, sf := range df.ChildrenByTag("subfield") {
			if sf.Attr("code") == code {
				return strings.TrimSpace(sf.Text)
			}
		}
	}
	return ""
}
