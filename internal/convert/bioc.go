package convert

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bibflow/bibflow/internal/document"
	"github.com/bibflow/bibflow/internal/xmltree"
)

// Section names carried in passage infons.
const (
	SectionTitle    = "title"
	SectionSubtitle = "subtitle"
	SectionAbstract = "abstract"
	SectionArticle  = "article"
	SectionBack     = "back"
	SectionFloating = "floating"
)

// authorDelimiter joins author display names into a single infon value.
const authorDelimiter = "|"

// biocInfon is a key-value metadata entry.
type biocInfon struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// biocPassage is one text block with its section tag and running offset.
type biocPassage struct {
	Infons []biocInfon `xml:"infon"`
	Offset int         `xml:"offset"`
	Text   string      `xml:"text"`
}

// biocDocument is the container form of one canonical Document.
type biocDocument struct {
	XMLName  xml.Name      `xml:"document"`
	ID       string        `xml:"id"`
	Infons   []biocInfon   `xml:"infon"`
	Passages []biocPassage `xml:"passage"`
}

// BioCWriter streams documents into a BioC collection. Documents are
// serialized one at a time so output size never affects memory use.
type BioCWriter struct {
	w      io.Writer
	enc    *xml.Encoder
	closed bool
}

// NewBioCWriter writes the collection header and prepares for documents.
func NewBioCWriter(w io.Writer) (*BioCWriter, error) {
	header := xml.Header +
		"<!DOCTYPE collection SYSTEM \"BioC.dtd\">\n" +
		"<collection><source>bibflow</source><key>bibflow.key</key>\n"
	if _, err := io.WriteString(w, header); err != nil {
		return nil, err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return &BioCWriter{w: w, enc: enc}, nil
}

// WriteDocument appends one document to the collection.
func (bw *BioCWriter) WriteDocument(doc *document.Document) error {
	if err := bw.enc.Encode(toBioC(doc)); err != nil {
		return err
	}
	return bw.enc.Flush()
}

// Close terminates the collection element. The underlying writer is not
// closed.
func (bw *BioCWriter) Close() error {
	if bw.closed {
		return nil
	}
	bw.closed = true
	_, err := io.WriteString(bw.w, "\n</collection>\n")
	return err
}

// toBioC flattens a Document into its container form: a flat infon map,
// plus one passage per (possibly length-limited) text block with a running
// character offset, one separator character between passages.
func toBioC(doc *document.Document) *biocDocument {
	bd := &biocDocument{ID: doc.ID}

	addInfon := func(key, value string) {
		if value != "" {
			bd.Infons = append(bd.Infons, biocInfon{Key: key, Value: value})
		}
	}
	addInfon("pmid", doc.ID)
	addInfon("pmc", doc.SecondaryID(document.IDKindPMC))
	addInfon("doi", doc.SecondaryID(document.IDKindDOI))
	if doc.Date.Year != 0 {
		addInfon("year", strconv.Itoa(doc.Date.Year))
	}
	if doc.Date.Month != 0 {
		addInfon("month", strconv.Itoa(doc.Date.Month))
	}
	if doc.Date.Day != 0 {
		addInfon("day", strconv.Itoa(doc.Date.Day))
	}
	addInfon("title", strings.Join(doc.Title, " "))
	addInfon("subtitle", strings.Join(doc.Subtitle, " "))
	addInfon("journal", doc.Journal)
	addInfon("journalISO", doc.JournalISO)
	addInfon("authors", strings.Join(doc.Authors, authorDelimiter))
	addInfon("chemicals", strings.Join(doc.Chemicals, authorDelimiter))
	addInfon("meshHeadings", strings.Join(doc.MeshHeadings, authorDelimiter))

	offset := 0
	addPassage := func(section, subsection, text string) {
		for _, chunk := range splitSentenceChunks(text, MaxPassageLength) {
			infons := []biocInfon{{Key: "section", Value: section}}
			if subsection != "" {
				infons = append(infons, biocInfon{Key: "subsection", Value: subsection})
			}
			bd.Passages = append(bd.Passages, biocPassage{
				Infons: infons,
				Offset: offset,
				Text:   chunk,
			})
			offset += len(chunk) + 1
		}
	}

	for _, b := range doc.Title {
		addPassage(SectionTitle, "", b)
	}
	for _, b := range doc.Subtitle {
		addPassage(SectionSubtitle, "", b)
	}
	for _, b := range doc.Abstract {
		addPassage(SectionAbstract, "", b)
	}
	for i, b := range doc.Body {
		subsection := ""
		if i < len(doc.Subsections) {
			subsection = doc.Subsections[i]
		}
		addPassage(SectionArticle, subsection, b)
	}
	for _, b := range doc.Back {
		addPassage(SectionBack, "", b)
	}
	for _, b := range doc.Floating {
		addPassage(SectionFloating, "", b)
	}
	return bd
}

// BioCReader streams Documents back out of a BioC collection file.
type BioCReader struct {
	rr *xmltree.RecordReader
}

// NewBioCReader opens a BioC XML file.
func NewBioCReader(path string) (*BioCReader, error) {
	rr, err := xmltree.NewRecordReader(path, "document")
	if err != nil {
		return nil, err
	}
	return &BioCReader{rr: rr}, nil
}

// Next returns the next Document or io.EOF.
func (r *BioCReader) Next() (*document.Document, error) {
	node, err := r.rr.Next()
	if err != nil {
		return nil, err
	}
	return fromBioC(node)
}

// Close releases the underlying file.
func (r *BioCReader) Close() error { return r.rr.Close() }

// fromBioC rebuilds a canonical Document from its container form.
func fromBioC(node *xmltree.Node) (*document.Document, error) {
	doc := &document.Document{}

	infons := make(map[string]string)
	for _, in := range node.ChildrenByTag("infon") {
		infons[in.Attr("key")] = strings.TrimSpace(in.Text)
	}

	doc.ID = infons["pmid"]
	if doc.ID == "" {
		doc.ID = strings.TrimSpace(node.FirstText("id"))
	}
	doc.SetSecondaryID(document.IDKindPMC, infons["pmc"])
	doc.SetSecondaryID(document.IDKindDOI, infons["doi"])
	doc.Date.Year, _ = strconv.Atoi(infons["year"])
	doc.Date.Month, _ = strconv.Atoi(infons["month"])
	doc.Date.Day, _ = strconv.Atoi(infons["day"])
	doc.Journal = infons["journal"]
	doc.JournalISO = infons["journalISO"]
	doc.Authors = splitInfonList(infons["authors"])
	doc.Chemicals = splitInfonList(infons["chemicals"])
	doc.MeshHeadings = splitInfonList(infons["meshHeadings"])

	for _, p := range node.ChildrenByTag("passage") {
		section := ""
		subsection := ""
		for _, in := range p.ChildrenByTag("infon") {
			switch in.Attr("key") {
			case "section":
				section = strings.TrimSpace(in.Text)
			case "subsection":
				subsection = strings.TrimSpace(in.Text)
			}
		}
		text := strings.TrimSpace(p.FirstText("text"))
		if text == "" {
			continue
		}
		switch section {
		case SectionTitle:
			doc.Title = append(doc.Title, text)
		case SectionSubtitle:
			doc.Subtitle = append(doc.Subtitle, text)
		case SectionAbstract:
			doc.Abstract = append(doc.Abstract, text)
		case SectionArticle:
			doc.Body = append(doc.Body, text)
			doc.Subsections = append(doc.Subsections, subsection)
		case SectionBack:
			doc.Back = append(doc.Back, text)
		case SectionFloating:
			doc.Floating = append(doc.Floating, text)
		default:
			return nil, fmt.Errorf("passage with unknown section %q in document %s", section, doc.ID)
		}
	}
	return doc, nil
}

func splitInfonList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, authorDelimiter)
}

// WriteBioCFile streams documents from the given inputs into one BioC file,
// optionally restricted per input by a pmid allow-list.
func WriteBioCFile(inputs []string, inFormat, outPath string, filters []map[string]bool) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	bw, err := NewBioCWriter(out)
	if err != nil {
		return err
	}

	for i, input := range inputs {
		var filter map[string]bool
		if filters != nil {
			filter = filters[i]
		}
		if err := copyDocuments(input, inFormat, bw, filter); err != nil {
			return err
		}
	}
	if err := bw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func copyDocuments(input, inFormat string, bw *BioCWriter, filter map[string]bool) error {
	r, err := OpenReader(input, inFormat)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		doc, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if filter != nil && !filter[doc.ID] {
			continue
		}
		if err := bw.WriteDocument(doc); err != nil {
			return err
		}
	}
}
