package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"golang.org/x/net/html/charset"
)

// ParseError reports malformed XML in a specific source file.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RecordReader streams record subtrees from an XML file. Files ending in .gz
// are decompressed transparently. Each call to Next returns the next complete
// subtree whose tag is one of the configured record tags; the subtree is not
// retained by the reader, so the caller dropping it releases the memory.
type RecordReader struct {
	path    string
	file    *os.File
	gz      *pgzip.Reader
	dec     *xml.Decoder
	records map[string]bool
}

// NewRecordReader opens path and prepares to stream subtrees rooted at any
// of recordTags.
func NewRecordReader(path string, recordTags ...string) (*RecordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &RecordReader{
		path:    path,
		file:    f,
		records: make(map[string]bool, len(recordTags)),
	}
	for _, tag := range recordTags {
		r.records[tag] = true
	}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &ParseError{File: path, Err: err}
		}
		r.gz = gz
		src = gz
	}

	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity
	r.dec = dec
	return r, nil
}

// NewRecordReaderFrom streams subtrees from an already-open reader. Used for
// re-reading interim container files without touching the filesystem twice.
func NewRecordReaderFrom(src io.Reader, name string, recordTags ...string) *RecordReader {
	r := &RecordReader{
		path:    name,
		records: make(map[string]bool, len(recordTags)),
	}
	for _, tag := range recordTags {
		r.records[tag] = true
	}
	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity
	r.dec = dec
	return r
}

// Path returns the file path the reader was opened on.
func (r *RecordReader) Path() string { return r.path }

// Next returns the next record subtree, or io.EOF after the last one.
// Malformed XML is reported as a *ParseError naming the file.
func (r *RecordReader) Next() (*Node, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, &ParseError{File: r.path, Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !r.records[tagName(start.Name)] {
			continue
		}
		node, err := r.buildNode(start)
		if err != nil {
			return nil, &ParseError{File: r.path, Err: err}
		}
		return node, nil
	}
}

// buildNode consumes tokens up to the matching end element, producing an
// element tree with etree-style text/tail placement.
func (r *RecordReader) buildNode(start xml.StartElement) (*Node, error) {
	n := &Node{Tag: tagName(start.Name)}
	if len(start.Attr) > 0 {
		n.Attrs = make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			n.Attrs[a.Name.Local] = a.Value
		}
	}

	var last *Node
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := r.buildNode(t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			last = child
		case xml.CharData:
			if last == nil {
				n.Text += string(t)
			} else {
				last.Tail += string(t)
			}
		case xml.EndElement:
			return n, nil
		}
	}
}

// Close releases the underlying file.
func (r *RecordReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// tagName reconstructs a prefixed tag for namespaced elements so that
// configured tag sets can name them the way the source documents do
// (JATS math markup arrives as mml:math).
func tagName(name xml.Name) string {
	if strings.Contains(name.Space, "MathML") {
		return "mml:" + name.Local
	}
	return name.Local
}
