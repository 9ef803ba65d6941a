// Package pmc streams canonical Documents from PubMed Central full-text
// XML. Each nested sub-article is emitted as its own Document.
package pmc

import (
	"strconv"
	"strings"

	"github.com/bibflow/bibflow/internal/dates"
	"github.com/bibflow/bibflow/internal/document"
	"github.com/bibflow/bibflow/internal/textextract"
	"github.com/bibflow/bibflow/internal/xmltree"
)

// Reader yields the main article followed by its sub-articles, then moves
// to the next article element in the file.
type Reader struct {
	rr      *xmltree.RecordReader
	opt     textextract.Options
	pending []*document.Document
}

// NewReader opens a PMC XML file (.xml, .nxml or gzipped).
func NewReader(path string) (*Reader, error) {
	rr, err := xmltree.NewRecordReader(path, "article")
	if err != nil {
		return nil, err
	}
	return &Reader{rr: rr, opt: textextract.DefaultOptions()}, nil
}

// Next returns the next Document or io.EOF.
func (r *Reader) Next() (*document.Document, error) {
	if len(r.pending) > 0 {
		doc := r.pending[0]
		r.pending = r.pending[1:]
		return doc, nil
	}

	node, err := r.rr.Next()
	if err != nil {
		return nil, err
	}

	main := r.parseArticle(node)
	for _, sub := range node.ChildrenByTag("sub-article") {
		subDoc := r.parseArticle(sub)
		inheritHeader(subDoc, main)
		r.pending = append(r.pending, subDoc)
	}
	return main, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.rr.Close() }

// inheritHeader fills a sub-article's header from its parent. Sub-articles
// (letters, corrections) typically omit redundant front matter; one that
// carries its own id is a standalone record and inherits nothing.
func inheritHeader(sub, parent *document.Document) {
	if sub.ID != "" {
		return
	}
	sub.ID = parent.ID
	for kind, val := range parent.SecondaryIDs {
		if sub.SecondaryID(kind) == "" {
			sub.SetSecondaryID(kind, val)
		}
	}
	if sub.Date.IsZero() {
		sub.Date = parent.Date
	}
	if sub.Journal == "" {
		sub.Journal = parent.Journal
	}
	if sub.JournalISO == "" {
		sub.JournalISO = parent.JournalISO
	}
}

// parseArticle handles both article and sub-article elements; sub-articles
// keep their header in front-stub rather than front.
func (r *Reader) parseArticle(art *xmltree.Node) *document.Document {
	doc := &document.Document{}

	front := art.First("front")
	if front == nil {
		front = art.First("front-stub")
	}
	var meta *xmltree.Node
	if front != nil {
		meta = front.First("article-meta")
		if meta == nil {
			// front-stub carries article-meta children directly
			meta = front
		}
	}

	if meta != nil {
		for _, aid := range meta.ChildrenByTag("article-id") {
			val := strings.TrimSpace(aid.Text)
			switch aid.Attr("pub-id-type") {
			case "pmid":
				doc.ID = val
			case "pmc":
				doc.SetSecondaryID(document.IDKindPMC, val)
			case "doi":
				doc.SetSecondaryID(document.IDKindDOI, val)
			}
		}
		doc.Date = mostCompleteDate(meta.ChildrenByTag("pub-date"))

		titleBlocks := textextract.FromNodes(meta.FindAll("title-group/article-title"), r.opt)
		for i, b := range titleBlocks {
			titleBlocks[i] = textextract.RepairBracketedTitle(b)
		}
		doc.Title = textextract.CleanBlocks(titleBlocks)
		doc.Subtitle = textextract.CleanBlocks(
			textextract.FromNodes(meta.FindAll("title-group/subtitle"), r.opt))

		doc.Abstract = textextract.CleanBlocks(
			textextract.FromNodes(meta.ChildrenByTag("abstract"), r.opt))

		doc.Authors = parseContribs(meta)
	}

	if front != nil {
		if jm := front.First("journal-meta"); jm != nil {
			doc.Journal = strings.Join(textextract.CleanBlocks(textextract.FromNodes(
				jm.Descendants("journal-title"), r.opt)), " ")
			doc.JournalISO = strings.Join(textextract.CleanBlocks(textextract.FromNodes(
				jm.Descendants("abbrev-journal-title"), r.opt)), " ")
		}
	}

	doc.Body = textextract.CleanBlocks(
		textextract.FromNodes(art.ChildrenByTag("body"), r.opt))
	doc.Subsections = tagSubsections(doc.Body)
	doc.Back = textextract.CleanBlocks(
		textextract.FromNodes(art.ChildrenByTag("back"), r.opt))
	doc.Floating = textextract.CleanBlocks(
		textextract.FromNodes(art.ChildrenByTag("floats-group"), r.opt))

	return doc
}

// mostCompleteDate scans all pub-date blocks (front matter may list print
// and electronic dates) and keeps the one with the most known components.
// Ties keep the first seen. Month may be inferred from a season field.
func mostCompleteDate(pubDates []*xmltree.Node) document.Date {
	var best document.Date
	for _, pd := range pubDates {
		var d document.Date
		d.Year, _ = strconv.Atoi(pd.FirstText("year"))
		d.Month = dates.MonthNumber(pd.FirstText("month"))
		d.Day, _ = strconv.Atoi(pd.FirstText("day"))
		if d.Month == 0 {
			d.Month = dates.MonthFromSeason(pd.FirstText("season"))
		}
		if d.Completeness() > best.Completeness() {
			best = d
		}
	}
	return best
}

// parseContribs builds author display names from contrib-group entries,
// falling back to the collaboration name.
func parseContribs(meta *xmltree.Node) []string {
	var authors []string
	for _, contrib := range meta.FindAll("contrib-group/contrib") {
		if ct := contrib.Attr("contrib-type"); ct != "" && ct != "author" {
			continue
		}
		given := ""
		surname := ""
		if name := contrib.First("name"); name != nil {
			given = name.FirstText("given-names")
			surname = name.FirstText("surname")
		}
		var display string
		switch {
		case given != "" && surname != "":
			display = given + " " + surname
		case surname != "":
			display = surname
		case given != "":
			display = given
		default:
			display = contrib.FirstText("collab")
		}
		if display = textextract.CleanBlock(display); display != "" {
			authors = append(authors, display)
		}
	}
	return authors
}
