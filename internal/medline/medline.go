// Package medline streams canonical Documents from MEDLINE/PubMed XML.
package medline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bibflow/bibflow/internal/dates"
	"github.com/bibflow/bibflow/internal/document"
	"github.com/bibflow/bibflow/internal/textextract"
	"github.com/bibflow/bibflow/internal/xmltree"
)

// Reader yields one Document per PubmedArticle record, in file order. The
// underlying record subtree is released after each yield, so peak memory is
// bounded by one record.
type Reader struct {
	rr  *xmltree.RecordReader
	opt textextract.Options
}

// NewReader opens a MEDLINE/PubMed XML file (.xml or .xml.gz).
func NewReader(path string) (*Reader, error) {
	rr, err := xmltree.NewRecordReader(path, "PubmedArticle")
	if err != nil {
		return nil, err
	}
	return &Reader{rr: rr, opt: textextract.DefaultOptions()}, nil
}

// Next returns the next Document or io.EOF.
func (r *Reader) Next() (*document.Document, error) {
	node, err := r.rr.Next()
	if err != nil {
		return nil, err
	}
	return r.parseRecord(node)
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.rr.Close() }

func (r *Reader) parseRecord(rec *xmltree.Node) (*document.Document, error) {
	doc := &document.Document{}
	citation := rec.First("MedlineCitation")
	if citation == nil {
		return nil, fmt.Errorf("%s: PubmedArticle without MedlineCitation", r.rr.Path())
	}

	doc.ID = citation.FirstText("PMID")

	// Two independently-derived date candidates: the journal issue's
	// nominal cover date and the entry's processing-history date. A
	// delayed catalog entry should not displace the nominal journal
	// date, so the earlier of the two wins.
	issueDate := parsePubDate(citation.First("Article/Journal/JournalIssue/PubDate"))
	historyDate := parseHistoryDate(rec.First("PubmedData/History"))
	doc.Date = document.Earlier(issueDate, historyDate)

	doc.Title = r.extractTitle(citation.FindAll("Article/ArticleTitle"))
	doc.Abstract = textextract.CleanBlocks(
		textextract.FromNodes(citation.FindAll("Article/Abstract/AbstractText"), r.opt))

	doc.Journal = strings.Join(textextract.CleanBlocks(
		textextract.FromNodes(citation.FindAll("Article/Journal/Title"), r.opt)), " ")
	doc.JournalISO = strings.Join(textextract.CleanBlocks(
		textextract.FromNodes(citation.FindAll("Article/Journal/ISOAbbreviation"), r.opt)), " ")

	authors, err := parseAuthors(citation.FindAll("Article/AuthorList/Author"))
	if err != nil {
		return nil, fmt.Errorf("%s: citation %s: %w", r.rr.Path(), doc.ID, err)
	}
	doc.Authors = authors

	for _, chem := range citation.FindAll("ChemicalList/Chemical/NameOfSubstance") {
		if s := textextract.CleanBlock(chem.Text); s != "" {
			doc.Chemicals = append(doc.Chemicals, s)
		}
	}
	for _, mesh := range citation.FindAll("MeshHeadingList/MeshHeading/DescriptorName") {
		if s := textextract.CleanBlock(mesh.Text); s != "" {
			doc.MeshHeadings = append(doc.MeshHeadings, s)
		}
	}

	for _, aid := range rec.FindAll("PubmedData/ArticleIdList/ArticleId") {
		switch aid.Attr("IdType") {
		case "pmc":
			doc.SetSecondaryID(document.IDKindPMC, strings.TrimSpace(aid.Text))
		case "doi":
			doc.SetSecondaryID(document.IDKindDOI, strings.TrimSpace(aid.Text))
		}
	}

	return doc, nil
}

// extractTitle pulls title blocks and repairs the legacy convention of
// titles wrapped in square brackets with the period outside.
func (r *Reader) extractTitle(nodes []*xmltree.Node) []string {
	blocks := textextract.FromNodes(nodes, r.opt)
	for i, b := range blocks {
		blocks[i] = textextract.RepairBracketedTitle(b)
	}
	return textextract.CleanBlocks(blocks)
}

// parsePubDate reads a journal issue PubDate, resolving month names,
// seasons and MedlineDate free text.
func parsePubDate(pd *xmltree.Node) document.Date {
	var d document.Date
	if pd == nil {
		return d
	}
	d.Year, _ = strconv.Atoi(pd.FirstText("Year"))
	d.Month = dates.MonthNumber(pd.FirstText("Month"))
	d.Day, _ = strconv.Atoi(pd.FirstText("Day"))
	if d.Month == 0 {
		d.Month = dates.MonthFromSeason(pd.FirstText("Season"))
	}
	if medlineDate := pd.FirstText("MedlineDate"); medlineDate != "" {
		if d.Year == 0 {
			d.Year = dates.YearFromText(medlineDate)
		}
		if d.Month == 0 {
			d.Month = dates.MonthFromSeason(medlineDate)
		}
	}
	return d
}

// historyStatusOrder is the preference order for processing-history dates.
var historyStatusOrder = []string{"pubmed", "entrez", "medline"}

// parseHistoryDate picks the preferred PubMedPubDate from the processing
// history, falling back to the first entry when no preferred status exists.
func parseHistoryDate(history *xmltree.Node) document.Date {
	if history == nil {
		return document.Date{}
	}
	entries := history.ChildrenByTag("PubMedPubDate")
	if len(entries) == 0 {
		return document.Date{}
	}
	chosen := entries[0]
	for _, status := range historyStatusOrder {
		found := false
		for _, e := range entries {
			if e.Attr("PubStatus") == status {
				chosen = e
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	var d document.Date
	d.Year, _ = strconv.Atoi(chosen.FirstText("Year"))
	d.Month = dates.MonthNumber(chosen.FirstText("Month"))
	d.Day, _ = strconv.Atoi(chosen.FirstText("Day"))
	return d
}

// parseAuthors builds display names, trying forename+lastname, then
// lastname alone, then forename alone, then the collective name. An author
// entry with none of these fields makes the record unparseable.
func parseAuthors(nodes []*xmltree.Node) ([]string, error) {
	var authors []string
	for _, a := range nodes {
		fore := a.FirstText("ForeName")
		last := a.FirstText("LastName")
		collective := a.FirstText("CollectiveName")
		var name string
		switch {
		case fore != "" && last != "":
			name = fore + " " + last
		case last != "":
			name = last
		case fore != "":
			name = fore
		case collective != "":
			name = collective
		default:
			return nil, fmt.Errorf("author entry with no name fields")
		}
		authors = append(authors, textextract.CleanBlock(name))
	}
	return authors, nil
}
