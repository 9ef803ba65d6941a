// Package stats summarizes a parsed corpus: how many documents carry
// titles and abstracts, and the publication-year and journal distributions.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/bibflow/bibflow/internal/document"
)

// Summary accumulates corpus-level counts.
type Summary struct {
	Documents    int            `json:"documents"`
	WithTitle    int            `json:"with_title"`
	WithAbstract int            `json:"with_abstract"`
	Years        map[string]int `json:"years"`
	Journals     map[string]int `json:"journals"`
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Years:    make(map[string]int),
		Journals: make(map[string]int),
	}
}

// Add counts one document.
func (s *Summary) Add(doc *document.Document) {
	s.Documents++
	if len(doc.Title) > 0 {
		s.WithTitle++
	}
	if len(doc.Abstract) > 0 {
		s.WithAbstract++
	}
	year := "Unknown"
	if doc.Date.Year != 0 {
		year = fmt.Sprintf("%d", doc.Date.Year)
	}
	s.Years[year]++
	journal := doc.Journal
	if journal == "" {
		journal = "Unknown"
	}
	s.Journals[journal]++
}

// Collect drains a document reader into the summary.
func (s *Summary) Collect(r document.Reader) error {
	for {
		doc, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		s.Add(doc)
	}
}

// WriteTSV renders the summary as tab-delimited key/value sections.
func (s *Summary) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "documents\t%d\n", s.Documents)
	fmt.Fprintf(bw, "with_title\t%d\n", s.WithTitle)
	fmt.Fprintf(bw, "with_abstract\t%d\n", s.WithAbstract)
	writeCounts(bw, "year", s.Years)
	writeCounts(bw, "journal", s.Journals)
	return bw.Flush()
}

// writeCounts writes one section sorted by descending count, then key.
func writeCounts(w io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\t%d\n", label, k, counts[k])
	}
}
