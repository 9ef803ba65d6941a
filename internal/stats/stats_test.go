package stats

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/bibflow/bibflow/internal/document"
)

type sliceReader struct {
	docs []*document.Document
}

func (r *sliceReader) Next() (*document.Document, error) {
	if len(r.docs) == 0 {
		return nil, io.EOF
	}
	d := r.docs[0]
	r.docs = r.docs[1:]
	return d, nil
}

func (r *sliceReader) Close() error { return nil }

func TestCollect(t *testing.T) {
	s := NewSummary()
	err := s.Collect(&sliceReader{docs: []*document.Document{
		{
			ID:       "1",
			Date:     document.Date{Year: 2001},
			Title:    []string{"A"},
			Abstract: []string{"a"},
			Journal:  "J. Worms",
		},
		{
			ID:      "2",
			Date:    document.Date{Year: 2001},
			Title:   []string{"B"},
			Journal: "J. Worms",
		},
		{ID: "3"},
	}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if s.Documents != 3 {
		t.Errorf("Documents = %d, want 3", s.Documents)
	}
	if s.WithTitle != 2 {
		t.Errorf("WithTitle = %d, want 2", s.WithTitle)
	}
	if s.WithAbstract != 1 {
		t.Errorf("WithAbstract = %d, want 1", s.WithAbstract)
	}
	if s.Years["2001"] != 2 || s.Years["Unknown"] != 1 {
		t.Errorf("Years = %v", s.Years)
	}
	if s.Journals["J. Worms"] != 2 || s.Journals["Unknown"] != 1 {
		t.Errorf("Journals = %v", s.Journals)
	}
}

func TestWriteTSV(t *testing.T) {
	s := NewSummary()
	s.Add(&document.Document{ID: "1", Date: document.Date{Year: 2001}, Journal: "A"})
	s.Add(&document.Document{ID: "2", Date: document.Date{Year: 2001}, Journal: "B"})
	s.Add(&document.Document{ID: "3", Date: document.Date{Year: 1999}, Journal: "B"})

	var buf bytes.Buffer
	if err := s.WriteTSV(&buf); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"documents\t3",
		"with_title\t0",
		"with_abstract\t0",
		"year\t2001\t2",
		"year\t1999\t1",
		"journal\tB\t2",
		"journal\tA\t1",
	}
	if len(lines) != len(want) {
		t.Fatalf("WriteTSV produced %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
