// Package document defines the canonical in-memory representation shared by
// all format parsers, the content hasher and the converter.
package document

import "fmt"

// Secondary identifier kinds.
const (
	IDKindPMC = "pmc"
	IDKindDOI = "doi"
)

// Date is a partial publication date. A zero component means unknown;
// incomplete dates are preserved, never invented.
type Date struct {
	Year  int
	Month int
	Day   int
}

// IsZero reports whether no component is known.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Completeness counts the known components.
func (d Date) Completeness() int {
	n := 0
	if d.Year != 0 {
		n++
	}
	if d.Month != 0 {
		n++
	}
	if d.Day != 0 {
		n++
	}
	return n
}

// dateComponentMax is the sentinel for a missing component when dates are
// ordered: a date missing a component never sorts before one that has it.
const dateComponentMax = 1 << 30

func (d Date) sortKey() [3]int {
	k := [3]int{dateComponentMax, dateComponentMax, dateComponentMax}
	if d.Year != 0 {
		k[0] = d.Year
	}
	if d.Month != 0 {
		k[1] = d.Month
	}
	if d.Day != 0 {
		k[2] = d.Day
	}
	return k
}

// Before reports whether d orders strictly before other, comparing
// year, month, day lexicographically with missing components maximal.
func (d Date) Before(other Date) bool {
	a, b := d.sortKey(), other.sortKey()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Earlier returns whichever of the two dates orders first.
func Earlier(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// String renders the date canonically with 0 for unknown components, e.g.
// "2001-6-0". This is the representation the content hasher digests, so it
// must stay stable across releases.
func (d Date) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Year, d.Month, d.Day)
}

// Document is the canonical unit all parsers yield. Text fields are
// sequences of cleaned blocks, never concatenated strings: block boundaries
// carry meaning for downstream offset tracking. Blocks contain no newlines,
// HTML entities or control characters.
type Document struct {
	ID           string
	SecondaryIDs map[string]string
	Date         Date

	Title    []string
	Subtitle []string
	Abstract []string
	// Body holds the main article text (PMC only). Subsections runs
	// parallel to Body, labeling each block with its logical subsection;
	// "" means no heading has been seen yet.
	Body        []string
	Subsections []string
	Back        []string
	Floating    []string

	Journal    string
	JournalISO string
	Authors    []string

	// Opaque tagged metadata carried through when the source supplies it.
	Chemicals    []string
	MeshHeadings []string
}

// SecondaryID returns the identifier of the given kind, or "".
func (d *Document) SecondaryID(kind string) string {
	if d.SecondaryIDs == nil {
		return ""
	}
	return d.SecondaryIDs[kind]
}

// SetSecondaryID records a secondary identifier, ignoring empty values.
func (d *Document) SetSecondaryID(kind, value string) {
	if value == "" {
		return
	}
	if d.SecondaryIDs == nil {
		d.SecondaryIDs = make(map[string]string)
	}
	d.SecondaryIDs[kind] = value
}

// Reader is a streaming source of Documents. Next returns io.EOF after the
// last document; a reader is a single pass and is not restartable.
type Reader interface {
	Next() (*Document, error)
	Close() error
}
