// Package hashdoc computes stable per-field content digests of canonical
// Documents and manages the on-disk hash JSON state.
package hashdoc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/bibflow/bibflow/internal/document"
)

// Field names with a tracked digest.
const (
	FieldDate       = "date"
	FieldTitle      = "title"
	FieldSubtitle   = "subtitle"
	FieldAbstract   = "abstract"
	FieldJournal    = "journal"
	FieldJournalISO = "journalISO"
)

// DefaultFields is the full tracked set, in canonical order.
var DefaultFields = []string{
	FieldDate, FieldTitle, FieldSubtitle, FieldAbstract, FieldJournal, FieldJournalISO,
}

// Digests maps field name to hex digest for one document.
type Digests map[string]string

// FileDigests maps document id to its per-field digests for one source file.
type FileDigests map[string]Digests

// Hash digests the given fields of a document. List fields are joined by
// newline before digesting; a missing or empty field digests the empty
// string, so "absent" and "empty" are indistinguishable by design. An
// unknown field name is a configuration error.
func Hash(doc *document.Document, fields []string) (Digests, error) {
	if fields == nil {
		fields = DefaultFields
	}
	out := make(Digests, len(fields))
	for _, f := range fields {
		value, err := fieldValue(doc, f)
		if err != nil {
			return nil, err
		}
		out[f] = digest(value)
	}
	return out, nil
}

func fieldValue(doc *document.Document, field string) (string, error) {
	switch field {
	case FieldDate:
		return doc.Date.String(), nil
	case FieldTitle:
		return strings.Join(doc.Title, "\n"), nil
	case FieldSubtitle:
		return strings.Join(doc.Subtitle, "\n"), nil
	case FieldAbstract:
		return strings.Join(doc.Abstract, "\n"), nil
	case FieldJournal:
		return doc.Journal, nil
	case FieldJournalISO:
		return doc.JournalISO, nil
	default:
		return "", fmt.Errorf("unknown hash field %q (known: %s)",
			field, strings.Join(DefaultFields, ", "))
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashReader digests every document from a streaming reader, keyed by
// document id. Documents without an id are skipped: they cannot take part
// in id-keyed update tracking.
func HashReader(r document.Reader, fields []string) (FileDigests, error) {
	out := make(FileDigests)
	for {
		doc, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if doc.ID == "" {
			continue
		}
		digests, err := Hash(doc, fields)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = digests
	}
	return out, nil
}
