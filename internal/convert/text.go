package convert

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxPassageLength bounds a single passage's text. Pathological records
// contain megabyte-long single blocks that break downstream taggers, so
// over-long blocks are split at sentence boundaries into separate passages.
const MaxPassageLength = 30000

// splitSentenceChunks splits text into chunks of at most max bytes,
// breaking at sentence boundaries where possible. A single sentence longer
// than max is cut mid-sentence as a last resort, backing off to a rune
// boundary so no chunk ends inside a multi-byte character.
func splitSentenceChunks(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, sentence := range splitSentences(text) {
		for len(sentence) > max {
			if cur.Len() > 0 {
				chunks = append(chunks, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
			cut := max
			for cut > 0 && !utf8.RuneStart(sentence[cut]) {
				cut--
			}
			if cut == 0 {
				cut = max
			}
			chunks = append(chunks, strings.TrimSpace(sentence[:cut]))
			sentence = sentence[cut:]
		}
		if cur.Len()+len(sentence) > max && cur.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(sentence)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// splitSentences cuts text after ". " boundaries, keeping the period with
// the preceding sentence. Good enough for length limiting; this is not a
// linguistic sentence splitter.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '.' && text[i+1] == ' ' {
			sentences = append(sentences, text[start:i+2])
			start = i + 2
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// renderTXT flattens a BioC container into plain text: every passage's text
// separated by blank lines.
func renderTXT(biocPath string, w io.Writer) error {
	r, err := NewBioCReader(biocPath)
	if err != nil {
		return err
	}
	defer r.Close()

	bw := bufio.NewWriter(w)
	for {
		doc, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		for _, group := range [][]string{doc.Title, doc.Subtitle, doc.Abstract, doc.Body, doc.Back, doc.Floating} {
			for _, block := range group {
				if _, err := bw.WriteString(block + "\n\n"); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// renderTSV flattens a BioC container into pmid/year/title/abstract rows.
func renderTSV(biocPath string, w io.Writer) error {
	r, err := NewBioCReader(biocPath)
	if err != nil {
		return err
	}
	defer r.Close()

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("pmid\tyear\ttitle\tabstract\n"); err != nil {
		return err
	}
	for {
		doc, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		year := ""
		if doc.Date.Year != 0 {
			year = fmt.Sprintf("%d", doc.Date.Year)
		}
		row := []string{
			tsvField(doc.ID),
			year,
			tsvField(strings.Join(doc.Title, " ")),
			tsvField(strings.Join(doc.Abstract, " ")),
		}
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// tsvField strips the characters that would break a row.
func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
