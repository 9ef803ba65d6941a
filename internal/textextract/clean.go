package textextract

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Vacated bracket groups: brackets left holding only punctuation and
// whitespace after their contents were stripped, e.g. a citation marker
// "( [3] [4] )" whose references were removed.
var (
	emptyParens   = regexp.MustCompile(`\([\W\s]*\)`)
	emptyBrackets = regexp.MustCompile(`\[[\W\s]*\]`)
	emptyBraces   = regexp.MustCompile(`\{[\W\s]*\}`)
)

// controlToSpace maps control, format and separator characters to plain
// spaces; the blocks are collapsed to single spaces afterwards.
var controlToSpace = runes.Map(func(r rune) rune {
	if unicode.In(r, unicode.C, unicode.Z) {
		return ' '
	}
	return r
})

// Unescape resolves HTML entities, e.g. "&gt;" to ">".
func Unescape(s string) string {
	return html.UnescapeString(s)
}

// RemoveVacatedBrackets drops parenthetical, bracketed or braced groups
// that contain no word characters.
func RemoveVacatedBrackets(s string) string {
	s = emptyParens.ReplaceAllString(s, " ")
	s = emptyBrackets.ReplaceAllString(s, " ")
	s = emptyBraces.ReplaceAllString(s, " ")
	return s
}

// RepairBracketedTitle undoes the legacy convention of wrapping an entire
// title in square brackets with the trailing period outside:
// "[A study of worms]." becomes "A study of worms.".
func RepairBracketedTitle(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && s[0] == '[' && strings.HasSuffix(s, "].") {
		return s[1:len(s)-2] + "."
	}
	return s
}

// normalizeSpace collapses all whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanBlock applies the full cleanup pass to a single block: entity
// unescaping, control/format/separator stripping, vacated-bracket removal
// and whitespace normalization.
func CleanBlock(s string) string {
	s = Unescape(s)
	s, _, _ = transform.String(controlToSpace, s)
	s = RemoveVacatedBrackets(s)
	return normalizeSpace(s)
}

// CleanBlocks cleans every block and drops the ones that end up empty.
func CleanBlocks(blocks []string) []string {
	var out []string
	for _, b := range blocks {
		if c := CleanBlock(b); c != "" {
			out = append(out, c)
		}
	}
	return out
}
