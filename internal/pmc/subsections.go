package pmc

import "strings"

// subsectionHeadings is the fixed vocabulary of structural headings used to
// label body blocks with their logical subsection.
var subsectionHeadings = []string{
	"abbreviations",
	"acknowledgements",
	"acknowledgments",
	"author contributions",
	"authors' contributions",
	"background",
	"case presentation",
	"case report",
	"competing interests",
	"conclusion",
	"conclusions",
	"conflict of interest",
	"conflicts of interest",
	"discussion",
	"ethics",
	"funding",
	"introduction",
	"limitations",
	"material and methods",
	"materials and methods",
	"methods",
	"references",
	"results",
	"results and discussion",
	"supplementary information",
	"supplementary material",
}

var subsectionSet = buildSubsectionSet()

func buildSubsectionSet() map[string]bool {
	s := make(map[string]bool, len(subsectionHeadings))
	for _, h := range subsectionHeadings {
		s[h] = true
	}
	return s
}

// normalizeHeading lowercases a block and strips the leading section
// numbering ("2.1. Methods" becomes "methods").
func normalizeHeading(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimLeft(s, "0123456789. ")
	return strings.TrimSpace(s)
}

// tagSubsections labels each body block with its logical subsection.
// Blocks matching the heading vocabulary start a new label; other blocks
// inherit the nearest preceding match, or "" before the first one.
func tagSubsections(blocks []string) []string {
	if len(blocks) == 0 {
		return nil
	}
	labels := make([]string, len(blocks))
	current := ""
	for i, b := range blocks {
		if h := normalizeHeading(b); subsectionSet[h] {
			current = h
		}
		labels[i] = current
	}
	return labels
}
