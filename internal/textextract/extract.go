// Package textextract turns markup subtrees into ordered sequences of
// cleaned plain-text blocks.
package textextract

import (
	"strings"

	"github.com/bibflow/bibflow/internal/xmltree"
)

// Options configures which element tags are ignored outright and which force
// a block boundary. All other tags merge transparently into surrounding text.
type Options struct {
	Ignore   map[string]bool
	Separate map[string]bool
}

// defaultIgnore lists elements whose contents are discarded: tables,
// cross-references, formulas, reference lists, author biographies,
// acknowledgements, graphics, media, math markup and external links. Their
// tail text still joins the surrounding block.
var defaultIgnore = []string{
	"table", "table-wrap", "xref", "disp-formula", "inline-formula",
	"ref-list", "bio", "ack", "graphic", "media",
	"tex-math", "mml:math", "object-id", "ext-link",
}

// defaultSeparate lists elements that start a new text block.
var defaultSeparate = []string{
	"title", "p", "sec", "break", "def-item", "list-item", "caption",
}

// DefaultOptions returns the tag classification used for PubMed and PMC
// markup.
func DefaultOptions() Options {
	opt := Options{
		Ignore:   make(map[string]bool, len(defaultIgnore)),
		Separate: make(map[string]bool, len(defaultSeparate)),
	}
	for _, t := range defaultIgnore {
		opt.Ignore[t] = true
	}
	for _, t := range defaultSeparate {
		opt.Separate[t] = true
	}
	return opt
}

// frag is one collected text fragment. A fragment with split set marks a
// hard block boundary.
type frag struct {
	split bool
	text  string
}

// collect recursively gathers fragments from a subtree in document order.
func collect(n *xmltree.Node, opt Options, out []frag) []frag {
	if opt.Ignore[n.Tag] {
		// Contents discarded; only the tail survives, since it belongs
		// to the text the element was spliced into.
		return append(out, frag{text: strings.TrimSpace(n.Tail)})
	}
	if opt.Separate[n.Tag] {
		out = append(out, frag{split: true})
	}
	out = append(out, frag{text: n.Text})
	for _, c := range n.Children {
		out = collect(c, opt, out)
	}
	return append(out, frag{text: n.Tail})
}

// merge joins fragments into one block per contiguous run between split
// markers, joining with single spaces and trimming as it goes.
func merge(frags []frag) []string {
	var blocks []string
	cur := ""
	for _, f := range frags {
		if f.split {
			if cur != "" {
				blocks = append(blocks, cur)
				cur = ""
			}
			continue
		}
		cur = strings.TrimSpace(cur + " " + f.text)
	}
	if cur != "" {
		blocks = append(blocks, cur)
	}
	return blocks
}

// FromNodes extracts text blocks from a list of subtrees. Each top-level
// node ends its own block so text from adjacent nodes is never merged.
// Newlines inside blocks are replaced by spaces; they carry no meaning in
// the source markup. An empty input yields no blocks.
func FromNodes(nodes []*xmltree.Node, opt Options) []string {
	var frags []frag
	for _, n := range nodes {
		frags = collect(n, opt, frags)
		frags = append(frags, frag{split: true})
	}
	blocks := merge(frags)
	for i, b := range blocks {
		blocks[i] = strings.ReplaceAll(b, "\n", " ")
	}
	return blocks
}
