// Package xmltree provides a streaming XML reader that yields one record
// subtree at a time, keeping peak memory bounded to a single record
// regardless of file size.
package xmltree

import "strings"

// Node is a parsed XML element. Text is the character data before the first
// child element; Tail is the character data that follows the element's close
// tag, before the next sibling. This split matters for text extraction: when
// an element's contents are discarded, the tail still belongs to the
// surrounding text.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Tail     string
	Children []*Node
}

// Attr returns the value of the named attribute, or "" if absent.
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// ChildrenByTag returns the direct children with the given tag.
func (n *Node) ChildrenByTag(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// FindAll returns all descendants matching a slash-separated child path,
// e.g. "Article/Journal/Title". Each path step matches direct children only.
func (n *Node) FindAll(path string) []*Node {
	nodes := []*Node{n}
	for _, step := range strings.Split(path, "/") {
		var next []*Node
		for _, cur := range nodes {
			next = append(next, cur.ChildrenByTag(step)...)
		}
		nodes = next
		if len(nodes) == 0 {
			break
		}
	}
	return nodes
}

// First returns the first node matching the path, or nil.
func (n *Node) First(path string) *Node {
	if nodes := n.FindAll(path); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// FirstText returns the trimmed text of the first node matching the path,
// or "" if no such node exists.
func (n *Node) FirstText(path string) string {
	if node := n.First(path); node != nil {
		return strings.TrimSpace(node.Text)
	}
	return ""
}

// Descendants returns all descendants (any depth) with the given tag.
func (n *Node) Descendants(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
		out = append(out, c.Descendants(tag)...)
	}
	return out
}
