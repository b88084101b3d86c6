// Package sppf implements the shared packed parse forest a parse produces.
//
// A node is identified by its rule and its span. Nodes with the same identity are one node,
// shared by every parent that refers to it. An ambiguous node holds more than one alternative
// child list.
package sppf

import (
	"fmt"
	"strings"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/grammar/rule"
)

type NodeKind string

const (
	NodeKindLeaf      = NodeKind("leaf")
	NodeKindEmptyLeaf = NodeKind("empty-leaf")
	NodeKindBranch    = NodeKind("branch")
)

type Node struct {
	Rule  *rule.Rule
	Start int

	// End is the position following the node.
	End int

	// Text is the matched text.
	Text string

	// Alternatives holds the child lists of a branch in the order they were derived. A leaf has
	// none.
	Alternatives [][]*Node

	// Parent is the first parent found by a top-down, first-alternative-first pass over the
	// tree. It is nil for the root and for nodes that are not part of a tree yet.
	Parent *Node
}

func (n *Node) Kind() NodeKind {
	switch {
	case n.Rule.IsEmptyTerminal:
		return NodeKindEmptyLeaf
	case n.Rule.IsTerminal():
		return NodeKindLeaf
	}
	return NodeKindBranch
}

func (n *Node) Name() string {
	return n.Rule.Name
}

func (n *Node) Len() int {
	return n.End - n.Start
}

func (n *Node) IsLeaf() bool {
	return n.Rule.IsTerminal()
}

func (n *Node) IsEmptyLeaf() bool {
	return n.Rule.IsEmptyTerminal
}

func (n *Node) IsBranch() bool {
	return n.Rule.IsNonTerminal()
}

func (n *Node) IsSkip() bool {
	return n.Rule.IsSkip
}

func (n *Node) IsAmbiguous() bool {
	return len(n.Alternatives) > 1
}

// Children returns the first alternative.
func (n *Node) Children() []*Node {
	if len(n.Alternatives) == 0 {
		return nil
	}
	return n.Alternatives[0]
}

// NonSkipChildren returns the first alternative without the skip nodes.
func (n *Node) NonSkipChildren() []*Node {
	var children []*Node
	for _, c := range n.Children() {
		if c.IsSkip() {
			continue
		}
		children = append(children, c)
	}
	return children
}

// Contains reports whether the span of o lies within the span of n.
func (n *Node) Contains(o *Node) bool {
	return n.Start <= o.Start && o.End <= n.End
}

// Location returns the location of the start of the node in the given input.
func (n *Node) Location(in *input.Input) input.Location {
	return in.Location(n.Start)
}

// String returns the compact rendering of the node and its descendants. A leaf is its quoted
// text, an empty leaf is §empty, a branch is `name { children }`, and an ambiguous branch is
// `name {| children || children |}`.
func (n *Node) String() string {
	var b strings.Builder
	writeCompact(&b, n)
	return b.String()
}

func writeCompact(b *strings.Builder, n *Node) {
	switch n.Kind() {
	case NodeKindEmptyLeaf:
		b.WriteString(rule.NameEmptyMatch)
		return
	case NodeKindLeaf:
		b.WriteString(Quote(n.Text))
		return
	}

	fmt.Fprintf(b, "%v ", n.Name())
	if !n.IsAmbiguous() {
		b.WriteString("{")
		for _, c := range n.Children() {
			b.WriteString(" ")
			writeCompact(b, c)
		}
		b.WriteString(" }")
		return
	}
	b.WriteString("{|")
	for i, alt := range n.Alternatives {
		if i > 0 {
			b.WriteString(" ||")
		}
		for _, c := range alt {
			b.WriteString(" ")
			writeCompact(b, c)
		}
	}
	b.WriteString(" |}")
}

// Quote renders a text in single quotes, escaping backslashes, quotes, and control characters.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
