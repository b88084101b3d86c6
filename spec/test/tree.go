package test

import (
	"bytes"
	"fmt"

	"github.com/dhakehurst/sppf/driver/sppf"
)

const (
	// KindAny matches a branch of any rule.
	KindAny = "_"

	// KindEmpty is the kind of an empty leaf.
	KindEmpty = "§empty"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// Tree is a parse forest written down in compact form. A leaf has no kind, only its text.
type Tree struct {
	Parent       *Tree
	Offset       int
	Alternative  int
	Kind         string
	Lexeme       string
	Leaf         bool
	Alternatives [][]*Tree
}

func NewBranch(kind string, alternatives ...[]*Tree) *Tree {
	if len(alternatives) == 0 {
		alternatives = [][]*Tree{nil}
	}
	return &Tree{
		Kind:         kind,
		Alternatives: alternatives,
	}
}

func NewLeaf(lexeme string) *Tree {
	return &Tree{
		Lexeme: lexeme,
		Leaf:   true,
	}
}

func NewEmptyLeaf() *Tree {
	return &Tree{
		Kind: KindEmpty,
		Leaf: true,
	}
}

// FromNode converts a forest node into a tree. A node shared by several parents is converted
// once per parent.
func FromNode(n *sppf.Node) *Tree {
	switch n.Kind() {
	case sppf.NodeKindEmptyLeaf:
		return NewEmptyLeaf()
	case sppf.NodeKindLeaf:
		return NewLeaf(n.Text)
	}
	alts := make([][]*Tree, len(n.Alternatives))
	for i, alt := range n.Alternatives {
		alts[i] = make([]*Tree, len(alt))
		for j, c := range alt {
			alts[i][j] = FromNode(c)
		}
	}
	return NewBranch(n.Name(), alts...)
}

func (t *Tree) Children() []*Tree {
	if len(t.Alternatives) == 0 {
		return nil
	}
	return t.Alternatives[0]
}

func (t *Tree) Fill() *Tree {
	for i, alt := range t.Alternatives {
		for j, c := range alt {
			c.Parent = t
			c.Alternative = i
			c.Offset = j
			c.Fill()
		}
	}
	return t
}

func (t *Tree) name() string {
	if t.Leaf && t.Kind == "" {
		return sppf.Quote(t.Lexeme)
	}
	return t.Kind
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.name()
	}
	if len(t.Parent.Alternatives) > 1 {
		return fmt.Sprintf("%v.<%v>[%v]%v", t.Parent.path(), t.Alternative+1, t.Offset, t.name())
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.name())
}

// Format renders the tree in compact form with one node per line.
func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	b.WriteString("\n")
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	indent := func(d int) {
		for i := 0; i < d; i++ {
			buf.WriteString("    ")
		}
	}

	indent(depth)
	buf.WriteString(t.name())
	if t.Leaf {
		return
	}
	if len(t.Alternatives) <= 1 {
		buf.WriteString(" {")
		for _, c := range t.Children() {
			buf.WriteString("\n")
			c.format(buf, depth+1)
		}
		buf.WriteString("\n")
		indent(depth)
		buf.WriteString("}")
		return
	}
	buf.WriteString(" {|")
	for i, alt := range t.Alternatives {
		if i > 0 {
			buf.WriteString("\n")
			indent(depth)
			buf.WriteString("||")
		}
		for _, c := range alt {
			buf.WriteString("\n")
			c.format(buf, depth+1)
		}
	}
	buf.WriteString("\n")
	indent(depth)
	buf.WriteString("|}")
}

// DiffTree compares an expected tree with an actual one. A branch of kind KindAny in the
// expected tree matches a branch of any kind.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected.Leaf != actual.Leaf {
		msg := fmt.Sprintf("unexpected node: expected %v but got %v", expected.name(), actual.name())
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Kind != KindAny && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected %v but got %v", sppf.Quote(expected.Lexeme), sppf.Quote(actual.Lexeme))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Alternatives) != len(expected.Alternatives) {
		msg := fmt.Sprintf("unexpected alternative count: expected %v but got %v", len(expected.Alternatives), len(actual.Alternatives))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, expAlt := range expected.Alternatives {
		actAlt := actual.Alternatives[i]
		if len(actAlt) != len(expAlt) {
			msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expAlt), len(actAlt))
			diffs = append(diffs, newTreeDiff(expected, actual, msg))
			continue
		}
		for j, exp := range expAlt {
			if ds := DiffTree(exp, actAlt[j]); len(ds) > 0 {
				diffs = append(diffs, ds...)
			}
		}
	}
	return diffs
}
