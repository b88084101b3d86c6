package sppf

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forest struct {
	in   *input.Input
	a    *Node
	plus *Node
	e0   *Node
	e2   *Node
	ws   *Node
	root *Node
}

// newForest builds the forest of `e = e '+' e | 'a'` over "a +a" with a skip node for the
// space, and an ambiguous root.
func newForest() *forest {
	text := "a +a"
	e := &rule.Rule{Number: 0, Kind: rule.KindNonTerminal, Name: "e"}
	ws := &rule.Rule{Number: 1, Kind: rule.KindNonTerminal, Name: "WS", IsSkip: true}
	lit := &rule.Rule{Number: 2, Kind: rule.KindTerminal, Name: "'a'", Value: "a"}
	plus := &rule.Rule{Number: 3, Kind: rule.KindTerminal, Name: "'+'", Value: "+"}
	sp := &rule.Rule{Number: 4, Kind: rule.KindTerminal, Name: `"\s+"`, Value: `\s+`, IsPattern: true}
	empty := &rule.Rule{Number: 5, Kind: rule.KindTerminal, Name: rule.NameEmptyMatch, IsEmptyTerminal: true}

	leaf := func(r *rule.Rule, start, end int) *Node {
		return &Node{Rule: r, Start: start, End: end, Text: text[start:end]}
	}
	f := &forest{
		in: input.New(text),
	}
	f.a = leaf(lit, 0, 1)
	f.e0 = &Node{Rule: e, Start: 0, End: 1, Text: "a", Alternatives: [][]*Node{{f.a}}}
	f.ws = &Node{Rule: ws, Start: 1, End: 2, Text: " ", Alternatives: [][]*Node{{leaf(sp, 1, 2)}}}
	f.plus = leaf(plus, 2, 3)
	a2 := leaf(lit, 3, 4)
	f.e2 = &Node{Rule: e, Start: 3, End: 4, Text: "a", Alternatives: [][]*Node{{a2, leaf(empty, 4, 4)}}}
	f.root = &Node{
		Rule:  e,
		Start: 0,
		End:   4,
		Text:  text,
		Alternatives: [][]*Node{
			{f.e0, f.ws, f.plus, f.e2},
			{f.e0, f.ws, f.plus, a2},
		},
	}
	return f
}

func TestNode_Queries(t *testing.T) {
	f := newForest()

	assert.Equal(t, NodeKindBranch, f.root.Kind())
	assert.Equal(t, NodeKindLeaf, f.a.Kind())
	assert.Equal(t, NodeKindEmptyLeaf, f.e2.Children()[1].Kind())
	assert.True(t, f.root.IsAmbiguous())
	assert.False(t, f.e0.IsAmbiguous())
	assert.Equal(t, 4, f.root.Len())
	assert.Len(t, f.root.Children(), 4)
	assert.Equal(t, []*Node{f.e0, f.plus, f.e2}, f.root.NonSkipChildren())
	assert.True(t, f.root.Contains(f.plus))
	assert.False(t, f.plus.Contains(f.root))
	assert.Equal(t, input.Location{Offset: 2, Line: 1, Column: 3}, f.plus.Location(f.in))
}

func TestNode_String(t *testing.T) {
	f := newForest()
	assert.Equal(t, "e { 'a' }", f.e0.String())
	assert.Equal(t, "e {| e { 'a' } WS { ' ' } '+' e { 'a' §empty } || e { 'a' } WS { ' ' } '+' 'a' |}", f.root.String())
	assert.Equal(t, `'a\'\\\n'`, Quote("a'\\\n"))
}

func TestNewTree(t *testing.T) {
	f := newForest()
	tree := NewTree(f.root, f.in)

	assert.Nil(t, f.root.Parent)
	assert.Same(t, f.root, f.e0.Parent)
	assert.Same(t, f.e0, f.a.Parent)
	assert.Same(t, f.root, f.ws.Parent)
	assert.True(t, tree.IsAmbiguous())
	// root, e0, 'a', WS, ' ', '+', e2, 'a', §empty
	assert.Equal(t, 9, tree.CountNodes())
	assert.Len(t, tree.FindAll("e"), 3)
	assert.Equal(t, f.root.String(), tree.String())
}

func TestWalk_SkipsChildren(t *testing.T) {
	f := newForest()
	var names []string
	Walk(f.root, func(n *Node) bool {
		names = append(names, n.Name())
		return n == f.root
	})
	assert.Equal(t, []string{"e", "e", "WS", "'+'", "e", "'a'"}, names)
}

type textVisitor struct{}

func (textVisitor) VisitTree(tree *Tree, root string) (string, error) {
	return "<" + root + ">", nil
}

func (textVisitor) VisitLeaf(n *Node) (string, error) {
	return n.Text, nil
}

func (textVisitor) VisitEmptyLeaf(n *Node) (string, error) {
	return "", nil
}

func (textVisitor) VisitBranch(n *Node, alternatives [][]string) (string, error) {
	var alts []string
	for _, alt := range alternatives {
		alts = append(alts, strings.Join(alt, ""))
	}
	return strings.Join(alts, "|"), nil
}

func TestVisit(t *testing.T) {
	f := newForest()
	tree := NewTree(f.root, f.in)
	got, err := Visit[string](tree, textVisitor{})
	require.NoError(t, err)
	assert.Equal(t, "<a +a|a +a>", got)
}

type failingVisitor struct {
	textVisitor
}

var errVisit = errors.New("visit failed")

func (failingVisitor) VisitLeaf(n *Node) (string, error) {
	if n.Text == "+" {
		return "", errVisit
	}
	return n.Text, nil
}

func TestVisit_StopsAtError(t *testing.T) {
	f := newForest()
	_, err := Visit[string](NewTree(f.root, f.in), failingVisitor{})
	assert.ErrorIs(t, err, errVisit)
}

func TestPrintTree(t *testing.T) {
	f := newForest()
	var b strings.Builder
	PrintTree(&b, f.e2)
	want := `e
├─ 'a' 'a'
└─ §empty
`
	assert.Equal(t, want, b.String())

	b.Reset()
	PrintTree(&b, f.root)
	out := b.String()
	assert.True(t, strings.HasPrefix(out, "e\n├─ alternative 1\n│  ├─ e\n"), out)
	assert.Contains(t, out, "WS (skip)")
	assert.Contains(t, out, fmt.Sprintf("└─ alternative %v", 2))
}
