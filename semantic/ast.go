package semantic

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dhakehurst/sppf/driver/sppf"
)

type NodeType int

const (
	NodeTypeTerminal    = 1
	NodeTypeNonTerminal = 2
)

// Node is a node of a syntax tree built from a parse forest.
type Node struct {
	Type     NodeType
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case NodeTypeTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Text     string   `json:"text"`
			Row      int      `json:"row"`
			Col      int      `json:"col"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Text:     n.Text,
			Row:      n.Row,
			Col:      n.Col,
		})
	case NodeTypeNonTerminal:
		return json.Marshal(struct {
			Type     NodeType `json:"type"`
			KindName string   `json:"kind_name"`
			Row      int      `json:"row"`
			Col      int      `json:"col"`
			Children []*Node  `json:"children"`
		}{
			Type:     n.Type,
			KindName: n.KindName,
			Row:      n.Row,
			Col:      n.Col,
			Children: n.Children,
		})
	default:
		return nil, fmt.Errorf("invalid node type: %v", n.Type)
	}
}

// NewASTTransformer returns a transformer building an AST: skip nodes and empty leaves are
// dropped, and the children of synthesized rules are spliced into their parents.
func NewASTTransformer() *Transformer[*Node] {
	t := NewTransformer[*Node]()
	t.DefaultBranch = buildBranch
	t.DefaultLeaf = buildLeaf
	return t
}

// NewCSTTransformer returns a transformer building a CST, which keeps every node of the first
// alternative.
func NewCSTTransformer() *Transformer[*Node] {
	t := NewASTTransformer()
	t.KeepSkip = true
	t.KeepInternal = true
	return t
}

func buildLeaf(c *Context, n *sppf.Node) (*Node, error) {
	loc := c.Location(n)
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: n.Name(),
		Text:     n.Text,
		Row:      loc.Line,
		Col:      loc.Column,
	}, nil
}

func buildBranch(c *Context, n *sppf.Node, children []*Node) (*Node, error) {
	loc := c.Location(n)
	return &Node{
		Type:     NodeTypeNonTerminal,
		KindName: n.Name(),
		Row:      loc.Line,
		Col:      loc.Column,
		Children: children,
	}, nil
}

// PrintTree prints a syntax tree whose root is `node`.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	switch node.Type {
	case NodeTypeTerminal:
		fmt.Fprintf(w, "%v%v %v\n", ruledLine, node.KindName, sppf.Quote(node.Text))
	case NodeTypeNonTerminal:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)

		num := len(node.Children)
		for i, child := range node.Children {
			var line string
			if num > 1 && i < num-1 {
				line = "├─ "
			} else {
				line = "└─ "
			}

			var prefix string
			if i >= num-1 {
				prefix = "   "
			} else {
				prefix = "│  "
			}

			printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
		}
	}
}
