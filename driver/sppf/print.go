package sppf

import (
	"fmt"
	"io"
)

// PrintTree writes the tree with ruled lines. Alternatives of an ambiguous node are listed as
// numbered children. A shared node is expanded every time it appears.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case NodeKindEmptyLeaf:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.Name())
	case NodeKindLeaf:
		fmt.Fprintf(w, "%v%v %v\n", ruledLine, node.Name(), Quote(node.Text))
	default:
		if node.IsSkip() {
			fmt.Fprintf(w, "%v%v (skip)\n", ruledLine, node.Name())
		} else {
			fmt.Fprintf(w, "%v%v\n", ruledLine, node.Name())
		}
	}

	if !node.IsAmbiguous() {
		printChildren(w, node.Children(), childRuledLinePrefix)
		return
	}

	num := len(node.Alternatives)
	for i, alt := range node.Alternatives {
		line, prefix := ruledLines(i, num)
		fmt.Fprintf(w, "%v%valternative %v\n", childRuledLinePrefix, line, i+1)
		printChildren(w, alt, childRuledLinePrefix+prefix)
	}
}

func printChildren(w io.Writer, children []*Node, childRuledLinePrefix string) {
	num := len(children)
	for i, child := range children {
		line, prefix := ruledLines(i, num)
		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}

func ruledLines(i, num int) (string, string) {
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
	return line, prefix
}
