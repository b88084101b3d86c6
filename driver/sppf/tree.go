package sppf

import (
	"github.com/dhakehurst/sppf/driver/input"
)

// Tree is a forest rooted at the node a parse accepted.
type Tree struct {
	Root  *Node
	Input *input.Input
}

// NewTree assigns the parent links of every node reachable from root and returns the tree.
func NewTree(root *Node, in *input.Input) *Tree {
	Walk(root, func(n *Node) bool {
		for _, alt := range n.Alternatives {
			for _, c := range alt {
				if c.Parent == nil && c != root {
					c.Parent = n
				}
			}
		}
		return true
	})
	return &Tree{
		Root:  root,
		Input: in,
	}
}

func (t *Tree) String() string {
	if t == nil || t.Root == nil {
		return ""
	}
	return t.Root.String()
}

// IsAmbiguous reports whether any node of the tree has more than one alternative.
func (t *Tree) IsAmbiguous() bool {
	ambiguous := false
	Walk(t.Root, func(n *Node) bool {
		if n.IsAmbiguous() {
			ambiguous = true
		}
		return !ambiguous
	})
	return ambiguous
}

// CountNodes returns the number of distinct nodes in the tree.
func (t *Tree) CountNodes() int {
	count := 0
	Walk(t.Root, func(n *Node) bool {
		count++
		return true
	})
	return count
}

// FindAll returns every node of the rule named name in pre-order.
func (t *Tree) FindAll(name string) []*Node {
	var nodes []*Node
	Walk(t.Root, func(n *Node) bool {
		if n.Name() == name {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// Walk visits n and its descendants in depth-first pre-order, following every alternative.
// A shared node is visited once. When fn returns false, the children of that node are skipped.
func Walk(n *Node, fn func(n *Node) bool) {
	if n == nil {
		return
	}
	visited := map[*Node]struct{}{}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		if !fn(cur) {
			continue
		}
		for i := len(cur.Alternatives) - 1; i >= 0; i-- {
			alt := cur.Alternatives[i]
			for j := len(alt) - 1; j >= 0; j-- {
				if _, ok := visited[alt[j]]; !ok {
					stack = append(stack, alt[j])
				}
			}
		}
	}
}
