package sppf

// Visitor folds a tree bottom-up into a value of type T.
type Visitor[T any] interface {
	// VisitTree runs last, with the value of the root.
	VisitTree(tree *Tree, root T) (T, error)

	VisitLeaf(n *Node) (T, error)

	VisitEmptyLeaf(n *Node) (T, error)

	// VisitBranch receives the values of the children of every alternative of n, in the same
	// shape as n.Alternatives.
	VisitBranch(n *Node, alternatives [][]T) (T, error)
}

// Visit runs v over the tree. Every node is visited once; the value of a shared node is reused
// by each of its parents. The first error stops the traversal.
func Visit[T any](tree *Tree, v Visitor[T]) (T, error) {
	memo := map[*Node]T{}
	root, err := visitNode(tree.Root, v, memo)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.VisitTree(tree, root)
}

func visitNode[T any](n *Node, v Visitor[T], memo map[*Node]T) (T, error) {
	if val, ok := memo[n]; ok {
		return val, nil
	}

	var val T
	var err error
	switch n.Kind() {
	case NodeKindEmptyLeaf:
		val, err = v.VisitEmptyLeaf(n)
	case NodeKindLeaf:
		val, err = v.VisitLeaf(n)
	default:
		alts := make([][]T, len(n.Alternatives))
		for i, alt := range n.Alternatives {
			alts[i] = make([]T, len(alt))
			for j, c := range alt {
				alts[i][j], err = visitNode(c, v, memo)
				if err != nil {
					return val, err
				}
			}
		}
		val, err = v.VisitBranch(n, alts)
	}
	if err != nil {
		return val, err
	}
	memo[n] = val
	return val, nil
}
