// Package semantic turns a parse forest into values of the caller's choosing.
//
// A Transformer holds a table of handlers keyed by rule name. It folds the forest bottom-up:
// each leaf is passed to the handler of its terminal, and each branch to the handler of its
// rule together with the values of its children. Skip nodes and empty leaves are left out of
// the children, and a branch of a rule the compiler synthesized (a group, a repetition, a
// separated list) without a handler of its own hands its children up to its parent.
package semantic

import (
	"errors"
	"fmt"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/driver/sppf"
)

var (
	ErrAmbiguous = errors.New("ambiguous node")
	ErrNoHandler = errors.New("no handler")
)

type AmbiguityPolicy int

const (
	// AmbiguityFirst uses the first alternative of an ambiguous node.
	AmbiguityFirst AmbiguityPolicy = iota

	// AmbiguityError fails on an ambiguous node.
	AmbiguityError
)

// Context gives handlers access to the tree being transformed.
type Context struct {
	Tree *sppf.Tree
}

func (c *Context) Location(n *sppf.Node) input.Location {
	return n.Location(c.Tree.Input)
}

type BranchHandler[T any] func(c *Context, n *sppf.Node, children []T) (T, error)

type LeafHandler[T any] func(c *Context, n *sppf.Node) (T, error)

type Transformer[T any] struct {
	branches map[string]BranchHandler[T]
	leaves   map[string]LeafHandler[T]

	// DefaultBranch handles a branch without a handler. When nil, a branch with a single child
	// takes the value of the child, and any other branch is an error.
	DefaultBranch BranchHandler[T]

	// DefaultLeaf handles a leaf without a handler. When nil, the value is the zero value.
	DefaultLeaf LeafHandler[T]

	Ambiguity AmbiguityPolicy

	// KeepSkip passes skip nodes to the handlers as children.
	KeepSkip bool

	// KeepInternal handles the branches of synthesized rules like any other branch and passes
	// empty leaves as children.
	KeepInternal bool
}

func NewTransformer[T any]() *Transformer[T] {
	return &Transformer[T]{
		branches: map[string]BranchHandler[T]{},
		leaves:   map[string]LeafHandler[T]{},
	}
}

// OnBranch registers the handler of the rule named name.
func (t *Transformer[T]) OnBranch(name string, h BranchHandler[T]) *Transformer[T] {
	t.branches[name] = h
	return t
}

// OnLeaf registers the handler of the terminal named name, such as `'+'` or `"[0-9]+"`.
func (t *Transformer[T]) OnLeaf(name string, h LeafHandler[T]) *Transformer[T] {
	t.leaves[name] = h
	return t
}

// Transform folds the tree into a value. Every alternative of an ambiguous node is folded,
// whatever the policy.
func (t *Transformer[T]) Transform(tree *sppf.Tree) (T, error) {
	v := &visitor[T]{
		t: t,
		c: &Context{
			Tree: tree,
		},
	}
	vals, err := sppf.Visit[[]T](tree, v)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(vals) != 1 {
		var zero T
		return zero, fmt.Errorf("the root must fold into one value: got %v", len(vals))
	}
	return vals[0], nil
}

// visitor folds each node into a slice: a single value, or the spliced children of a
// synthesized branch.
type visitor[T any] struct {
	t *Transformer[T]
	c *Context
}

func (v *visitor[T]) VisitTree(tree *sppf.Tree, root []T) ([]T, error) {
	return root, nil
}

func (v *visitor[T]) VisitLeaf(n *sppf.Node) ([]T, error) {
	h, ok := v.t.leaves[n.Name()]
	if !ok {
		h = v.t.DefaultLeaf
	}
	if h == nil {
		var zero T
		return []T{zero}, nil
	}
	val, err := h(v.c, n)
	if err != nil {
		return nil, err
	}
	return []T{val}, nil
}

func (v *visitor[T]) VisitEmptyLeaf(n *sppf.Node) ([]T, error) {
	if !v.t.KeepInternal {
		return nil, nil
	}
	return v.VisitLeaf(n)
}

func (v *visitor[T]) VisitBranch(n *sppf.Node, alternatives [][][]T) ([]T, error) {
	if len(alternatives) > 1 && v.t.Ambiguity == AmbiguityError {
		loc := v.c.Location(n)
		return nil, fmt.Errorf("%w: %v at %v:%v has %v alternatives", ErrAmbiguous, n.Name(), loc.Line, loc.Column, len(alternatives))
	}
	var children []T
	if len(alternatives) > 0 {
		for i, vals := range alternatives[0] {
			if n.Alternatives[0][i].IsSkip() && !v.t.KeepSkip {
				continue
			}
			children = append(children, vals...)
		}
	}

	h, ok := v.t.branches[n.Name()]
	if !ok && n.Rule.IsInternal() && !v.t.KeepInternal {
		return children, nil
	}
	if !ok {
		h = v.t.DefaultBranch
	}
	if h == nil {
		if len(children) == 1 {
			return children, nil
		}
		return nil, fmt.Errorf("%w: %v has %v children", ErrNoHandler, n.Name(), len(children))
	}
	val, err := h(v.c, n, children)
	if err != nil {
		return nil, err
	}
	return []T{val}, nil
}
