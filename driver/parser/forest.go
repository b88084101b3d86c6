package parser

import (
	"slices"

	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar/rule"
)

// forestBuilder turns the completes of an engine into SPPF nodes once growth has stopped.
type forestBuilder struct {
	e     *engine
	nodes map[*complete]*sppf.Node
	lists map[int][][]*sppf.Node

	// active holds the completes whose node is under construction. A derivation that refers
	// to one of them would make the node its own descendant and is dropped.
	active map[*complete]struct{}
}

func newForestBuilder(e *engine) *forestBuilder {
	return &forestBuilder{
		e:      e,
		nodes:  map[*complete]*sppf.Node{},
		lists:  map[int][][]*sppf.Node{},
		active: map[*complete]struct{}{},
	}
}

// node returns the node of c. It returns nil when every derivation of c was dropped, so a
// branch never comes out without children.
func (b *forestBuilder) node(c *complete) (*sppf.Node, error) {
	if n, ok := b.nodes[c]; ok {
		return n, nil
	}
	if _, ok := b.active[c]; ok {
		return nil, nil
	}
	n := &sppf.Node{
		Rule:  c.rule,
		Start: c.start,
		End:   c.end,
		Text:  b.e.in.Slice(c.start, c.end),
	}
	if c.leaf != nil {
		b.nodes[c] = n
		return n, nil
	}

	b.active[c] = struct{}{}
	defer delete(b.active, c)
	for _, h := range c.gns {
		lists, err := b.childLists(h)
		if err != nil {
			return nil, err
		}
		for _, l := range lists {
			if !containsList(n.Alternatives, l) {
				n.Alternatives = append(n.Alternatives, l)
			}
		}
	}
	if len(n.Alternatives) == 0 {
		return nil, nil
	}

	b.nodes[c] = n
	return n, nil
}

// childLists returns every child list the growing node h derives, or nothing when no
// derivation of h survives. A run of nodes with a single derivation is walked backwards, so
// an unambiguous chain costs time linear in its length.
func (b *forestBuilder) childLists(h int) ([][]*sppf.Node, error) {
	if lists, ok := b.lists[h]; ok {
		return lists, nil
	}

	// tail holds the children after cur, last first.
	var tail []*sppf.Node
	var heads [][]*sppf.Node
	cur := h
	for {
		if lists, ok := b.lists[cur]; ok {
			heads = lists
			break
		}
		gn := b.e.arena[cur]
		if len(gn.derivs) == 0 {
			heads = [][]*sppf.Node{nil}
			break
		}
		derivs, err := b.liveDerivations(gn)
		if err != nil {
			return nil, err
		}
		if len(derivs) == 0 {
			return nil, nil
		}
		if len(derivs) > 1 {
			heads, err = b.branchLists(cur, derivs)
			if err != nil {
				return nil, err
			}
			if len(heads) == 0 {
				return nil, nil
			}
			break
		}
		d := derivs[0]
		tail = append(tail, d.node)
		for i := len(d.skip) - 1; i >= 0; i-- {
			tail = append(tail, d.skip[i])
		}
		cur = d.prev
	}

	if len(tail) == 0 {
		b.lists[h] = heads
		return heads, nil
	}
	slices.Reverse(tail)
	lists := make([][]*sppf.Node, 0, len(heads))
	for _, head := range heads {
		l := make([]*sppf.Node, 0, len(head)+len(tail))
		l = append(l, head...)
		l = append(l, tail...)
		lists = append(lists, l)
	}
	b.lists[h] = lists
	return lists, nil
}

// branchLists returns the child lists of the growing node h, which has more than one live
// derivation.
func (b *forestBuilder) branchLists(h int, derivs []liveDerivation) ([][]*sppf.Node, error) {
	var lists [][]*sppf.Node
	for _, d := range derivs {
		prefixes, err := b.childLists(d.prev)
		if err != nil {
			return nil, err
		}
		for _, prefix := range prefixes {
			l := make([]*sppf.Node, 0, len(prefix)+len(d.skip)+1)
			l = append(l, prefix...)
			l = append(l, d.skip...)
			l = append(l, d.node)
			lists = append(lists, l)
		}
	}
	if len(lists) > 0 {
		b.lists[h] = lists
	}
	return lists, nil
}

type liveDerivation struct {
	derivation
	node *sppf.Node
}

// liveDerivations builds the child of every derivation of gn and drops the derivations whose
// child has no node, because it is under construction or lost all of its own derivations. Of
// the derivations of a priority choice, only those choosing the alternative with the highest
// priority remain.
func (b *forestBuilder) liveDerivations(gn *growingNode) ([]liveDerivation, error) {
	var derivs []liveDerivation
	for _, d := range gn.derivs {
		n, err := b.node(d.child)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		derivs = append(derivs, liveDerivation{
			derivation: d,
			node:       n,
		})
	}
	if gn.rule.RHS.Kind != rule.ItemKindPriorityChoice || len(derivs) < 2 {
		return derivs, nil
	}

	top := -1
	for _, d := range derivs {
		top = max(top, gn.rule.RHS.IndexOf(d.child.rule))
	}
	return slices.DeleteFunc(derivs, func(d liveDerivation) bool {
		return gn.rule.RHS.IndexOf(d.child.rule) != top
	}), nil
}

func containsList(lists [][]*sppf.Node, l []*sppf.Node) bool {
	for _, o := range lists {
		if slices.Equal(o, l) {
			return true
		}
	}
	return false
}
