package parser

import (
	"context"
	"fmt"
	"slices"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/tidwall/btree"
)

const (
	// noHandle marks the absence of a growing node: the caller of the goal, or the predecessor
	// of a first child.
	noHandle = -1

	// indexEmptyMatch is the item index of a repetition that matched its empty-match terminal.
	indexEmptyMatch = -1
)

// growingNode is a partial match of a rule. Its identity is the rule, the start, the next
// input position, and the next item index. Each derivation is one way of reaching that
// identity.
type growingNode struct {
	rule   *rule.Rule
	start  int
	pos    int
	index  int
	derivs []derivation
}

type growingNodeKey struct {
	rule  int
	start int
	pos   int
	index int
}

// derivation appends child, preceded by skip, to the growing node prev.
type derivation struct {
	prev  int
	skip  []*sppf.Node
	child *complete
}

// complete is a finished match of a rule over [start, end). A terminal match wraps a leaf; a
// non-terminal match lists the growing nodes that completed it.
type complete struct {
	rule  *rule.Rule
	start int
	end   int
	leaf  *input.Leaf
	gns   []int
}

func (c *complete) len() int {
	return c.end - c.start
}

func completeLess(a, b *complete) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	if a.end != b.end {
		return a.end < b.end
	}
	return a.rule.Number < b.rule.Number
}

type stackKey struct {
	rule int
	pos  int
}

// stackNode is the graph-structured stack entry of a call of a rule at a position. Callers
// wait for the completes of the call; popped holds the completes found so far so that a late
// caller receives them too.
type stackNode struct {
	callers []int
	popped  []*complete
}

type skipMatch struct {
	end   int
	nodes []*sppf.Node
}

type engine struct {
	set *rule.Set
	in  *input.Input
	cfg *config

	// skipper matches the skip goal. It is nil when skipping is off.
	skipper *engine
	skips   map[int]*skipMatch

	arena     []*growingNode
	index     map[growingNodeKey]int
	stacks    map[stackKey]*stackNode
	pruned    map[stackKey]bool
	completes *btree.BTreeG[*complete]
	leaves    map[*input.Leaf]*complete

	current []int
	next    []int

	origin  int
	longest *complete
	history []int

	furthest int
	missed   []*rule.Rule

	// atEnd keeps calls at the end of the text alive, so that every terminal expected there
	// is tried.
	atEnd bool

	generations int
}

func newEngine(set *rule.Set, in *input.Input, cfg *config) *engine {
	e := &engine{
		set:       set,
		in:        in,
		cfg:       cfg,
		skips:     map[int]*skipMatch{},
		index:     map[growingNodeKey]int{},
		stacks:    map[stackKey]*stackNode{},
		pruned:    map[stackKey]bool{},
		completes: btree.NewBTreeG[*complete](completeLess),
		leaves:    map[*input.Leaf]*complete{},
	}
	if !cfg.disableSkip && set.SkipGoal() != nil {
		e.skipper = &engine{
			set: set,
			in:  in,
			cfg: &config{
				maxGenerations: cfg.maxGenerations,
				logger:         cfg.logger,
				disableSkip:    true,
			},
			skips:     map[int]*skipMatch{},
			index:     map[growingNodeKey]int{},
			stacks:    map[stackKey]*stackNode{},
			pruned:    map[stackKey]bool{},
			completes: btree.NewBTreeG[*complete](completeLess),
			leaves:    map[*input.Leaf]*complete{},
		}
	}
	return e
}

// run grows the rule r from pos until a generation produces no growing node.
func (e *engine) run(ctx context.Context, r *rule.Rule, pos int) error {
	e.origin = pos
	if err := e.call(ctx, r, noHandle, pos); err != nil {
		return err
	}
	return e.grow(ctx)
}

func (e *engine) grow(ctx context.Context) error {
	for len(e.current) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.generations++
		if e.cfg.maxGenerations > 0 && e.generations > e.cfg.maxGenerations {
			return ErrGenerationLimit
		}

		// Nodes that do not consume input are appended to the current generation and
		// processed in this loop.
		for i := 0; i < len(e.current); i++ {
			if err := e.process(ctx, e.current[i]); err != nil {
				return err
			}
		}

		longest := -1
		if e.longest != nil {
			longest = e.longest.len()
		}
		e.history = append(e.history, longest)
		e.cfg.logger.Debug("generation",
			"number", e.generations,
			"size", len(e.current),
			"next", len(e.next),
			"longest", longest)

		e.current, e.next = e.next, nil
	}
	return nil
}

func (e *engine) growingNode(r *rule.Rule, start, pos, index int) (int, bool) {
	key := growingNodeKey{
		rule:  r.Number,
		start: start,
		pos:   pos,
		index: index,
	}
	if h, ok := e.index[key]; ok {
		return h, false
	}
	h := len(e.arena)
	e.arena = append(e.arena, &growingNode{
		rule:  r,
		start: start,
		pos:   pos,
		index: index,
	})
	e.index[key] = h
	return h, true
}

func (e *engine) process(ctx context.Context, h int) error {
	gn := e.arena[h]
	done, err := isComplete(gn)
	if err != nil {
		return err
	}
	if done {
		e.complete(h)
	}
	for _, x := range expectedItems(gn) {
		if x.IsTerminal() {
			err = e.consume(ctx, h, x)
		} else {
			err = e.call(ctx, x, h, gn.pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// call makes caller wait for the completes of r at pos.
func (e *engine) call(ctx context.Context, r *rule.Rule, caller int, pos int) error {
	key := stackKey{
		rule: r.Number,
		pos:  pos,
	}
	st, ok := e.stacks[key]
	if !ok {
		pruned, err := e.prune(ctx, r, pos)
		if err != nil {
			return err
		}
		if pruned {
			return nil
		}
		st = &stackNode{}
		e.stacks[key] = st
		h, _ := e.growingNode(r, pos, pos, 0)
		e.current = append(e.current, h)
	}
	if caller == noHandle || slices.Contains(st.callers, caller) {
		return nil
	}
	st.callers = append(st.callers, caller)
	for i := 0; i < len(st.popped); i++ {
		e.advance(caller, st.popped[i], nil)
	}
	return nil
}

// prune reports whether no match of r can begin at pos. A rule the engine cannot grow is an
// InternalError.
func (e *engine) prune(ctx context.Context, r *rule.Rule, pos int) (bool, error) {
	key := stackKey{
		rule: r.Number,
		pos:  pos,
	}
	if p, ok := e.pruned[key]; ok {
		return p, nil
	}
	if err := checkRule(r); err != nil {
		return false, err
	}
	sp := pos
	m, err := e.skipAt(ctx, pos)
	if err != nil {
		return false, err
	}
	if m != nil {
		sp = m.end
	}
	pruned := true
	if e.atEnd && e.in.IsEnd(sp) {
		pruned = false
	}
	for _, t := range e.set.PossibleFirstTerminals(r) {
		if !pruned {
			break
		}
		if t.IsEmptyTerminal {
			pruned = false
			break
		}
		if leaf := e.in.Match(t, sp); leaf != nil {
			pruned = false
			break
		}
		e.miss(t, sp)
	}
	e.pruned[key] = pruned
	return pruned, nil
}

// consume matches the terminal t after the growing node h. A non-empty terminal is matched
// after the longest skip at the position, and the skip nodes go with the leaf.
func (e *engine) consume(ctx context.Context, h int, t *rule.Rule) error {
	gn := e.arena[h]
	if t.IsEmptyTerminal {
		if leaf := e.in.Match(t, gn.pos); leaf != nil {
			e.advance(h, e.leafComplete(leaf), nil)
		}
		return nil
	}

	sp := gn.pos
	var skip []*sppf.Node
	m, err := e.skipAt(ctx, gn.pos)
	if err != nil {
		return err
	}
	if m != nil {
		sp = m.end
		skip = m.nodes
	}
	leaf := e.in.Match(t, sp)
	if leaf == nil {
		e.miss(t, sp)
		return nil
	}
	e.reach(leaf.End)
	e.advance(h, e.leafComplete(leaf), skip)
	return nil
}

func (e *engine) leafComplete(leaf *input.Leaf) *complete {
	if c, ok := e.leaves[leaf]; ok {
		return c
	}
	c := &complete{
		rule:  leaf.Terminal,
		start: leaf.Start,
		end:   leaf.End,
		leaf:  leaf,
	}
	e.leaves[leaf] = c
	return c
}

// advance grows the node h by child. The grown node is merged into an existing node of the
// same identity, or scheduled when it is new.
func (e *engine) advance(h int, child *complete, skip []*sppf.Node) {
	gn := e.arena[h]
	width := child.end - gn.pos
	idx, ok := nextIndex(gn, child, width)
	if !ok {
		return
	}
	nh, created := e.growingNode(gn.rule, gn.start, child.end, idx)
	ngn := e.arena[nh]
	for _, d := range ngn.derivs {
		if d.prev == h && d.child == child {
			return
		}
	}
	ngn.derivs = append(ngn.derivs, derivation{
		prev:  h,
		skip:  skip,
		child: child,
	})
	if !created {
		return
	}
	if width > 0 {
		e.next = append(e.next, nh)
	} else {
		e.current = append(e.current, nh)
	}
}

// complete records the match of the growing node h and grafts it onto every caller.
func (e *engine) complete(h int) {
	gn := e.arena[h]
	key := &complete{
		rule:  gn.rule,
		start: gn.start,
		end:   gn.pos,
	}
	c, ok := e.completes.Get(key)
	if ok {
		if !slices.Contains(c.gns, h) {
			c.gns = append(c.gns, h)
		}
		return
	}
	c = key
	c.gns = []int{h}
	e.completes.Set(c)
	e.noteLongest(c)

	st := e.stacks[stackKey{rule: gn.rule.Number, pos: gn.start}]
	st.popped = append(st.popped, c)
	for _, caller := range st.callers {
		e.advance(caller, c, nil)
	}
}

// find returns the complete of r over [start, end).
func (e *engine) find(r *rule.Rule, start, end int) (*complete, bool) {
	return e.completes.Get(&complete{
		rule:  r,
		start: start,
		end:   end,
	})
}

// matchesFrom returns the completes of r starting at start, the longest first.
func (e *engine) matchesFrom(r *rule.Rule, start int) []*complete {
	var cs []*complete
	e.completes.Ascend(&complete{rule: r, start: start, end: start}, func(c *complete) bool {
		if c.start != start {
			return false
		}
		if c.rule == r {
			cs = append(cs, c)
		}
		return true
	})
	slices.Reverse(cs)
	return cs
}

// skipAt returns the longest skip at pos, or nil when there is none.
func (e *engine) skipAt(ctx context.Context, pos int) (*skipMatch, error) {
	if e.skipper == nil {
		return nil, nil
	}
	if m, ok := e.skips[pos]; ok {
		return m, nil
	}
	m, err := e.skipper.skipFrom(ctx, pos)
	if err != nil {
		return nil, err
	}
	e.skips[pos] = m
	return m, nil
}

// skipFrom grows the skip goal from pos. The generation limit applies to each skip region.
func (e *engine) skipFrom(ctx context.Context, pos int) (*skipMatch, error) {
	goal := e.set.SkipGoal()
	e.generations = 0
	if err := e.call(ctx, goal, noHandle, pos); err != nil {
		return nil, err
	}
	if err := e.grow(ctx); err != nil {
		return nil, err
	}
	for _, c := range e.matchesFrom(goal, pos) {
		if c.len() == 0 {
			continue
		}
		root, err := newForestBuilder(e).node(c)
		if err != nil {
			return nil, err
		}
		if root == nil {
			continue
		}
		m := &skipMatch{
			end: c.end,
		}
		for _, n := range root.Children() {
			if n.Name() == rule.NameSkipChoice {
				m.nodes = append(m.nodes, n.Children()...)
				continue
			}
			m.nodes = append(m.nodes, n)
		}
		return m, nil
	}
	return nil, nil
}

// checkRule reports a non-terminal the engine cannot grow.
func checkRule(r *rule.Rule) error {
	if r.IsTerminal() {
		return nil
	}
	if r.RHS == nil {
		return &InternalError{Rule: r.Name, Detail: "a non-terminal without a right-hand side"}
	}
	switch r.RHS.Kind {
	case rule.ItemKindEmpty, rule.ItemKindChoice, rule.ItemKindPriorityChoice,
		rule.ItemKindConcatenation, rule.ItemKindMulti, rule.ItemKindSeparatedList:
		return nil
	}
	return &InternalError{Rule: r.Name, Detail: fmt.Sprintf("unknown item kind: %v", r.RHS.Kind)}
}

func isComplete(gn *growingNode) (bool, error) {
	if err := checkRule(gn.rule); err != nil {
		return false, err
	}
	it := gn.rule.RHS
	k := gn.index
	switch it.Kind {
	case rule.ItemKindEmpty, rule.ItemKindChoice, rule.ItemKindPriorityChoice:
		return k == 1, nil
	case rule.ItemKindConcatenation:
		return k == len(it.Items), nil
	case rule.ItemKindMulti:
		return k == indexEmptyMatch || (k >= 1 && k >= it.Min), nil
	case rule.ItemKindSeparatedList:
		return k == indexEmptyMatch || (k%2 == 1 && (k+1)/2 >= it.Min), nil
	}
	return false, nil
}

// expectedItems returns the rules that can follow the growing node. The kind was checked by
// isComplete.
func expectedItems(gn *growingNode) []*rule.Rule {
	it := gn.rule.RHS
	k := gn.index
	switch it.Kind {
	case rule.ItemKindEmpty, rule.ItemKindChoice, rule.ItemKindPriorityChoice:
		if k == 0 {
			return it.Items
		}
	case rule.ItemKindConcatenation:
		if k < len(it.Items) {
			return it.Items[k : k+1]
		}
	case rule.ItemKindMulti:
		if k < 0 {
			return nil
		}
		var items []*rule.Rule
		if k == 0 && gn.rule.EmptyRule != nil {
			items = append(items, gn.rule.EmptyRule)
		}
		if it.Max == rule.Unbounded || k < it.Max {
			items = append(items, it.Item())
		}
		return items
	case rule.ItemKindSeparatedList:
		if k < 0 {
			return nil
		}
		var items []*rule.Rule
		if k == 0 && gn.rule.EmptyRule != nil {
			items = append(items, gn.rule.EmptyRule)
		}
		if k%2 == 0 {
			if it.Max == rule.Unbounded || k/2 < it.Max {
				items = append(items, it.Item())
			}
		} else {
			if it.Max == rule.Unbounded || (k+1)/2 < it.Max {
				items = append(items, it.Separator())
			}
		}
		return items
	}
	return nil
}

// nextIndex returns the item index after gn grows by child. A repetition accepts a child that
// consumes nothing only while it is below its minimum, or at its first item.
func nextIndex(gn *growingNode, child *complete, width int) (int, bool) {
	it := gn.rule.RHS
	k := gn.index
	switch it.Kind {
	case rule.ItemKindEmpty, rule.ItemKindChoice, rule.ItemKindPriorityChoice:
		return 1, k == 0
	case rule.ItemKindConcatenation:
		return k + 1, k < len(it.Items)
	case rule.ItemKindMulti:
		if k == 0 && gn.rule.EmptyRule != nil && child.rule == gn.rule.EmptyRule {
			return indexEmptyMatch, true
		}
		if k < 0 || width == 0 && k >= max(it.Min, 1) {
			return 0, false
		}
		return k + 1, it.Max == rule.Unbounded || k < it.Max
	case rule.ItemKindSeparatedList:
		if k == 0 && gn.rule.EmptyRule != nil && child.rule == gn.rule.EmptyRule {
			return indexEmptyMatch, true
		}
		if k < 0 || width == 0 && k >= 2*max(it.Min, 1)-1 {
			return 0, false
		}
		return k + 1, true
	}
	return 0, false
}
