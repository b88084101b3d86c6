// Package parser grows a shared packed parse forest over a text, driven directly by a compiled
// rule set.
//
// A parse runs in generations. Each generation grows every node of the previous one by one
// item: it matches terminals against the text, calls non-terminals through a graph-structured
// stack, and grafts completed matches onto their callers. Growth stops when a generation is
// empty. The text is never tokenized up front; terminals are matched where they are expected,
// and the skip rules of the grammar are matched before each terminal.
package parser

import (
	"context"
	"fmt"
	"slices"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar/rule"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	// Tree is nil when the parse failed.
	Tree *sppf.Tree

	// Failure is nil when the parse succeeded.
	Failure *ParseFailedError

	Stats Stats
}

func (r *Result) OK() bool {
	return r.Failure == nil
}

type Stats struct {
	Generations  int
	GrowingNodes int
	Completes    int

	// LongestHistory holds the length of the longest match after each generation, or -1
	// while there is none.
	LongestHistory []int
}

// Parse parses text as a match of the rule named goal.
func Parse(set *rule.Set, goal string, text string, opts ...ParserOption) (*Result, error) {
	return ParseContext(context.Background(), set, goal, text, opts...)
}

// ParseContext is Parse that stops when ctx is done.
func ParseContext(ctx context.Context, set *rule.Set, goal string, text string, opts ...ParserOption) (*Result, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	g, err := findGoal(set, goal)
	if err != nil {
		return nil, err
	}

	in := input.New(text)
	e := newEngine(set, in, cfg)
	if err := e.run(ctx, g, 0); err != nil {
		return nil, err
	}

	res := &Result{
		Stats: Stats{
			Generations:    e.generations,
			GrowingNodes:   len(e.arena),
			Completes:      e.completes.Len(),
			LongestHistory: e.history,
		},
	}

	root, err := e.root(ctx, g)
	if err != nil {
		return nil, err
	}
	if root != nil {
		res.Tree = sppf.NewTree(root, in)
		return res, nil
	}

	res.Failure, err = e.failure(g)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ParseAll parses every text concurrently against the same rule set. The results are in the
// order of the texts.
func ParseAll(ctx context.Context, set *rule.Set, goal string, texts []string, opts ...ParserOption) ([]*Result, error) {
	results := make([]*Result, len(texts))
	eg, ctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		eg.Go(func() error {
			res, err := ParseContext(ctx, set, goal, text, opts...)
			if err != nil {
				return fmt.Errorf("text #%v: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ExpectedAt returns the terminals that can follow the first position bytes of text in a match
// of goal, in rule-number order. Empty-match terminals are not included. The result is empty
// when the text cannot be parsed up to position.
func ExpectedAt(set *rule.Set, goal string, text string, position int, opts ...ParserOption) ([]*rule.Rule, error) {
	if position < 0 || position > len(text) {
		return nil, fmt.Errorf("position out of range: %v", position)
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	g, err := findGoal(set, goal)
	if err != nil {
		return nil, err
	}

	e := newEngine(set, input.New(text[:position]), cfg)
	e.atEnd = true
	if err := e.run(context.Background(), g, 0); err != nil {
		return nil, err
	}
	if e.furthest != position {
		return nil, nil
	}
	expected := slices.Clone(e.missed)
	slices.SortFunc(expected, func(a, b *rule.Rule) int {
		return a.Number - b.Number
	})
	return expected, nil
}

func findGoal(set *rule.Set, name string) (*rule.Rule, error) {
	r, ok := set.FindRule(name)
	if !ok || !r.IsNonTerminal() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownGoal, name)
	}
	return r, nil
}

// root returns the node matching the whole text, or nil. Skip content following a match of the
// goal is attached to the root.
func (e *engine) root(ctx context.Context, goal *rule.Rule) (*sppf.Node, error) {
	b := newForestBuilder(e)
	if c, ok := e.find(goal, 0, e.in.Len()); ok {
		n, err := b.node(c)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, &InternalError{Rule: goal.Name, Detail: "a match of the whole text without a derivation"}
		}
		return n, nil
	}

	for _, c := range e.matchesFrom(goal, 0) {
		m, err := e.skipAt(ctx, c.end)
		if err != nil {
			return nil, err
		}
		if m == nil || m.end != e.in.Len() {
			continue
		}
		n, err := b.node(c)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		root := &sppf.Node{
			Rule:  n.Rule,
			Start: n.Start,
			End:   m.end,
			Text:  e.in.Text(),
		}
		for _, alt := range n.Alternatives {
			root.Alternatives = append(root.Alternatives, append(slices.Clone(alt), m.nodes...))
		}
		return root, nil
	}
	return nil, nil
}
