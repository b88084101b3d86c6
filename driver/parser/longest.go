package parser

import (
	"slices"

	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar/rule"
)

// noteLongest keeps the longest match of a named rule starting at the parse origin. The first
// one found wins a tie.
func (e *engine) noteLongest(c *complete) {
	if c.start != e.origin || c.rule.IsInternal() || c.rule.IsSkip {
		return
	}
	if e.longest == nil || c.len() > e.longest.len() {
		e.longest = c
	}
}

func (e *engine) reach(pos int) {
	if pos > e.furthest {
		e.furthest = pos
		e.missed = nil
	}
}

func (e *engine) miss(t *rule.Rule, pos int) {
	if pos < e.furthest {
		return
	}
	e.reach(pos)
	if !slices.Contains(e.missed, t) {
		e.missed = append(e.missed, t)
	}
}

// failure reports a parse that did not reach the end of the text.
func (e *engine) failure(goal *rule.Rule) (*ParseFailedError, error) {
	pos := max(e.furthest, 0)
	if e.longest != nil {
		pos = max(pos, e.longest.end)
	}
	err := &ParseFailedError{
		Goal:     goal.Name,
		Position: pos,
		Location: e.in.Location(pos),
	}
	if pos == e.furthest {
		err.Expected = slices.Clone(e.missed)
		slices.SortFunc(err.Expected, func(a, b *rule.Rule) int {
			return a.Number - b.Number
		})
	}
	if e.longest != nil {
		n, buildErr := newForestBuilder(e).node(e.longest)
		if buildErr != nil {
			return nil, buildErr
		}
		if n != nil {
			sppf.NewTree(n, e.in)
			err.Longest = n
		}
	}
	return err, nil
}
