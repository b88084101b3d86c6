package rule

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

type terminalKey struct {
	value   string
	pattern bool
}

type lazyRules struct {
	once  sync.Once
	rules []*Rule
}

// Set is the closed collection of the rules of a compiled grammar, including virtual rules
// and empty-match terminals. Rule numbers are dense: Set.Rule(n).Number == n.
type Set struct {
	name      string
	rules     []*Rule
	name2Num  map[string]int
	term2Num  map[terminalKey]int
	skipGoal  *Rule
	skipRules []*Rule

	nullable       []bool
	firstTerminals []*bitSet[int]
	firstTermRules [][]*Rule
	superRules     [][]*Rule

	subTerminals  []lazyRules
	subRules      []lazyRules
	firstSubRules []lazyRules
}

// NewSet builds a Set from rules that are already numbered. It compiles every pattern
// terminal and precomputes the possible-first-terminal and possible-super-rule caches.
func NewSet(name string, rules []*Rule, skipGoal *Rule) (*Set, error) {
	s := &Set{
		name:          name,
		rules:         rules,
		name2Num:      map[string]int{},
		term2Num:      map[terminalKey]int{},
		skipGoal:      skipGoal,
		subTerminals:  make([]lazyRules, len(rules)),
		subRules:      make([]lazyRules, len(rules)),
		firstSubRules: make([]lazyRules, len(rules)),
	}
	for i, r := range rules {
		if r == nil {
			return nil, fmt.Errorf("rule #%v is missing", i)
		}
		if r.Number != i {
			return nil, fmt.Errorf("rule numbers must be dense; rule: %v, index: %v", r.Name, i)
		}
		if r.IsTerminal() {
			if err := r.compilePattern(); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", r.Value, err)
			}
			if !r.IsEmptyTerminal {
				s.term2Num[terminalKey{value: r.Value, pattern: r.IsPattern}] = r.Number
			}
		}
		if _, ok := s.name2Num[r.Name]; !ok {
			s.name2Num[r.Name] = r.Number
		}
		if r.IsSkip {
			s.skipRules = append(s.skipRules, r)
		}
		if r.IsNonTerminal() && r.RHS == nil {
			return nil, fmt.Errorf("a non-terminal rule needs a right-hand side; rule: %v", r.Name)
		}
	}
	if skipGoal != nil && (skipGoal.Number >= len(rules) || rules[skipGoal.Number] != skipGoal) {
		return nil, fmt.Errorf("the skip goal is not a member of the rule set")
	}

	s.genNullable()
	s.genFirstTerminals()
	s.genSuperRules()

	return s, nil
}

func (s *Set) Name() string {
	return s.name
}

func (s *Set) Len() int {
	return len(s.rules)
}

// Rule returns the rule with the number num, or nil.
func (s *Set) Rule(num int) *Rule {
	if num < 0 || num >= len(s.rules) {
		return nil
	}
	return s.rules[num]
}

func (s *Set) Rules() []*Rule {
	rules := make([]*Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *Set) FindRule(name string) (*Rule, bool) {
	num, ok := s.name2Num[name]
	if !ok {
		return nil, false
	}
	return s.rules[num], true
}

// FindTerminal looks up a terminal by its literal value or its pattern.
func (s *Set) FindTerminal(value string, pattern bool) (*Rule, bool) {
	num, ok := s.term2Num[terminalKey{value: value, pattern: pattern}]
	if !ok {
		return nil, false
	}
	return s.rules[num], true
}

// SkipGoal returns the synthesized rule matching a run of skip content, or nil when the
// grammar declares no skip rule.
func (s *Set) SkipGoal() *Rule {
	return s.skipGoal
}

func (s *Set) SkipRules() []*Rule {
	return s.skipRules
}

func (s *Set) Nullable(r *Rule) bool {
	return s.nullable[r.Number]
}

// PossibleFirstTerminals returns the terminals a match of r can begin with, in rule-number
// order. Empty-match terminals are members when r can match the empty string.
func (s *Set) PossibleFirstTerminals(r *Rule) []*Rule {
	return s.firstTermRules[r.Number]
}

// CanStartWith reports whether t is one of the possible first terminals of r.
func (s *Set) CanStartWith(r *Rule, t *Rule) bool {
	return s.firstTerminals[r.Number].has(t.Number)
}

// PossibleSuperRules returns the rules whose right-hand side refers to r directly.
func (s *Set) PossibleSuperRules(r *Rule) []*Rule {
	return s.superRules[r.Number]
}

// PossibleSubTerminals returns every terminal reachable from r.
func (s *Set) PossibleSubTerminals(r *Rule) []*Rule {
	e := &s.subTerminals[r.Number]
	e.once.Do(func() {
		reach := s.reach(r, false)
		e.rules = s.filter(reach, func(c *Rule) bool {
			return c.IsTerminal()
		})
	})
	return e.rules
}

// PossibleSubRules returns every non-terminal reachable from r. r itself is a member only
// when it is recursive.
func (s *Set) PossibleSubRules(r *Rule) []*Rule {
	e := &s.subRules[r.Number]
	e.once.Do(func() {
		reach := s.reach(r, false)
		e.rules = s.filter(reach, func(c *Rule) bool {
			return c.IsNonTerminal()
		})
	})
	return e.rules
}

// PossibleFirstSubRules returns every non-terminal that can begin a match of r.
func (s *Set) PossibleFirstSubRules(r *Rule) []*Rule {
	e := &s.firstSubRules[r.Number]
	e.once.Do(func() {
		reach := s.reach(r, true)
		e.rules = s.filter(reach, func(c *Rule) bool {
			return c.IsNonTerminal()
		})
	})
	return e.rules
}

// Warm fills every lazily computed cache. Parses never need to call it; it only moves the
// cost of the caches to a point the caller chooses.
func (s *Set) Warm(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, r := range s.rules {
		r := r
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.PossibleSubTerminals(r)
			s.PossibleSubRules(r)
			s.PossibleFirstSubRules(r)
			return nil
		})
	}
	return eg.Wait()
}

func (s *Set) filter(bs *bitSet[int], pred func(r *Rule) bool) []*Rule {
	var rules []*Rule
	bs.each(func(num int) {
		if r := s.rules[num]; pred(r) {
			rules = append(rules, r)
		}
	})
	return rules
}

// reach collects the rules reachable from r through right-hand sides. When firstOnly is true,
// only items that can begin a match are followed.
func (s *Set) reach(r *Rule, firstOnly bool) *bitSet[int] {
	visited := newBitSet[int](len(s.rules))
	stack := []*Rule{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var next []*Rule
		if firstOnly {
			next = s.firstItems(cur)
		} else {
			next = s.allItems(cur)
		}
		for _, c := range next {
			if visited.add(c.Number) {
				stack = append(stack, c)
			}
		}
	}
	return visited
}

func (s *Set) allItems(r *Rule) []*Rule {
	if r.RHS == nil {
		return nil
	}
	items := r.RHS.Items
	if r.EmptyRule != nil {
		items = append(append([]*Rule{}, items...), r.EmptyRule)
	}
	return items
}

// firstItems returns the items of r that can appear leftmost in a match of r.
func (s *Set) firstItems(r *Rule) []*Rule {
	if r.RHS == nil {
		return nil
	}
	var items []*Rule
	switch r.RHS.Kind {
	case ItemKindEmpty, ItemKindChoice, ItemKindPriorityChoice:
		items = append(items, r.RHS.Items...)
	case ItemKindConcatenation:
		for _, c := range r.RHS.Items {
			items = append(items, c)
			if !s.nullable[c.Number] {
				break
			}
		}
	case ItemKindMulti:
		items = append(items, r.RHS.Item())
	case ItemKindSeparatedList:
		items = append(items, r.RHS.Item())
		if s.nullable[r.RHS.Item().Number] {
			items = append(items, r.RHS.Separator())
		}
	}
	if r.EmptyRule != nil {
		items = append(items, r.EmptyRule)
	}
	return items
}

func (s *Set) genNullable() {
	s.nullable = make([]bool, len(s.rules))
	for {
		changed := false
		for _, r := range s.rules {
			if s.nullable[r.Number] {
				continue
			}
			if s.isNullable(r) {
				s.nullable[r.Number] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

func (s *Set) isNullable(r *Rule) bool {
	if r.IsTerminal() {
		return r.IsEmptyTerminal
	}
	it := r.RHS
	switch it.Kind {
	case ItemKindEmpty:
		return true
	case ItemKindChoice, ItemKindPriorityChoice:
		for _, c := range it.Items {
			if s.nullable[c.Number] {
				return true
			}
		}
		return false
	case ItemKindConcatenation:
		for _, c := range it.Items {
			if !s.nullable[c.Number] {
				return false
			}
		}
		return true
	case ItemKindMulti:
		return it.Min == 0 || s.nullable[it.Item().Number]
	case ItemKindSeparatedList:
		if it.Min == 0 {
			return true
		}
		return s.nullable[it.Item().Number] && (it.Min == 1 || s.nullable[it.Separator().Number])
	}
	return false
}

func (s *Set) genFirstTerminals() {
	s.firstTerminals = make([]*bitSet[int], len(s.rules))
	for _, r := range s.rules {
		s.firstTerminals[r.Number] = newBitSet[int](len(s.rules))
		if r.IsTerminal() {
			s.firstTerminals[r.Number].add(r.Number)
		}
	}
	for {
		changed := false
		for _, r := range s.rules {
			if r.IsTerminal() {
				continue
			}
			acc := s.firstTerminals[r.Number]
			for _, c := range s.firstItems(r) {
				if acc.union(s.firstTerminals[c.Number]) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	s.firstTermRules = make([][]*Rule, len(s.rules))
	for _, r := range s.rules {
		s.firstTermRules[r.Number] = s.filter(s.firstTerminals[r.Number], func(c *Rule) bool {
			return true
		})
	}
}

func (s *Set) genSuperRules() {
	s.superRules = make([][]*Rule, len(s.rules))
	for _, r := range s.rules {
		seen := map[int]struct{}{}
		for _, c := range s.allItems(r) {
			if _, ok := seen[c.Number]; ok {
				continue
			}
			seen[c.Number] = struct{}{}
			s.superRules[c.Number] = append(s.superRules[c.Number], r)
		}
	}
}
