// Package grammar describes a compiled rule set in a form that can be written as JSON or YAML.
package grammar

import (
	"github.com/dhakehurst/sppf/grammar/rule"
)

type Terminal struct {
	Number  int    `json:"number" yaml:"number"`
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Owner   string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

const (
	TerminalKindLiteral = "literal"
	TerminalKindPattern = "pattern"
	TerminalKindEmpty   = "empty"
)

type Item struct {
	Kind      string `json:"kind" yaml:"kind"`
	Items     []int  `json:"items" yaml:"items,flow"`
	Min       *int   `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *int   `json:"max,omitempty" yaml:"max,omitempty"`
	EmptyRule *int   `json:"empty_rule,omitempty" yaml:"empty_rule,omitempty"`
	Text      string `json:"text" yaml:"text"`
}

type NonTerminal struct {
	Number         int    `json:"number" yaml:"number"`
	Name           string `json:"name" yaml:"name"`
	Virtual        bool   `json:"virtual" yaml:"virtual"`
	Skip           bool   `json:"skip" yaml:"skip"`
	Owner          string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Nullable       bool   `json:"nullable" yaml:"nullable"`
	RHS            *Item  `json:"rhs" yaml:"rhs"`
	FirstTerminals []int  `json:"first_terminals" yaml:"first_terminals,flow"`
	SuperRules     []int  `json:"super_rules" yaml:"super_rules,flow"`
}

type Description struct {
	Name         string         `json:"name" yaml:"name"`
	SkipGoal     *int           `json:"skip_goal,omitempty" yaml:"skip_goal,omitempty"`
	Terminals    []*Terminal    `json:"terminals" yaml:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals" yaml:"non_terminals"`
}

// Describe lists every rule of the set in rule-number order.
func Describe(set *rule.Set) *Description {
	d := &Description{
		Name:         set.Name(),
		Terminals:    []*Terminal{},
		NonTerminals: []*NonTerminal{},
	}
	if g := set.SkipGoal(); g != nil {
		d.SkipGoal = ptr(g.Number)
	}
	for _, r := range set.Rules() {
		if r.IsTerminal() {
			d.Terminals = append(d.Terminals, describeTerminal(r))
			continue
		}
		d.NonTerminals = append(d.NonTerminals, &NonTerminal{
			Number:         r.Number,
			Name:           r.Name,
			Virtual:        r.IsVirtual,
			Skip:           r.IsSkip,
			Owner:          r.Owner,
			Nullable:       set.Nullable(r),
			RHS:            describeItem(r),
			FirstTerminals: numbers(set.PossibleFirstTerminals(r)),
			SuperRules:     numbers(set.PossibleSuperRules(r)),
		})
	}
	return d
}

func describeTerminal(r *rule.Rule) *Terminal {
	t := &Terminal{
		Number: r.Number,
		Name:   r.Name,
		Owner:  r.Owner,
	}
	switch {
	case r.IsEmptyTerminal:
		t.Kind = TerminalKindEmpty
	case r.IsPattern:
		t.Kind = TerminalKindPattern
		t.Value = r.Value
		t.Pattern = r.Value
	default:
		t.Kind = TerminalKindLiteral
		t.Value = r.Value
		t.Pattern = EscapePattern(r.Value)
	}
	return t
}

func describeItem(r *rule.Rule) *Item {
	it := r.RHS
	item := &Item{
		Kind:  it.Kind.String(),
		Items: numbers(it.Items),
		Text:  it.String(),
	}
	switch it.Kind {
	case rule.ItemKindMulti, rule.ItemKindSeparatedList:
		item.Min = ptr(it.Min)
		item.Max = ptr(it.Max)
	}
	if r.EmptyRule != nil {
		item.EmptyRule = ptr(r.EmptyRule.Number)
	}
	return item
}

func numbers(rules []*rule.Rule) []int {
	nums := make([]int, len(rules))
	for i, r := range rules {
		nums[i] = r.Number
	}
	return nums
}

func ptr(n int) *int {
	return &n
}

// Rule returns the description of the terminal or non-terminal named name.
func (d *Description) Rule(name string) (*Terminal, *NonTerminal, bool) {
	for _, t := range d.Terminals {
		if t.Name == name {
			return t, nil, true
		}
	}
	for _, n := range d.NonTerminals {
		if n.Name == name {
			return nil, n, true
		}
	}
	return nil, nil, false
}
