package grammar

import "github.com/dhakehurst/sppf/grammar/rule"

// Grammar is a declarative grammar. It is what the compiler consumes; the grammar source
// language produces one through GrammarBuilder, and programs can also build one directly.
type Grammar struct {
	Namespace string
	Name      string
	Extends   []*Grammar
	Rules     []*Rule
}

// QualifiedName returns the name of the grammar prefixed with its namespace.
func (g *Grammar) QualifiedName() string {
	if g.Namespace == "" {
		return g.Name
	}
	return g.Namespace + "." + g.Name
}

type Position struct {
	Row int
	Col int
}

type Rule struct {
	Name   string
	IsSkip bool
	RHS    *Choice
	Pos    Position
}

// RuleItem is one of *Choice, *Concatenation, *Group, *Multi, *SeparatedList, *NonTerminal,
// and *Terminal.
type RuleItem interface {
	isRuleItem()
}

// Choice is the right-hand side of a rule and the content of a group. A choice with a single
// alternative is a plain concatenation.
type Choice struct {
	Priority     bool
	Alternatives []*Concatenation
}

type Concatenation struct {
	Items []RuleItem
}

type Group struct {
	Choice *Choice
}

type Multi struct {
	Min  int
	Max  int
	Item RuleItem
}

type SeparatedList struct {
	Min       int
	Max       int
	Item      RuleItem
	Separator RuleItem
}

type NonTerminal struct {
	Name string
	Pos  Position
}

type Terminal struct {
	Value     string
	IsPattern bool
	Pos       Position
}

func (*Choice) isRuleItem()        {}
func (*Concatenation) isRuleItem() {}
func (*Group) isRuleItem()         {}
func (*Multi) isRuleItem()         {}
func (*SeparatedList) isRuleItem() {}
func (*NonTerminal) isRuleItem()   {}
func (*Terminal) isRuleItem()      {}

// Unbounded is the maximum of a repetition without an upper bound.
const Unbounded = rule.Unbounded

// The following constructors keep grammars written in Go terse.

func NewRule(name string, alts ...*Concatenation) *Rule {
	return &Rule{
		Name: name,
		RHS: &Choice{
			Alternatives: alts,
		},
	}
}

func NewPriorityRule(name string, alts ...*Concatenation) *Rule {
	return &Rule{
		Name: name,
		RHS: &Choice{
			Priority:     true,
			Alternatives: alts,
		},
	}
}

func NewSkipRule(name string, alts ...*Concatenation) *Rule {
	r := NewRule(name, alts...)
	r.IsSkip = true
	return r
}

func Concat(items ...RuleItem) *Concatenation {
	return &Concatenation{
		Items: items,
	}
}

func Ref(name string) *NonTerminal {
	return &NonTerminal{
		Name: name,
	}
}

func Literal(value string) *Terminal {
	return &Terminal{
		Value: value,
	}
}

func Pattern(pattern string) *Terminal {
	return &Terminal{
		Value:     pattern,
		IsPattern: true,
	}
}

func NewGroup(alts ...*Concatenation) *Group {
	return &Group{
		Choice: &Choice{
			Alternatives: alts,
		},
	}
}

func NewMulti(min, max int, item RuleItem) *Multi {
	return &Multi{
		Min:  min,
		Max:  max,
		Item: item,
	}
}

func NewSeparatedList(min, max int, item, sep RuleItem) *SeparatedList {
	return &SeparatedList{
		Min:       min,
		Max:       max,
		Item:      item,
		Separator: sep,
	}
}
