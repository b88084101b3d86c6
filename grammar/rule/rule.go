// Package rule implements the compiled, number-indexed representation of a grammar.
// A Set is built once by the grammar compiler and is read-only afterwards, so a single
// Set may be shared by any number of concurrent parses.
package rule

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind string

const (
	KindTerminal    = Kind("terminal")
	KindNonTerminal = Kind("non-terminal")
)

func (k Kind) String() string {
	return string(k)
}

type ItemKind string

const (
	ItemKindEmpty          = ItemKind("empty")
	ItemKindChoice         = ItemKind("choice")
	ItemKindPriorityChoice = ItemKind("priority-choice")
	ItemKindConcatenation  = ItemKind("concatenation")
	ItemKindMulti          = ItemKind("multi")
	ItemKindSeparatedList  = ItemKind("separated-list")
)

func (k ItemKind) String() string {
	return string(k)
}

// Unbounded is the value of Item.Max when a repetition has no upper bound.
const Unbounded = -1

// Names of the rules the compiler synthesizes. They all start with `§`, which cannot
// appear in a user-defined rule name.
const (
	VirtualPrefix   = "§"
	NameEmpty       = "§EMPTY"
	NameEmptyMatch  = "§empty"
	NameSkipGoal    = "§skip"
	NameSkipChoice  = "§skip§choice"
	emptyNamePrefix = "§empty."
)

// EmptyTerminalName returns the name of the empty-match terminal synthesized for a rule.
func EmptyTerminalName(owner string) string {
	return emptyNamePrefix + owner
}

type Rule struct {
	Number int
	Kind   Kind
	Name   string

	// Value is a literal text or a pattern of a terminal.
	Value     string
	IsPattern bool

	IsSkip bool

	// IsEmptyTerminal is true when the rule is a synthesized terminal matching the empty string.
	IsEmptyTerminal bool

	// IsVirtual is true when the rule was synthesized for an anonymous construct (a group,
	// an inline concatenation, a repetition, or a separated list).
	IsVirtual bool

	// Owner is the name of the declared rule that a synthesized rule was created for.
	Owner string

	RHS *Item

	// EmptyRule is the empty-match terminal of a repetition or a separated list whose
	// minimum is zero.
	EmptyRule *Rule

	pattern *regexp.Regexp
}

func (r *Rule) IsTerminal() bool {
	return r.Kind == KindTerminal
}

func (r *Rule) IsNonTerminal() bool {
	return r.Kind == KindNonTerminal
}

// IsInternal reports whether the rule is one the compiler synthesized rather than a rule
// a grammar author named.
func (r *Rule) IsInternal() bool {
	return r.IsVirtual || r.IsEmptyTerminal || strings.HasPrefix(r.Name, VirtualPrefix)
}

func (r *Rule) String() string {
	if r.IsTerminal() {
		return r.Name
	}
	return fmt.Sprintf("%v#%v", r.Name, r.Number)
}

// Match matches the terminal against text at pos and returns the position following the
// match. Empty-match terminals always match with zero width.
func (r *Rule) Match(text string, pos int) (int, bool) {
	if !r.IsTerminal() || pos < 0 || pos > len(text) {
		return 0, false
	}
	if r.IsEmptyTerminal {
		return pos, true
	}
	if !r.IsPattern {
		if strings.HasPrefix(text[pos:], r.Value) {
			return pos + len(r.Value), true
		}
		return 0, false
	}
	if r.pattern == nil {
		return 0, false
	}
	loc := r.pattern.FindStringIndex(text[pos:])
	if loc == nil {
		return 0, false
	}
	return pos + loc[1], true
}

func (r *Rule) compilePattern() error {
	if !r.IsTerminal() || !r.IsPattern || r.pattern != nil {
		return nil
	}
	p, err := CompilePattern(r.Value)
	if err != nil {
		return err
	}
	r.pattern = p
	return nil
}

// CompilePattern compiles a pattern terminal. The pattern is anchored at the match position
// and matches leftmost-longest.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	p, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, err
	}
	p.Longest()
	return p, nil
}

type Item struct {
	Kind ItemKind

	// Items is ordered. A multi holds exactly the repeated item, and a separated list holds
	// the item followed by the separator.
	Items []*Rule

	Min int
	Max int
}

func (it *Item) Item() *Rule {
	if len(it.Items) == 0 {
		return nil
	}
	return it.Items[0]
}

func (it *Item) Separator() *Rule {
	if it.Kind != ItemKindSeparatedList || len(it.Items) < 2 {
		return nil
	}
	return it.Items[1]
}

// IndexOf returns the index of the last alternative of a choice that is r, or -1.
func (it *Item) IndexOf(r *Rule) int {
	idx := -1
	for i, c := range it.Items {
		if c == r {
			idx = i
		}
	}
	return idx
}

func (it *Item) String() string {
	var b strings.Builder
	switch it.Kind {
	case ItemKindEmpty:
		fmt.Fprintf(&b, "<empty>")
	case ItemKindChoice, ItemKindPriorityChoice:
		sep := " | "
		if it.Kind == ItemKindPriorityChoice {
			sep = " < "
		}
		for i, r := range it.Items {
			if i > 0 {
				fmt.Fprint(&b, sep)
			}
			fmt.Fprint(&b, r.Name)
		}
	case ItemKindConcatenation:
		for i, r := range it.Items {
			if i > 0 {
				fmt.Fprint(&b, " ")
			}
			fmt.Fprint(&b, r.Name)
		}
	case ItemKindMulti:
		fmt.Fprintf(&b, "%v%v", it.Item().Name, multiplicity(it.Min, it.Max))
	case ItemKindSeparatedList:
		fmt.Fprintf(&b, "[%v / %v]%v", it.Item().Name, it.Separator().Name, multiplicity(it.Min, it.Max))
	default:
		fmt.Fprintf(&b, "<%v>", it.Kind)
	}
	return b.String()
}

func multiplicity(min, max int) string {
	switch {
	case min == 0 && max == Unbounded:
		return "*"
	case min == 1 && max == Unbounded:
		return "+"
	case min == 0 && max == 1:
		return "?"
	case max == Unbounded:
		return fmt.Sprintf("{%v,}", min)
	case min == max:
		return fmt.Sprintf("{%v}", min)
	}
	return fmt.Sprintf("{%v,%v}", min, max)
}
