package grammar

import (
	"context"
	"fmt"
	"strings"

	verr "github.com/dhakehurst/sppf/error"
	"github.com/dhakehurst/sppf/grammar/rule"
)

type compileConfig struct {
	warm bool
}

type CompileOption func(config *compileConfig)

// WarmCaches makes Compile fill every reachability cache of the rule set before returning it.
func WarmCaches() CompileOption {
	return func(config *compileConfig) {
		config.warm = true
	}
}

// Compile converts a grammar into a rule set. Rules are numbered in grammar order: the rules
// of the extended grammars first, then the rules of g, then the terminals, then the rules
// synthesized during the conversion. Compile returns either a complete set or the errors;
// a partially built set is never returned.
func Compile(g *Grammar, opts ...CompileOption) (*rule.Set, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}

	if g == nil {
		return nil, verr.SpecErrors{
			{
				Cause: semErrNoGrammar,
			},
		}
	}

	c := &converter{
		declared:  map[string]*rule.Rule{},
		terminals: map[terminalKey]*rule.Rule{},
	}
	decls := c.effectiveRules(g, map[*Grammar]struct{}{})
	if len(decls) == 0 && len(c.errs) == 0 {
		c.errs = append(c.errs, &verr.SpecError{
			Cause:  semErrNoRule,
			Detail: g.QualifiedName(),
		})
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	for _, d := range decls {
		c.declared[d.Name] = c.newRule(&rule.Rule{
			Kind:   rule.KindNonTerminal,
			Name:   d.Name,
			IsSkip: d.IsSkip,
		})
	}
	for _, d := range decls {
		c.registerTerminals(d, d.RHS)
	}
	for _, d := range decls {
		r := c.declared[d.Name]
		c.decl = d
		r.RHS = c.choiceItem(r, "", d.RHS)
	}
	skipGoal := c.genSkipGoal(decls)

	if len(c.errs) > 0 {
		return nil, c.errs
	}

	set, err := rule.NewSet(g.QualifiedName(), c.rules, skipGoal)
	if err != nil {
		return nil, err
	}
	if config.warm {
		if err := set.Warm(context.Background()); err != nil {
			return nil, err
		}
	}
	return set, nil
}

type terminalKey struct {
	value   string
	pattern bool
}

type converter struct {
	rules      []*rule.Rule
	declared   map[string]*rule.Rule
	terminals  map[terminalKey]*rule.Rule
	emptyMatch *rule.Rule
	emptyRule  *rule.Rule

	// decl is the declared rule being converted.
	decl *Rule

	errs verr.SpecErrors
}

func (c *converter) newRule(r *rule.Rule) *rule.Rule {
	r.Number = len(c.rules)
	c.rules = append(c.rules, r)
	return r
}

// effectiveRules returns the declared rules of g including the inherited ones. A rule of g
// overrides an inherited rule with the same name and keeps its position.
func (c *converter) effectiveRules(g *Grammar, visiting map[*Grammar]struct{}) []*Rule {
	if _, ok := visiting[g]; ok {
		c.errs = append(c.errs, &verr.SpecError{
			Cause:  semErrCyclicExtends,
			Detail: g.QualifiedName(),
		})
		return nil
	}
	visiting[g] = struct{}{}
	defer delete(visiting, g)

	var decls []*Rule
	index := map[string]int{}
	for _, base := range g.Extends {
		for _, d := range c.effectiveRules(base, visiting) {
			if i, ok := index[d.Name]; ok {
				decls[i] = d
				continue
			}
			index[d.Name] = len(decls)
			decls = append(decls, d)
		}
	}

	own := map[string]struct{}{}
	for _, d := range g.Rules {
		if strings.HasPrefix(d.Name, rule.VirtualPrefix) {
			c.errs = append(c.errs, &verr.SpecError{
				Cause:  semErrReservedName,
				Detail: d.Name,
				Row:    d.Pos.Row,
				Col:    d.Pos.Col,
			})
			continue
		}
		if _, ok := own[d.Name]; ok {
			c.errs = append(c.errs, &verr.SpecError{
				Cause:  semErrDuplicateRule,
				Detail: d.Name,
				Row:    d.Pos.Row,
				Col:    d.Pos.Col,
			})
			continue
		}
		own[d.Name] = struct{}{}
		if i, ok := index[d.Name]; ok {
			decls[i] = d
			continue
		}
		index[d.Name] = len(decls)
		decls = append(decls, d)
	}
	return decls
}

func (c *converter) registerTerminals(d *Rule, item RuleItem) {
	switch item := item.(type) {
	case *Choice:
		if item == nil {
			return
		}
		for _, alt := range item.Alternatives {
			c.registerTerminals(d, alt)
		}
	case *Concatenation:
		for _, i := range item.Items {
			c.registerTerminals(d, i)
		}
	case *Group:
		c.registerTerminals(d, item.Choice)
	case *Multi:
		c.registerTerminals(d, item.Item)
	case *SeparatedList:
		c.registerTerminals(d, item.Item)
		c.registerTerminals(d, item.Separator)
	case *Terminal:
		c.terminal(d, item)
	}
}

func (c *converter) terminal(d *Rule, t *Terminal) *rule.Rule {
	key := terminalKey{value: t.Value, pattern: t.IsPattern}
	if r, ok := c.terminals[key]; ok {
		return r
	}
	// A failed terminal is remembered as nil so that it is reported once.
	if t.Value == "" {
		c.errs = append(c.errs, c.errorAt(semErrEmptyLiteral, "", d, t.Pos))
		c.terminals[key] = nil
		return nil
	}

	name := fmt.Sprintf("'%v'", t.Value)
	if t.IsPattern {
		if _, err := rule.CompilePattern(t.Value); err != nil {
			c.errs = append(c.errs, c.errorAt(semErrInvalidPattern, err.Error(), d, t.Pos))
			c.terminals[key] = nil
			return nil
		}
		name = fmt.Sprintf("\"%v\"", t.Value)
	}
	r := c.newRule(&rule.Rule{
		Kind:      rule.KindTerminal,
		Name:      name,
		Value:     t.Value,
		IsPattern: t.IsPattern,
	})
	c.terminals[key] = r
	return r
}

func (c *converter) errorAt(cause error, detail string, d *Rule, pos Position) *verr.SpecError {
	if pos.Row == 0 {
		pos = d.Pos
	}
	return &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Rule:   d.Name,
		Row:    pos.Row,
		Col:    pos.Col,
	}
}

// sharedEmptyMatch returns the empty-match terminal used by rules without alternatives.
func (c *converter) sharedEmptyMatch() *rule.Rule {
	if c.emptyMatch == nil {
		c.emptyMatch = c.newRule(&rule.Rule{
			Kind:            rule.KindTerminal,
			Name:            rule.NameEmptyMatch,
			IsEmptyTerminal: true,
		})
	}
	return c.emptyMatch
}

// sharedEmptyRule returns the non-terminal matching only the empty string. Empty alternatives
// of choices refer to it.
func (c *converter) sharedEmptyRule() *rule.Rule {
	if c.emptyRule == nil {
		c.emptyRule = c.newRule(&rule.Rule{
			Kind:      rule.KindNonTerminal,
			Name:      rule.NameEmpty,
			IsVirtual: true,
		})
		c.emptyRule.RHS = &rule.Item{
			Kind:  rule.ItemKindEmpty,
			Items: []*rule.Rule{c.sharedEmptyMatch()},
		}
	}
	return c.emptyRule
}

func (c *converter) emptyItem() *rule.Item {
	return &rule.Item{
		Kind:  rule.ItemKindEmpty,
		Items: []*rule.Rule{c.sharedEmptyMatch()},
	}
}

func (c *converter) virtualRule(kind string, path string) *rule.Rule {
	return c.newRule(&rule.Rule{
		Kind:      rule.KindNonTerminal,
		Name:      fmt.Sprintf("%v%v%v%v%v", rule.VirtualPrefix, c.decl.Name, rule.VirtualPrefix, kind, path),
		IsVirtual: true,
		Owner:     c.decl.Name,
	})
}

func subPath(path string, i int) string {
	if path == "" {
		return fmt.Sprint(i)
	}
	return fmt.Sprintf("%v.%v", path, i)
}

// choiceItem converts the content of a rule or a group into the right-hand side of target.
func (c *converter) choiceItem(target *rule.Rule, path string, ch *Choice) *rule.Item {
	if ch == nil || len(ch.Alternatives) == 0 {
		return c.emptyItem()
	}
	if len(ch.Alternatives) == 1 {
		return c.concatenationItem(target, path, ch.Alternatives[0])
	}

	kind := rule.ItemKindChoice
	if ch.Priority {
		kind = rule.ItemKindPriorityChoice
	}
	items := make([]*rule.Rule, len(ch.Alternatives))
	for i, alt := range ch.Alternatives {
		items[i] = c.alternativeRule(subPath(path, i), alt)
	}
	return &rule.Item{
		Kind:  kind,
		Items: items,
	}
}

func (c *converter) alternativeRule(path string, alt *Concatenation) *rule.Rule {
	switch len(alt.Items) {
	case 0:
		return c.sharedEmptyRule()
	case 1:
		return c.itemRule(path, alt.Items[0])
	}
	v := c.virtualRule("concat", path)
	v.RHS = c.concatenationItem(v, path, alt)
	return v
}

// concatenationItem converts a single alternative. A lone repetition, separated list, or group
// becomes the right-hand side of target itself instead of a virtual rule nested in it.
func (c *converter) concatenationItem(target *rule.Rule, path string, alt *Concatenation) *rule.Item {
	if len(alt.Items) == 0 {
		return c.emptyItem()
	}
	if len(alt.Items) == 1 {
		switch item := alt.Items[0].(type) {
		case *Multi:
			return c.multiItem(target, path, item)
		case *SeparatedList:
			return c.separatedListItem(target, path, item)
		case *Group:
			return c.choiceItem(target, path, item.Choice)
		case *Choice:
			return c.choiceItem(target, path, item)
		case *Concatenation:
			return c.concatenationItem(target, path, item)
		}
	}

	items := make([]*rule.Rule, len(alt.Items))
	for i, item := range alt.Items {
		items[i] = c.itemRule(subPath(path, i), item)
	}
	return &rule.Item{
		Kind:  rule.ItemKindConcatenation,
		Items: items,
	}
}

// itemRule returns the rule a single slot of a right-hand side refers to. Nested constructs
// are turned into virtual rules so that every slot holds exactly one rule.
func (c *converter) itemRule(path string, item RuleItem) *rule.Rule {
	switch item := item.(type) {
	case *Terminal:
		return c.terminal(c.decl, item)
	case *NonTerminal:
		r, ok := c.declared[item.Name]
		if !ok {
			c.errs = append(c.errs, c.errorAt(ErrRuleNotFound, item.Name, c.decl, item.Pos))
			return nil
		}
		return r
	case *Group:
		v := c.virtualRule("group", path)
		v.RHS = c.choiceItem(v, path, item.Choice)
		return v
	case *Choice:
		v := c.virtualRule("choice", path)
		v.RHS = c.choiceItem(v, path, item)
		return v
	case *Concatenation:
		v := c.virtualRule("concat", path)
		v.RHS = c.concatenationItem(v, path, item)
		return v
	case *Multi:
		v := c.virtualRule("multi", path)
		v.RHS = c.multiItem(v, path, item)
		return v
	case *SeparatedList:
		v := c.virtualRule("sList", path)
		v.RHS = c.separatedListItem(v, path, item)
		return v
	}
	c.errs = append(c.errs, c.errorAt(fmt.Errorf("unknown rule item %T", item), "", c.decl, Position{}))
	return nil
}

func (c *converter) checkBounds(min, max int) bool {
	if min < 0 || (max != Unbounded && max < min) || max < Unbounded {
		c.errs = append(c.errs, c.errorAt(semErrInvalidMultiplicity, fmt.Sprintf("{%v,%v}", min, max), c.decl, Position{}))
		return false
	}
	return true
}

func (c *converter) emptyTerminalFor(target *rule.Rule) *rule.Rule {
	return c.newRule(&rule.Rule{
		Kind:            rule.KindTerminal,
		Name:            rule.EmptyTerminalName(target.Name),
		IsEmptyTerminal: true,
		Owner:           target.Name,
	})
}

func (c *converter) multiItem(target *rule.Rule, path string, m *Multi) *rule.Item {
	c.checkBounds(m.Min, m.Max)
	item := c.itemRule(subPath(path, 0), m.Item)
	if m.Min == 0 {
		target.EmptyRule = c.emptyTerminalFor(target)
	}
	return &rule.Item{
		Kind:  rule.ItemKindMulti,
		Items: []*rule.Rule{item},
		Min:   m.Min,
		Max:   m.Max,
	}
}

func (c *converter) separatedListItem(target *rule.Rule, path string, l *SeparatedList) *rule.Item {
	if l.Item == nil || l.Separator == nil {
		c.errs = append(c.errs, c.errorAt(semErrMissingSeparatedList, "", c.decl, Position{}))
		return c.emptyItem()
	}
	c.checkBounds(l.Min, l.Max)
	item := c.itemRule(subPath(path, 0), l.Item)
	sep := c.itemRule(subPath(path, 1), l.Separator)
	if l.Min == 0 {
		target.EmptyRule = c.emptyTerminalFor(target)
	}
	return &rule.Item{
		Kind:  rule.ItemKindSeparatedList,
		Items: []*rule.Rule{item, sep},
		Min:   l.Min,
		Max:   l.Max,
	}
}

// genSkipGoal synthesizes the rule that matches a run of skip content: one or more of any skip
// rule.
func (c *converter) genSkipGoal(decls []*Rule) *rule.Rule {
	var skips []*rule.Rule
	for _, d := range decls {
		if d.IsSkip {
			skips = append(skips, c.declared[d.Name])
		}
	}
	if len(skips) == 0 {
		return nil
	}

	item := skips[0]
	if len(skips) > 1 {
		item = c.newRule(&rule.Rule{
			Kind:      rule.KindNonTerminal,
			Name:      rule.NameSkipChoice,
			IsVirtual: true,
			RHS: &rule.Item{
				Kind:  rule.ItemKindChoice,
				Items: skips,
			},
		})
	}
	return c.newRule(&rule.Rule{
		Kind:      rule.KindNonTerminal,
		Name:      rule.NameSkipGoal,
		IsVirtual: true,
		RHS: &rule.Item{
			Kind:  rule.ItemKindMulti,
			Items: []*rule.Rule{item},
			Min:   1,
			Max:   rule.Unbounded,
		},
	})
}
