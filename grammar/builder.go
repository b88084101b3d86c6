package grammar

import (
	verr "github.com/dhakehurst/sppf/error"
	"github.com/dhakehurst/sppf/spec"
)

// GrammarBuilder converts the AST of a grammar source into declarative grammars.
type GrammarBuilder struct {
	AST *spec.RootNode

	errs verr.SpecErrors
}

// Build returns the grammars of the source in source order. Base grammars named in `extends`
// must be declared in the same source; they are looked up by name or by qualified name.
func (b *GrammarBuilder) Build() ([]*Grammar, error) {
	if b.AST == nil || len(b.AST.Grammars) == 0 {
		return nil, verr.SpecErrors{
			{
				Cause: semErrNoGrammar,
			},
		}
	}

	grammars := make([]*Grammar, len(b.AST.Grammars))
	byName := map[string]*Grammar{}
	for i, n := range b.AST.Grammars {
		g := &Grammar{
			Namespace: b.AST.Namespace,
			Name:      n.Name,
		}
		if _, ok := byName[g.Name]; ok {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrDuplicateGrammar,
				Detail: g.Name,
				Row:    n.Pos.Row,
				Col:    n.Pos.Col,
			})
			continue
		}
		byName[g.Name] = g
		byName[g.QualifiedName()] = g
		grammars[i] = g
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	for i, n := range b.AST.Grammars {
		g := grammars[i]
		for _, ext := range n.Extends {
			base, ok := byName[ext.Name]
			if !ok {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrGrammarNotFound,
					Detail: ext.Name,
					Row:    ext.Pos.Row,
					Col:    ext.Pos.Col,
				})
				continue
			}
			g.Extends = append(g.Extends, base)
		}
		for _, r := range n.Rules {
			g.Rules = append(g.Rules, &Rule{
				Name:   r.Name,
				IsSkip: r.Skip,
				RHS:    b.genChoice(r.RHS),
				Pos:    genPosition(r.Pos),
			})
		}
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	return grammars, nil
}

func genPosition(pos spec.Position) Position {
	return Position{
		Row: pos.Row,
		Col: pos.Col,
	}
}

func (b *GrammarBuilder) genChoice(n *spec.ChoiceNode) *Choice {
	c := &Choice{}
	if n == nil {
		return c
	}
	c.Priority = n.Priority
	for _, alt := range n.Alternatives {
		concat := &Concatenation{}
		for _, item := range alt.Items {
			concat.Items = append(concat.Items, b.genItem(item))
		}
		c.Alternatives = append(c.Alternatives, concat)
	}
	return c
}

func (b *GrammarBuilder) genItem(n *spec.ItemNode) RuleItem {
	var item RuleItem
	switch {
	case n.ID != "":
		item = &NonTerminal{
			Name: n.ID,
			Pos:  genPosition(n.Pos),
		}
	case n.Literal != "":
		item = &Terminal{
			Value: n.Literal,
			Pos:   genPosition(n.Pos),
		}
	case n.Pattern != "":
		item = &Terminal{
			Value:     n.Pattern,
			IsPattern: true,
			Pos:       genPosition(n.Pos),
		}
	case n.Group != nil:
		item = &Group{
			Choice: b.genChoice(n.Group),
		}
	case n.List != nil:
		// The parser rejects a separated list without a multiplicity.
		return &SeparatedList{
			Min:       n.Multiplicity.Min,
			Max:       n.Multiplicity.Max,
			Item:      b.genItem(n.List.Item),
			Separator: b.genItem(n.List.Separator),
		}
	}
	if n.Multiplicity == nil {
		return item
	}
	return &Multi{
		Min:  n.Multiplicity.Min,
		Max:  n.Multiplicity.Max,
		Item: item,
	}
}

// FindGrammar returns the grammar whose name or qualified name is name. An empty name selects
// the last grammar, which is the one a source usually declares as its entry point.
func FindGrammar(grammars []*Grammar, name string) (*Grammar, error) {
	if len(grammars) == 0 {
		return nil, semErrNoGrammar
	}
	if name == "" {
		return grammars[len(grammars)-1], nil
	}
	for _, g := range grammars {
		if g.Name == name || g.QualifiedName() == name {
			return g, nil
		}
	}
	return nil, &verr.SpecError{
		Cause:  semErrGrammarNotFound,
		Detail: name,
	}
}
