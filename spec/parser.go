// Package spec parses the textual grammar language into an AST.
package spec

import (
	"io"

	verr "github.com/dhakehurst/sppf/error"
)

// Unbounded is the maximum of a multiplicity without an upper bound.
const Unbounded = -1

const maxBound = 1 << 20

type RootNode struct {
	Namespace    string
	NamespacePos Position
	Grammars     []*GrammarNode
}

type GrammarNode struct {
	Name    string
	Extends []*ExtendsNode
	Rules   []*RuleNode
	Pos     Position
}

// ExtendsNode refers to a base grammar by its name or by its qualified name.
type ExtendsNode struct {
	Name string
	Pos  Position
}

type RuleNode struct {
	Name string
	Skip bool
	RHS  *ChoiceNode
	Pos  Position
}

type ChoiceNode struct {
	Priority     bool
	Alternatives []*ConcatenationNode
	Pos          Position
}

type ConcatenationNode struct {
	Items []*ItemNode
}

// ItemNode is exactly one of an identifier, a literal, a pattern, a group, or a separated list,
// optionally repeated by a multiplicity.
type ItemNode struct {
	ID           string
	Literal      string
	Pattern      string
	Group        *ChoiceNode
	List         *ListNode
	Multiplicity *MultiplicityNode
	Pos          Position
}

type ListNode struct {
	Item      *ItemNode
	Separator *ItemNode
}

type MultiplicityNode struct {
	Min int
	Max int
	Pos Position
}

// raiseSyntaxError aborts the current rule. The error is reported at the token the parser
// looked at last.
func raiseSyntaxError(synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
	})
}

// Parse parses a grammar source. On failure it returns verr.SpecErrors holding every error it
// could find; the parser resumes at the next rule after an error in a rule.
func Parse(src io.Reader) (*RootNode, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parse()
}

type parser struct {
	lex       *lexer
	peekedTok *token
	lastTok   *token
	errs      verr.SpecErrors

	// A token position that errors are reported at.
	pos Position
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		specErr, ok := err.(*verr.SpecError)
		if !ok {
			retErr, ok = err.(error)
			if !ok {
				panic(err)
			}
			return
		}
		p.errs = append(p.errs, p.locate(specErr))
		retErr = p.errs
	}()

	root = p.parseRoot()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return root, nil
}

func (p *parser) locate(specErr *verr.SpecError) *verr.SpecError {
	if specErr.Row == 0 {
		specErr.Row = p.pos.Row
		specErr.Col = p.pos.Col
	}
	return specErr
}

func (p *parser) parseRoot() *RootNode {
	root := &RootNode{}
	if p.consume(tokenKindKWNamespace) {
		root.NamespacePos = p.lastTok.pos
		root.Namespace = p.parseQualifiedName(synErrNoNamespaceName)
	}
	for {
		g := p.parseGrammar()
		if g == nil {
			break
		}
		root.Grammars = append(root.Grammars, g)
	}
	if len(root.Grammars) == 0 {
		raiseSyntaxError(synErrNoGrammar)
	}
	return root
}

func (p *parser) parseQualifiedName(synErr *SyntaxError) string {
	if !p.consume(tokenKindID) {
		raiseSyntaxError(synErr)
	}
	name := p.lastTok.text
	for p.consume(tokenKindDot) {
		if !p.consume(tokenKindID) {
			raiseSyntaxError(synErr)
		}
		name += "." + p.lastTok.text
	}
	return name
}

func (p *parser) parseGrammar() *GrammarNode {
	if p.consume(tokenKindEOF) {
		return nil
	}
	if !p.consume(tokenKindKWGrammar) {
		raiseSyntaxError(synErrInvalidToken)
	}
	pos := p.lastTok.pos
	if !p.consume(tokenKindID) {
		raiseSyntaxError(synErrNoGrammarName)
	}
	g := &GrammarNode{
		Name: p.lastTok.text,
		Pos:  pos,
	}
	if p.consume(tokenKindKWExtends) {
		for {
			p.peek()
			extPos := p.pos
			name := p.parseQualifiedName(synErrNoExtendsName)
			g.Extends = append(g.Extends, &ExtendsNode{
				Name: name,
				Pos:  extPos,
			})
			if !p.consume(tokenKindComma) {
				break
			}
		}
	}
	if !p.consume(tokenKindBoundOpen) {
		raiseSyntaxError(synErrNoGrammarOpen)
	}
	for {
		if p.consume(tokenKindBoundClose) {
			break
		}
		if p.consume(tokenKindEOF) {
			raiseSyntaxError(synErrUnclosedGrammar)
		}
		r := p.parseRule()
		if r != nil {
			g.Rules = append(g.Rules, r)
		}
	}
	return g
}

// parseRule parses one rule. When the rule contains a syntax error, parseRule records it and
// skips to the following semicolon so that the errors of later rules are reported too.
func (p *parser) parseRule() (rule *RuleNode) {
	defer func() {
		err := recover()
		if err == nil {
			return
		}
		specErr, ok := err.(*verr.SpecError)
		if !ok {
			panic(err)
		}
		p.errs = append(p.errs, p.locate(specErr))
		p.skipOverTo(tokenKindSemicolon)
		rule = nil
	}()

	skip := p.consume(tokenKindKWSkip)
	if !p.consume(tokenKindID) {
		raiseSyntaxError(synErrNoRuleName)
	}
	pos := p.lastTok.pos
	name := p.lastTok.text
	if !p.consume(tokenKindEqual) {
		raiseSyntaxError(synErrNoEqual)
	}
	rhs := p.parseChoice()
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(synErrNoSemicolon)
	}
	return &RuleNode{
		Name: name,
		Skip: skip,
		RHS:  rhs,
		Pos:  pos,
	}
}

func (p *parser) parseChoice() *ChoiceNode {
	p.peek()
	c := &ChoiceNode{
		Pos: p.pos,
	}
	c.Alternatives = append(c.Alternatives, p.parseConcatenation())
	var op tokenKind
	for {
		var next tokenKind
		switch {
		case p.consume(tokenKindOr):
			next = tokenKindOr
		case p.consume(tokenKindLT):
			next = tokenKindLT
		default:
			if len(c.Alternatives) == 1 && len(c.Alternatives[0].Items) == 0 {
				c.Alternatives = nil
			}
			return c
		}
		if op != "" && op != next {
			raiseSyntaxError(synErrMixedChoice)
		}
		op = next
		c.Priority = op == tokenKindLT
		c.Alternatives = append(c.Alternatives, p.parseConcatenation())
	}
}

func (p *parser) parseConcatenation() *ConcatenationNode {
	items := []*ItemNode{}
	for {
		item := p.parseItem()
		if item == nil {
			break
		}
		items = append(items, item)
	}
	return &ConcatenationNode{
		Items: items,
	}
}

func (p *parser) parseItem() *ItemNode {
	var item *ItemNode
	switch {
	case p.consume(tokenKindID):
		item = &ItemNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		}
	case p.consume(tokenKindLiteral):
		item = &ItemNode{
			Literal: p.lastTok.text,
			Pos:     p.lastTok.pos,
		}
	case p.consume(tokenKindPattern):
		item = &ItemNode{
			Pattern: p.lastTok.text,
			Pos:     p.lastTok.pos,
		}
	case p.consume(tokenKindGroupOpen):
		pos := p.lastTok.pos
		choice := p.parseChoice()
		if !p.consume(tokenKindGroupClose) {
			raiseSyntaxError(synErrUnclosedGroup)
		}
		item = &ItemNode{
			Group: choice,
			Pos:   pos,
		}
	case p.consume(tokenKindListOpen):
		pos := p.lastTok.pos
		elem := p.parseItem()
		if elem == nil {
			raiseSyntaxError(synErrNoListItem)
		}
		if !p.consume(tokenKindSlash) {
			raiseSyntaxError(synErrNoListSeparator)
		}
		sep := p.parseItem()
		if sep == nil {
			raiseSyntaxError(synErrNoListSeparator)
		}
		if !p.consume(tokenKindListClose) {
			raiseSyntaxError(synErrUnclosedList)
		}
		mul := p.parseMultiplicity()
		if mul == nil {
			raiseSyntaxError(synErrNoListMultiplicity)
		}
		item = &ItemNode{
			List: &ListNode{
				Item:      elem,
				Separator: sep,
			},
			Multiplicity: mul,
			Pos:          pos,
		}
		if p.parseMultiplicity() != nil {
			raiseSyntaxError(synErrStackedMultiplicity)
		}
		return item
	default:
		return nil
	}

	item.Multiplicity = p.parseMultiplicity()
	if item.Multiplicity != nil && p.parseMultiplicity() != nil {
		raiseSyntaxError(synErrStackedMultiplicity)
	}
	return item
}

func (p *parser) parseMultiplicity() *MultiplicityNode {
	switch {
	case p.consume(tokenKindStar):
		return &MultiplicityNode{Min: 0, Max: Unbounded, Pos: p.lastTok.pos}
	case p.consume(tokenKindPlus):
		return &MultiplicityNode{Min: 1, Max: Unbounded, Pos: p.lastTok.pos}
	case p.consume(tokenKindQuestion):
		return &MultiplicityNode{Min: 0, Max: 1, Pos: p.lastTok.pos}
	case p.consume(tokenKindBoundOpen):
	default:
		return nil
	}

	pos := p.lastTok.pos
	if !p.consume(tokenKindInteger) {
		raiseSyntaxError(synErrInvalidMultiplicity)
	}
	mul := &MultiplicityNode{
		Min: p.lastTok.num,
		Max: p.lastTok.num,
		Pos: pos,
	}
	if p.consume(tokenKindComma) {
		mul.Max = Unbounded
		if p.consume(tokenKindInteger) {
			mul.Max = p.lastTok.num
			if mul.Max < mul.Min {
				raiseSyntaxError(synErrInvalidBounds)
			}
		}
	}
	if !p.consume(tokenKindBoundClose) {
		raiseSyntaxError(synErrUnclosedBound)
	}
	return mul
}

// peek reads the next token without consuming it so that p.pos points at it.
func (p *parser) peek() {
	if p.peekedTok != nil {
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		panic(err)
	}
	p.peekedTok = tok
	p.pos = tok.pos
}

func (p *parser) consume(expected tokenKind) bool {
	p.peek()
	tok := p.peekedTok
	p.pos = tok.pos
	if tok.kind == tokenKindInvalid {
		panic(&verr.SpecError{
			Cause:  synErrInvalidToken,
			Detail: tok.text,
			Row:    tok.pos.Row,
			Col:    tok.pos.Col,
		})
	}
	if tok.kind != expected {
		return false
	}
	p.peekedTok = nil
	p.lastTok = tok
	return true
}

func (p *parser) skipOverTo(kind tokenKind) {
	for {
		if p.peekedTok == nil {
			tok, err := p.lex.next()
			if err != nil {
				// A lexical error inside the skipped text is reported by the rule that follows.
				if specErr, ok := err.(*verr.SpecError); ok {
					p.errs = append(p.errs, specErr)
					continue
				}
				panic(err)
			}
			p.peekedTok = tok
		}
		tok := p.peekedTok
		switch tok.kind {
		case kind:
			p.peekedTok = nil
			return
		case tokenKindEOF:
			return
		}
		p.peekedTok = nil
	}
}
