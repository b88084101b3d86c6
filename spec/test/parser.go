// Package test reads parse forests written in compact form, as in test suites:
//
//	S { 'a' WS { ' ' } §S§multi1 { §empty } }
//	e {| e { 'a' } '+' e { 'b' } || e { 'a' } '+' 'b' |}
//
// A leaf is its quoted text, §empty is an empty leaf, and `_` stands for a branch of any rule.
package test

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type tokenKind string

const (
	tokenKindName     = tokenKind("name")
	tokenKindText     = tokenKind("text")
	tokenKindOpen     = tokenKind("{")
	tokenKindClose    = tokenKind("}")
	tokenKindAmbOpen  = tokenKind("{|")
	tokenKindAmbSep   = tokenKind("||")
	tokenKindAmbClose = tokenKind("|}")
	tokenKindEOF      = tokenKind("eof")
)

var lexEntries = []struct {
	kind    string
	pattern string
}{
	{"white_space", `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
	{"name", `[^\u{0009}\u{000A}\u{000D}\u{0020}\u{0027}\u{007B}\u{007C}\u{007D}]+`},
	{"text", `\u{0027}([^\u{0027}\u{005C}]|\u{005C}[^\u{000A}])*\u{0027}`},
	{"amb_open", `\u{007B}\u{007C}`},
	{"amb_sep", `\u{007C}\u{007C}`},
	{"amb_close", `\u{007C}\u{007D}`},
	{"open", `\u{007B}`},
	{"close", `\u{007D}`},
}

var symbolKinds = map[string]tokenKind{
	"name":      tokenKindName,
	"text":      tokenKindText,
	"amb_open":  tokenKindAmbOpen,
	"amb_sep":   tokenKindAmbSep,
	"amb_close": tokenKindAmbClose,
	"open":      tokenKindOpen,
	"close":     tokenKindClose,
}

var compiledLexSpec *mlspec.CompiledLexSpec

func init() {
	entries := make([]*mlspec.LexEntry, len(lexEntries))
	for i, e := range lexEntries {
		entries[i] = &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(e.kind),
			Pattern: mlspec.LexPattern(e.pattern),
		}
	}
	s, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    "tree",
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "failed to compile the tree lexer: %v", err)
		for _, cErr := range cErrs {
			fmt.Fprintf(&b, "\n%v: %v", cErr.Kind, cErr.Cause)
		}
		panic(b.String())
	}
	compiledLexSpec = s
}

type token struct {
	kind tokenKind
	text string
	row  int
	col  int
}

func tokenize(src io.Reader) ([]*token, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(compiledLexSpec), src)
	if err != nil {
		return nil, err
	}
	var toks []*token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		row, col := tok.Row+1, tok.Col+1
		if tok.EOF {
			toks = append(toks, &token{kind: tokenKindEOF, row: row, col: col})
			return toks, nil
		}
		if tok.Invalid {
			return nil, fmt.Errorf("%v:%v: invalid token: %v", row, col, string(tok.Lexeme))
		}
		kindName := compiledLexSpec.KindNames[tok.KindID].String()
		if kindName == "white_space" {
			continue
		}
		t := &token{
			kind: symbolKinds[kindName],
			text: string(tok.Lexeme),
			row:  row,
			col:  col,
		}
		if t.kind == tokenKindText {
			t.text, err = unquote(t.text)
			if err != nil {
				return nil, fmt.Errorf("%v:%v: %w", row, col, err)
			}
		}
		toks = append(toks, t)
	}
}

func unquote(s string) (string, error) {
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			return "", fmt.Errorf("invalid escape sequence: \\%c", s[i])
		}
	}
	return b.String(), nil
}

type treeParser struct {
	toks []*token
	pos  int
}

// ParseTree reads one tree in compact form.
func ParseTree(src io.Reader) (*Tree, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &treeParser{
		toks: toks,
	}
	t, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenKindEOF {
		return nil, p.errorf(tok, "unexpected %v after the tree", tok.kind)
	}
	return t.Fill(), nil
}

// ParseTreeString is ParseTree over a string.
func ParseTreeString(src string) (*Tree, error) {
	return ParseTree(bytes.NewReader([]byte(src)))
}

func (p *treeParser) peek() *token {
	return p.toks[p.pos]
}

func (p *treeParser) next() *token {
	tok := p.toks[p.pos]
	if tok.kind != tokenKindEOF {
		p.pos++
	}
	return tok
}

func (p *treeParser) errorf(tok *token, format string, a ...any) error {
	return fmt.Errorf("%v:%v: %v", tok.row, tok.col, fmt.Sprintf(format, a...))
}

func (p *treeParser) parseNode() (*Tree, error) {
	tok := p.next()
	switch tok.kind {
	case tokenKindText:
		return NewLeaf(tok.text), nil
	case tokenKindName:
	default:
		return nil, p.errorf(tok, "a node must start with a name or a text: got %v", tok.kind)
	}

	switch p.peek().kind {
	case tokenKindOpen:
		p.next()
		children, err := p.parseChildren(tokenKindClose)
		if err != nil {
			return nil, err
		}
		p.next()
		return NewBranch(tok.text, children), nil
	case tokenKindAmbOpen:
		p.next()
		var alts [][]*Tree
		for {
			children, err := p.parseChildren(tokenKindAmbSep, tokenKindAmbClose)
			if err != nil {
				return nil, err
			}
			alts = append(alts, children)
			if p.next().kind == tokenKindAmbClose {
				break
			}
		}
		return NewBranch(tok.text, alts...), nil
	}

	if tok.text == KindEmpty {
		return NewEmptyLeaf(), nil
	}
	return nil, p.errorf(tok, "a branch needs children: %v", tok.text)
}

// parseChildren reads nodes up to one of the terminators, which is left unread.
func (p *treeParser) parseChildren(terminators ...tokenKind) ([]*Tree, error) {
	children := []*Tree{}
	for {
		tok := p.peek()
		for _, k := range terminators {
			if tok.kind == k {
				return children, nil
			}
		}
		if tok.kind == tokenKindEOF {
			return nil, p.errorf(tok, "unclosed branch")
		}
		c, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
}
