package spec

import (
	"fmt"
	"io"
	"strings"

	verr "github.com/dhakehurst/sppf/error"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type tokenKind string

const (
	tokenKindKWNamespace = tokenKind("namespace")
	tokenKindKWGrammar   = tokenKind("grammar")
	tokenKindKWExtends   = tokenKind("extends")
	tokenKindKWSkip      = tokenKind("skip")
	tokenKindID          = tokenKind("id")
	tokenKindLiteral     = tokenKind("literal")
	tokenKindPattern     = tokenKind("pattern")
	tokenKindInteger     = tokenKind("integer")
	tokenKindDot         = tokenKind(".")
	tokenKindComma       = tokenKind(",")
	tokenKindEqual       = tokenKind("=")
	tokenKindSemicolon   = tokenKind(";")
	tokenKindOr          = tokenKind("|")
	tokenKindLT          = tokenKind("<")
	tokenKindGroupOpen   = tokenKind("(")
	tokenKindGroupClose  = tokenKind(")")
	tokenKindListOpen    = tokenKind("[")
	tokenKindListClose   = tokenKind("]")
	tokenKindSlash       = tokenKind("/")
	tokenKindStar        = tokenKind("*")
	tokenKindPlus        = tokenKind("+")
	tokenKindQuestion    = tokenKind("?")
	tokenKindBoundOpen   = tokenKind("{")
	tokenKindBoundClose  = tokenKind("}")
	tokenKindEOF         = tokenKind("eof")
	tokenKindInvalid     = tokenKind("invalid")
)

var keywords = map[string]tokenKind{
	"namespace": tokenKindKWNamespace,
	"grammar":   tokenKindKWGrammar,
	"extends":   tokenKindKWExtends,
	"skip":      tokenKindKWSkip,
}

type Position struct {
	Row int
	Col int
}

func newPosition(row, col int) Position {
	return Position{
		Row: row,
		Col: col,
	}
}

type token struct {
	kind tokenKind
	text string
	num  int
	pos  Position
}

func newSymbolToken(kind tokenKind, pos Position) *token {
	return &token{
		kind: kind,
		pos:  pos,
	}
}

func newIDToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindID,
		text: text,
		pos:  pos,
	}
}

func newLiteralToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindLiteral,
		text: text,
		pos:  pos,
	}
}

func newPatternToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindPattern,
		text: text,
		pos:  pos,
	}
}

func newIntegerToken(num int, pos Position) *token {
	return &token{
		kind: tokenKindInteger,
		num:  num,
		pos:  pos,
	}
}

func newEOFToken(pos Position) *token {
	return &token{
		kind: tokenKindEOF,
		pos:  pos,
	}
}

func newInvalidToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindInvalid,
		text: text,
		pos:  pos,
	}
}

// Lexical kinds of the grammar source language. Punctuation is written with code point
// expressions because maleeni reserves most ASCII symbols as operators.
var lexEntries = []struct {
	kind    string
	pattern string
}{
	{"white_space", `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
	{"line_comment", `\u{002F}\u{002F}[^\u{000A}]*`},
	{"identifier", `[A-Za-z_][0-9A-Za-z_]*`},
	{"integer", `[0-9]+`},
	{"literal", `\u{0027}([^\u{0027}\u{005C}\u{000A}]|\u{005C}[^\u{000A}])*\u{0027}`},
	{"pattern", `\u{0022}([^\u{0022}\u{005C}\u{000A}]|\u{005C}[^\u{000A}])*\u{0022}`},
	{"dot", `\u{002E}`},
	{"comma", `\u{002C}`},
	{"equal", `\u{003D}`},
	{"semicolon", `\u{003B}`},
	{"or", `\u{007C}`},
	{"lt", `\u{003C}`},
	{"group_open", `\u{0028}`},
	{"group_close", `\u{0029}`},
	{"list_open", `\u{005B}`},
	{"list_close", `\u{005D}`},
	{"slash", `\u{002F}`},
	{"star", `\u{002A}`},
	{"plus", `\u{002B}`},
	{"question", `\u{003F}`},
	{"brace_open", `\u{007B}`},
	{"brace_close", `\u{007D}`},
}

var symbolKinds = map[string]tokenKind{
	"dot":         tokenKindDot,
	"comma":       tokenKindComma,
	"equal":       tokenKindEqual,
	"semicolon":   tokenKindSemicolon,
	"or":          tokenKindOr,
	"lt":          tokenKindLT,
	"group_open":  tokenKindGroupOpen,
	"group_close": tokenKindGroupClose,
	"list_open":   tokenKindListOpen,
	"list_close":  tokenKindListClose,
	"slash":       tokenKindSlash,
	"star":        tokenKindStar,
	"plus":        tokenKindPlus,
	"question":    tokenKindQuestion,
	"brace_open":  tokenKindBoundOpen,
	"brace_close": tokenKindBoundClose,
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
		Name:    "agl",
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "failed to compile the grammar lexer: %v", err)
		for _, cErr := range cErrs {
			fmt.Fprintf(&b, "\n%v: %v", cErr.Kind, cErr.Cause)
			if cErr.Detail != "" {
				fmt.Fprintf(&b, ": %v", cErr.Detail)
			}
		}
		panic(b.String())
	}
	compiledLexSpec = s
}

type lexer struct {
	d       *mldriver.Lexer
	lastPos Position
}

func newLexer(src io.Reader) (*lexer, error) {
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(compiledLexSpec), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		d: d,
	}, nil
}

func (l *lexer) next() (*token, error) {
	var tok *mldriver.Token
	var kind string
	for {
		var err error
		tok, err = l.d.Next()
		if err != nil {
			return nil, err
		}
		pos := newPosition(tok.Row+1, tok.Col+1)
		if tok.Invalid {
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}
		if tok.EOF {
			return newEOFToken(l.lastPos), nil
		}
		l.lastPos = pos
		kind = compiledLexSpec.KindNames[tok.KindID].String()
		switch kind {
		case "white_space", "line_comment":
			continue
		}
		break
	}

	pos := newPosition(tok.Row+1, tok.Col+1)
	text := string(tok.Lexeme)
	switch kind {
	case "identifier":
		if k, ok := keywords[text]; ok {
			return newSymbolToken(k, pos), nil
		}
		return newIDToken(text, pos), nil
	case "integer":
		num := 0
		for _, c := range text {
			num = num*10 + int(c-'0')
			if num > maxBound {
				return nil, &verr.SpecError{
					Cause:  synErrBoundTooLarge,
					Detail: text,
					Row:    pos.Row,
					Col:    pos.Col,
				}
			}
		}
		return newIntegerToken(num, pos), nil
	case "literal":
		s, err := unescape(text[1:len(text)-1], '\'', pos)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return nil, &verr.SpecError{
				Cause: synErrEmptyLiteral,
				Row:   pos.Row,
				Col:   pos.Col,
			}
		}
		return newLiteralToken(s, pos), nil
	case "pattern":
		// Only the escaped delimiter is interpreted here. The other escape sequences belong to
		// the regular expression.
		s := strings.ReplaceAll(text[1:len(text)-1], `\"`, `"`)
		if s == "" {
			return nil, &verr.SpecError{
				Cause: synErrEmptyPattern,
				Row:   pos.Row,
				Col:   pos.Col,
			}
		}
		return newPatternToken(s, pos), nil
	}
	if k, ok := symbolKinds[kind]; ok {
		return newSymbolToken(k, pos), nil
	}
	return newInvalidToken(text, pos), nil
}

// unescape interprets the escape sequences of a literal: \n, \r, \t, \\, and the escaped quote.
func unescape(s string, quote rune, pos Position) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	escaped := false
	for _, c := range s {
		if !escaped {
			if c == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(c)
			continue
		}
		escaped = false
		switch c {
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case '\\', quote:
			b.WriteRune(c)
		default:
			return "", &verr.SpecError{
				Cause:  synErrInvalidEscSeq,
				Detail: fmt.Sprintf(`\%c`, c),
				Row:    pos.Row,
				Col:    pos.Col,
			}
		}
	}
	return b.String(), nil
}
