package spec

import (
	"strings"
	"testing"

	verr "github.com/dhakehurst/sppf/error"
)

func TestLexer_Run(t *testing.T) {
	idTok := func(text string) *token {
		return newIDToken(text, Position{})
	}

	litTok := func(text string) *token {
		return newLiteralToken(text, Position{})
	}

	patTok := func(text string) *token {
		return newPatternToken(text, Position{})
	}

	symTok := func(kind tokenKind) *token {
		return newSymbolToken(kind, Position{})
	}

	intTok := func(num int) *token {
		return newIntegerToken(num, Position{})
	}

	eofTok := func() *token {
		return newEOFToken(Position{})
	}

	tests := []struct {
		caption string
		src     string
		tokens  []*token
		err     error
	}{
		{
			caption: "the lexer can recognize all kinds of symbols",
			src:     `.,=;|<()[]/*+?{}`,
			tokens: []*token{
				symTok(tokenKindDot),
				symTok(tokenKindComma),
				symTok(tokenKindEqual),
				symTok(tokenKindSemicolon),
				symTok(tokenKindOr),
				symTok(tokenKindLT),
				symTok(tokenKindGroupOpen),
				symTok(tokenKindGroupClose),
				symTok(tokenKindListOpen),
				symTok(tokenKindListClose),
				symTok(tokenKindSlash),
				symTok(tokenKindStar),
				symTok(tokenKindPlus),
				symTok(tokenKindQuestion),
				symTok(tokenKindBoundOpen),
				symTok(tokenKindBoundClose),
				eofTok(),
			},
		},
		{
			caption: "the lexer can recognize keywords, identifiers, and integers",
			src:     `namespace grammar extends skip skipped _id id2 42`,
			tokens: []*token{
				symTok(tokenKindKWNamespace),
				symTok(tokenKindKWGrammar),
				symTok(tokenKindKWExtends),
				symTok(tokenKindKWSkip),
				idTok("skipped"),
				idTok("_id"),
				idTok("id2"),
				intTok(42),
				eofTok(),
			},
		},
		{
			caption: "the lexer interprets escape sequences in a literal",
			src:     `'a' '\'' '\\' '\n\t' '"'`,
			tokens: []*token{
				litTok("a"),
				litTok("'"),
				litTok(`\`),
				litTok("\n\t"),
				litTok(`"`),
				eofTok(),
			},
		},
		{
			caption: "the lexer keeps escape sequences in a pattern except for the escaped quote",
			src:     `"\s+" "[a-z]\"" "'"`,
			tokens: []*token{
				patTok(`\s+`),
				patTok(`[a-z]"`),
				patTok(`'`),
				eofTok(),
			},
		},
		{
			caption: "the lexer ignores white spaces, newlines, and line comments",
			src: `
// This is the first comment.
foo
	// This is the second comment.
bar // This is the third comment.
/ baz
`,
			tokens: []*token{
				idTok("foo"),
				idTok("bar"),
				symTok(tokenKindSlash),
				idTok("baz"),
				eofTok(),
			},
		},
		{
			caption: "a literal must include at least one character",
			src:     `''`,
			err:     synErrEmptyLiteral,
		},
		{
			caption: "a pattern must include at least one character",
			src:     `""`,
			err:     synErrEmptyPattern,
		},
		{
			caption: "an unknown escape sequence in a literal is an error",
			src:     `'\q'`,
			err:     synErrInvalidEscSeq,
		},
		{
			caption: "a too large bound is an error",
			src:     `99999999999999999999`,
			err:     synErrBoundTooLarge,
		},
		{
			caption: "the lexer can recognize valid tokens following an invalid token",
			src:     `abc!!!def`,
			tokens: []*token{
				idTok("abc"),
				newInvalidToken("!!!", Position{}),
				idTok("def"),
				eofTok(),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := newLexer(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			n := 0
			for {
				var tok *token
				tok, err = l.next()
				if err != nil {
					break
				}
				if n >= len(tt.tokens) {
					t.Fatalf("too many tokens; got: %+v", tok)
				}
				testToken(t, tok, tt.tokens[n])
				n++
				if tok.kind == tokenKindEOF {
					break
				}
			}
			if tt.err != nil {
				synErr, ok := err.(*verr.SpecError)
				if !ok {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
				if tt.err != synErr.Cause {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, synErr.Cause)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
			}
		})
	}
}

func TestLexer_Position(t *testing.T) {
	l, err := newLexer(strings.NewReader("a\n  b"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := l.next()
	if err != nil {
		t.Fatal(err)
	}
	if a.pos != newPosition(1, 1) {
		t.Fatalf("unexpected position; want: 1:1, got: %+v", a.pos)
	}
	b, err := l.next()
	if err != nil {
		t.Fatal(err)
	}
	if b.pos != newPosition(2, 3) {
		t.Fatalf("unexpected position; want: 2:3, got: %+v", b.pos)
	}
}

func testToken(t *testing.T, tok, expected *token) {
	t.Helper()
	if tok.kind != expected.kind || tok.text != expected.text || tok.num != expected.num {
		t.Fatalf("unexpected token; want: %+v, got: %+v", expected, tok)
	}
}
