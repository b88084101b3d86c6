package grammar

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhakehurst/sppf/spec"
)

func buildGrammars(t *testing.T, src string) ([]*Grammar, error) {
	t.Helper()
	ast, err := spec.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := &GrammarBuilder{
		AST: ast,
	}
	return b.Build()
}

func TestGrammarBuilder_Build(t *testing.T) {
	grams, err := buildGrammars(t, `
namespace example
grammar Base {
    skip WS = "\s+" ;
    v = 'a' ;
}
grammar Expr extends example.Base {
    S = [ v / ',' ]{2,} ( 'x' | 'y' )? ;
}
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(grams) != 2 {
		t.Fatalf("unexpected grammar count: %v", len(grams))
	}
	expr := grams[1]
	if expr.QualifiedName() != "example.Expr" || len(expr.Extends) != 1 || expr.Extends[0] != grams[0] {
		t.Fatalf("unexpected grammar: %+v", expr)
	}
	if !grams[0].Rules[0].IsSkip {
		t.Fatalf("WS must be a skip rule")
	}

	items := expr.Rules[0].RHS.Alternatives[0].Items
	list, ok := items[0].(*SeparatedList)
	if !ok || list.Min != 2 || list.Max != Unbounded {
		t.Fatalf("unexpected separated list: %#v", items[0])
	}
	if nt, ok := list.Item.(*NonTerminal); !ok || nt.Name != "v" || nt.Pos.Row != 8 {
		t.Fatalf("unexpected list item: %#v", list.Item)
	}
	if term, ok := list.Separator.(*Terminal); !ok || term.Value != "," || term.IsPattern {
		t.Fatalf("unexpected separator: %#v", list.Separator)
	}
	opt, ok := items[1].(*Multi)
	if !ok || opt.Min != 0 || opt.Max != 1 {
		t.Fatalf("unexpected multi: %#v", items[1])
	}
	if group, ok := opt.Item.(*Group); !ok || len(group.Choice.Alternatives) != 2 {
		t.Fatalf("unexpected group: %#v", opt.Item)
	}

	set, err := Compile(expr)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set.FindRule("WS"); !ok {
		t.Fatalf("inherited rules must be compiled")
	}
}

func TestGrammarBuilder_Errors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		cause   error
	}{
		{
			caption: "grammar names must be unique",
			src:     `grammar G { S = 'a' ; } grammar G { S = 'b' ; }`,
			cause:   semErrDuplicateGrammar,
		},
		{
			caption: "a base grammar must be declared in the same source",
			src:     `grammar G extends Missing { S = 'a' ; }`,
			cause:   semErrGrammarNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			grams, err := buildGrammars(t, tt.src)
			if grams != nil {
				t.Fatalf("grammars must be nil")
			}
			if !errors.Is(err, tt.cause) {
				t.Fatalf("unexpected error; want: %v, got: %v", tt.cause, err)
			}
		})
	}
}

func TestFindGrammar(t *testing.T) {
	grams, err := buildGrammars(t, `
namespace ns
grammar A { S = 'a' ; }
grammar B { S = 'b' ; }
`)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		want string
	}{
		{"", "B"},
		{"A", "A"},
		{"ns.A", "A"},
	}
	for _, tt := range tests {
		g, err := FindGrammar(grams, tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if g.Name != tt.want {
			t.Fatalf("unexpected grammar; want: %v, got: %v", tt.want, g.Name)
		}
	}
	if _, err := FindGrammar(grams, "C"); !errors.Is(err, semErrGrammarNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
}
