package semantic

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/dhakehurst/sppf/driver/parser"
	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar"
	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/dhakehurst/sppf/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcGrammar = `
grammar Calc {
    skip WS = "\s+" ;
    e = n < g < mul < add ;
    mul = e '*' e ;
    add = e '+' e ;
    g = '(' e ')' ;
    n = "[0-9]+" ;
}
`

func compileGrammar(t *testing.T, src string) *rule.Set {
	t.Helper()
	ast, err := spec.Parse(strings.NewReader(src))
	require.NoError(t, err)
	b := &grammar.GrammarBuilder{
		AST: ast,
	}
	gs, err := b.Build()
	require.NoError(t, err)
	g, err := grammar.FindGrammar(gs, "")
	require.NoError(t, err)
	set, err := grammar.Compile(g)
	require.NoError(t, err)
	return set
}

func parse(t *testing.T, set *rule.Set, goal, text string) *sppf.Tree {
	t.Helper()
	res, err := parser.Parse(set, goal, text)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Failure)
	return res.Tree
}

func newCalculator() *Transformer[int] {
	return NewTransformer[int]().
		OnLeaf(`"[0-9]+"`, func(c *Context, n *sppf.Node) (int, error) {
			return strconv.Atoi(n.Text)
		}).
		OnBranch("mul", func(c *Context, n *sppf.Node, children []int) (int, error) {
			return children[0] * children[2], nil
		}).
		OnBranch("add", func(c *Context, n *sppf.Node, children []int) (int, error) {
			return children[0] + children[2], nil
		}).
		OnBranch("g", func(c *Context, n *sppf.Node, children []int) (int, error) {
			return children[1], nil
		})
}

func TestTransformer_Calculator(t *testing.T) {
	set := compileGrammar(t, calcGrammar)
	tests := []struct {
		text  string
		value int
	}{
		{"42", 42},
		{"1 + 2 * 3", 7},
		{"2 * 3 + 4", 10},
		{" ( 1 + 2 ) * 3 ", 9},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, err := newCalculator().Transform(parse(t, set, "e", tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestTransformer_Ambiguity(t *testing.T) {
	set := compileGrammar(t, calcGrammar)
	tree := parse(t, set, "e", "1 + 2 + 3")
	require.True(t, tree.IsAmbiguous())

	calc := newCalculator()
	v, err := calc.Transform(tree)
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	calc.Ambiguity = AmbiguityError
	_, err = calc.Transform(tree)
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestTransformer_NoHandler(t *testing.T) {
	set := compileGrammar(t, calcGrammar)
	tree := parse(t, set, "e", "1 + 2")

	_, err := NewTransformer[int]().Transform(tree)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestTransformer_SplicesSynthesizedRules(t *testing.T) {
	set := compileGrammar(t, `grammar G { skip WS = "\s+" ; list = [ "[a-z]+" / ',' ]* ; S = '(' list ')' ( ';' )? ; }`)
	tree := parse(t, set, "S", "( a , b ) ;")

	words := NewTransformer[[]string]().
		OnLeaf(`"[a-z]+"`, func(c *Context, n *sppf.Node) ([]string, error) {
			return []string{n.Text}, nil
		}).
		OnBranch("list", func(c *Context, n *sppf.Node, children [][]string) ([]string, error) {
			var ws []string
			for _, c := range children {
				ws = append(ws, c...)
			}
			return ws, nil
		}).
		OnBranch("S", func(c *Context, n *sppf.Node, children [][]string) ([]string, error) {
			// '(' list ')' ';'
			require.Len(t, children, 4)
			return children[1], nil
		})
	v, err := words.Transform(tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestASTTransformer(t *testing.T) {
	set := compileGrammar(t, calcGrammar)
	tree := parse(t, set, "e", "1 +\n2")

	ast, err := NewASTTransformer().Transform(tree)
	require.NoError(t, err)

	var b strings.Builder
	PrintTree(&b, ast)
	want := `e
└─ add
   ├─ e
   │  └─ n
   │     └─ "[0-9]+" '1'
   ├─ '+' '+'
   └─ e
      └─ n
         └─ "[0-9]+" '2'
`
	assert.Equal(t, want, b.String())

	two := ast.Children[0].Children[2].Children[0].Children[0]
	assert.Equal(t, 2, two.Row)
	assert.Equal(t, 1, two.Col)

	j, err := json.Marshal(ast.Children[0].Children[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1,"kind_name":"'+'","text":"+","row":1,"col":3}`, string(j))
}

func TestCSTTransformer(t *testing.T) {
	set := compileGrammar(t, calcGrammar)
	tree := parse(t, set, "e", "1 + 2")

	cst, err := NewCSTTransformer().Transform(tree)
	require.NoError(t, err)

	var kinds []string
	var walk func(n *Node)
	walk = func(n *Node) {
		kinds = append(kinds, n.KindName)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(cst)
	assert.Contains(t, kinds, "WS")
	assert.Equal(t, "e", kinds[0])
}
