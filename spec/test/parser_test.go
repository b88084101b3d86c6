package test

import (
	"strings"
	"testing"
)

func TestDiffTree(t *testing.T) {
	tests := []struct {
		t1        *Tree
		t2        *Tree
		different bool
	}{
		{
			t1: NewBranch("a", []*Tree{NewLeaf("x")}),
			t2: NewBranch("a", []*Tree{NewLeaf("x")}),
		},
		{
			t1: NewBranch("a",
				[]*Tree{
					NewBranch("b", []*Tree{NewLeaf("x")}),
					NewEmptyLeaf(),
				},
			),
			t2: NewBranch("a",
				[]*Tree{
					NewBranch("b", []*Tree{NewLeaf("x")}),
					NewEmptyLeaf(),
				},
			),
		},
		{
			t1: NewBranch(KindAny, []*Tree{NewLeaf("x")}),
			t2: NewBranch("a", []*Tree{NewLeaf("x")}),
		},
		{
			t1: NewBranch("a",
				[]*Tree{NewLeaf("x")},
				[]*Tree{NewBranch("b", []*Tree{NewLeaf("x")})},
			),
			t2: NewBranch("a",
				[]*Tree{NewLeaf("x")},
				[]*Tree{NewBranch("b", []*Tree{NewLeaf("x")})},
			),
		},
		{
			t1:        NewBranch("a", []*Tree{NewLeaf("x")}),
			t2:        NewBranch("b", []*Tree{NewLeaf("x")}),
			different: true,
		},
		{
			t1:        NewBranch("a", []*Tree{NewLeaf("x")}),
			t2:        NewBranch("a", []*Tree{NewLeaf("y")}),
			different: true,
		},
		{
			t1:        NewBranch("a", []*Tree{NewLeaf("x")}),
			t2:        NewBranch("a", []*Tree{NewLeaf("x"), NewLeaf("x")}),
			different: true,
		},
		{
			t1:        NewBranch("a", []*Tree{NewLeaf("")}),
			t2:        NewBranch("a", []*Tree{NewEmptyLeaf()}),
			different: true,
		},
		{
			t1: NewBranch("a", []*Tree{NewLeaf("x")}),
			t2: NewBranch("a",
				[]*Tree{NewLeaf("x")},
				[]*Tree{NewBranch("b", []*Tree{NewLeaf("x")})},
			),
			different: true,
		},
	}
	for i, tt := range tests {
		t.Run(strings.Repeat("#", i+1), func(t *testing.T) {
			diffs := DiffTree(tt.t1.Fill(), tt.t2.Fill())
			if tt.different && len(diffs) == 0 {
				t.Fatalf("unexpected result: want: different, got: same")
			}
			if !tt.different && len(diffs) > 0 {
				t.Fatalf("unexpected result: want: same, got: different: %v", diffs[0].Message)
			}
		})
	}
}

func TestDiffTree_Path(t *testing.T) {
	exp, err := ParseTreeString(`S { e {| 'a' || x { 'a' } |} 'b' }`)
	if err != nil {
		t.Fatal(err)
	}
	act, err := ParseTreeString(`S { e {| 'a' || x { 'c' } |} 'b' }`)
	if err != nil {
		t.Fatal(err)
	}
	diffs := DiffTree(exp, act)
	if len(diffs) != 1 {
		t.Fatalf("unexpected diffs: %v", diffs)
	}
	if want := `S.[0]e.<2>[0]x.[0]'a'`; diffs[0].ExpectedPath != want {
		t.Fatalf("unexpected path; want: %v, got: %v", want, diffs[0].ExpectedPath)
	}
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tree    *Tree
		err     bool
	}{
		{
			caption: "a branch with a leaf",
			src:     `S { 'a' }`,
			tree:    NewBranch("S", []*Tree{NewLeaf("a")}),
		},
		{
			caption: "nested branches, escapes, and an empty leaf",
			src: `
S {
    'a\'\n'
    WS { ' ' }
    §S§multi1 { §empty }
}`,
			tree: NewBranch("S", []*Tree{
				NewLeaf("a'\n"),
				NewBranch("WS", []*Tree{NewLeaf(" ")}),
				NewBranch("§S§multi1", []*Tree{NewEmptyLeaf()}),
			}),
		},
		{
			caption: "an ambiguous branch",
			src:     `e {| e { 'a' } '+' 'a' || 'a' '+' e { 'a' } |}`,
			tree: NewBranch("e",
				[]*Tree{NewBranch("e", []*Tree{NewLeaf("a")}), NewLeaf("+"), NewLeaf("a")},
				[]*Tree{NewLeaf("a"), NewLeaf("+"), NewBranch("e", []*Tree{NewLeaf("a")})},
			),
		},
		{
			caption: "a branch without children",
			src:     `S { }`,
			tree:    NewBranch("S", []*Tree{}),
		},
		{
			caption: "a wildcard",
			src:     `_ { 'a' }`,
			tree:    NewBranch(KindAny, []*Tree{NewLeaf("a")}),
		},
		{
			caption: "a branch must be closed",
			src:     `S { 'a'`,
			err:     true,
		},
		{
			caption: "a branch needs children",
			src:     `S`,
			err:     true,
		},
		{
			caption: "only one tree is allowed",
			src:     `S { 'a' } T { 'b' }`,
			err:     true,
		},
		{
			caption: "an unknown escape sequence",
			src:     `S { '\x' }`,
			err:     true,
		},
		{
			caption: "a stray bar",
			src:     `S { | }`,
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tree, err := ParseTreeString(tt.src)
			if tt.err {
				if err == nil {
					t.Fatalf("an error must occur")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diffs := DiffTree(tt.tree.Fill(), tree); len(diffs) > 0 {
				t.Fatalf("unexpected tree: %v: %v\n%s", diffs[0].ExpectedPath, diffs[0].Message, tree.Format())
			}
		})
	}
}

func TestTree_Format(t *testing.T) {
	tree, err := ParseTreeString(`e {| 'a' || x { §empty } |}`)
	if err != nil {
		t.Fatal(err)
	}
	want := `e {|
    'a'
||
    x {
        §empty
    }
|}
`
	if got := string(tree.Format()); got != want {
		t.Fatalf("unexpected format; want:\n%v\ngot:\n%v", want, got)
	}
}
