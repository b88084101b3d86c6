package tester

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exprGrammar = `
grammar Expr {
    skip WS = "\s+" ;
    S = e ;
    e = variable < multiply < plus ;
    multiply = e '*' e ;
    plus = e '+' e ;
    variable = "[a-z]+" ;
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSuite(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		err     string
	}{
		{
			caption: "a valid suite",
			src: `
grammar: expr.agl
goal: S
cases:
  - name: single
    input: a
    expected: |
      S { e { variable { 'a' } } }
  - input: a+
    fail: true
    longest: 1
`,
		},
		{
			caption: "the grammar file is missing",
			src:     "goal: S\n",
			err:     "grammar file",
		},
		{
			caption: "the goal is missing",
			src:     "grammar: expr.agl\n",
			err:     "goal rule",
		},
		{
			caption: "a passing case needs an expected tree",
			src: `
grammar: expr.agl
goal: S
cases:
  - name: no tree
    input: a
`,
			err: "expected tree is required",
		},
		{
			caption: "longest needs a failing case",
			src: `
grammar: expr.agl
goal: S
cases:
  - name: c
    input: a
    expected: S { e { variable { 'a' } } }
    longest: 1
`,
			err: "longest is only meaningful",
		},
		{
			caption: "unknown fields are rejected",
			src:     "grammar: expr.agl\ngoal: S\ntimeout: 3\n",
			err:     "timeout",
		},
		{
			caption: "an empty document",
			src:     "",
			err:     "empty test suite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			s, err := ParseSuite(strings.NewReader(tt.src))
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			require.Len(t, s.Cases, 2)
			assert.Equal(t, "single", s.Cases[0].Name)
			assert.Equal(t, "#2", s.Cases[1].Name)
			require.NotNil(t, s.Cases[1].Longest)
			assert.Equal(t, 1, *s.Cases[1].Longest)
		})
	}
}

func TestListSuites(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/expr.test.yaml", "grammar: ../expr.agl\ngoal: S\n")
	writeFile(t, dir, "a/deep/expr.test.yaml", "grammar: ../../expr.agl\ngoal: S\n")
	writeFile(t, dir, "a/broken.test.yaml", "goal: S\n")
	writeFile(t, dir, "a/notes.txt", "not a suite")

	suites := ListSuites(dir, "**/*.test.yaml")
	require.Len(t, suites, 3)
	assert.Equal(t, filepath.Join(dir, "a", "broken.test.yaml"), suites[0].FilePath)
	assert.Error(t, suites[0].Error)
	assert.Equal(t, filepath.Join(dir, "a", "deep", "expr.test.yaml"), suites[1].FilePath)
	assert.NoError(t, suites[1].Error)
	assert.Equal(t, filepath.Join(dir, "b", "expr.test.yaml"), suites[2].FilePath)
	assert.NoError(t, suites[2].Error)

	bad := ListSuites(dir, "[")
	require.Len(t, bad, 1)
	assert.Error(t, bad[0].Error)
}

func TestTester_Run(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "expr.agl", exprGrammar)
	writeFile(t, dir, "suites/expr.test.yaml", `
grammar: ../expr.agl
goal: S
cases:
  - name: a variable
    input: a
    expected: |
      S { e { variable { 'a' } } }
  - name: skip content
    input: "a + b"
    expected: |
      S {
          e {
              plus {
                  e { variable { 'a' } }
                  WS { ' ' }
                  '+'
                  e { variable { WS { ' ' } 'b' } }
              }
          }
      }
  - name: wildcard
    input: a*b
    expected: |
      S { e { _ { e { variable { 'a' } } '*' e { _ { 'b' } } } } }
  - name: dangling operator
    input: a+
    fail: true
    longest: 1
  - name: wrong tree
    input: a
    expected: |
      S { e { variable { 'b' } } }
  - name: wrong longest
    input: a+
    fail: true
    longest: 2
  - name: unexpected success
    input: a
    fail: true
  - name: unexpected failure
    input: +
    expected: |
      S { e { variable { 'a' } } }
  - name: broken expected tree
    input: a
    expected: |
      S { e
`)
	writeFile(t, dir, "suites/missing.test.yaml", "grammar: ../nothing.agl\ngoal: S\ncases: []\n")
	writeFile(t, dir, "suites/unknown-goal.test.yaml", `
grammar: ../expr.agl
goal: T
cases:
  - input: a
    expected: T { 'a' }
`)

	tr := &Tester{
		Suites: ListSuites(dir, "suites/*.test.yaml"),
	}
	rs := tr.Run()

	results := map[string]*TestResult{}
	for _, r := range rs {
		results[filepath.Base(r.SuitePath)+": "+r.CaseName] = r
	}
	require.Len(t, results, 11)

	for _, name := range []string{"a variable", "skip content", "wildcard", "dangling operator"} {
		r := results["expr.test.yaml: "+name]
		require.NotNil(t, r, name)
		assert.NoError(t, r.Error, name)
		assert.Equal(t, "Passed "+r.SuitePath+": "+name, r.String())
	}

	wrongTree := results["expr.test.yaml: wrong tree"]
	require.Error(t, wrongTree.Error)
	require.Len(t, wrongTree.Diffs, 1)
	assert.Equal(t, "S.[0]e.[0]variable.[0]'b'", wrongTree.Diffs[0].ExpectedPath)
	assert.Contains(t, wrongTree.UnifiedDiff, "--- expected")
	assert.Contains(t, wrongTree.UnifiedDiff, "+++ actual")
	assert.Contains(t, wrongTree.UnifiedDiff, "-")
	s := wrongTree.String()
	assert.True(t, strings.HasPrefix(s, "Failed "), s)
	assert.Contains(t, s, "output mismatch")
	assert.Contains(t, s, "expected path: S.[0]e.[0]variable.[0]'b'")

	for _, name := range []string{"wrong longest", "unexpected success", "unexpected failure", "broken expected tree"} {
		r := results["expr.test.yaml: "+name]
		require.NotNil(t, r, name)
		assert.Error(t, r.Error, name)
	}
	assert.Contains(t, results["expr.test.yaml: wrong longest"].Error.Error(), "expected 2 but got 1")

	missing := results["missing.test.yaml: "]
	require.NotNil(t, missing)
	assert.Error(t, missing.Error)

	unknown := results["unknown-goal.test.yaml: #1"]
	require.NotNil(t, unknown)
	assert.Error(t, unknown.Error)
}

func TestTester_Testdata(t *testing.T) {
	tr := &Tester{
		Suites: ListSuites("testdata", "**/*.test.yaml"),
	}
	rs := tr.Run()
	require.Len(t, rs, 4)
	for _, r := range rs {
		assert.NoError(t, r.Error, r.String())
	}
}
