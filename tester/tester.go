// Package tester runs YAML test suites against grammars.
//
// A suite names a grammar file, relative to the suite file, and a goal rule, and lists cases:
//
//	grammar: expr.agl
//	goal: S
//	cases:
//	  - name: sum
//	    input: a+b
//	    expected: S { e { plus { e { variable { 'a' } } '+' e { variable { 'b' } } } } }
//	  - name: dangling operator
//	    input: a+
//	    fail: true
//	    longest: 1
//
// The expected tree is written in compact form. A case with fail set passes when the parse fails,
// and, when longest is given, its longest match has that length.
package tester

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dhakehurst/sppf/driver/parser"
	"github.com/dhakehurst/sppf/grammar"
	"github.com/dhakehurst/sppf/grammar/rule"
	tspec "github.com/dhakehurst/sppf/spec/test"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

type Suite struct {
	Grammar     string  `yaml:"grammar"`
	GrammarName string  `yaml:"grammar_name,omitempty"`
	Goal        string  `yaml:"goal"`
	Cases       []*Case `yaml:"cases"`
}

type Case struct {
	Name     string `yaml:"name"`
	Input    string `yaml:"input"`
	Expected string `yaml:"expected,omitempty"`
	Fail     bool   `yaml:"fail,omitempty"`
	Longest  *int   `yaml:"longest,omitempty"`
}

// ParseSuite reads a suite and checks its shape. Expected trees are parsed when the suite runs.
func ParseSuite(r io.Reader) (*Suite, error) {
	var s Suite
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty test suite")
		}
		return nil, err
	}
	if s.Grammar == "" {
		return nil, fmt.Errorf("a test suite needs a grammar file")
	}
	if s.Goal == "" {
		return nil, fmt.Errorf("a test suite needs a goal rule")
	}
	for i, c := range s.Cases {
		if c.Name == "" {
			c.Name = fmt.Sprintf("#%v", i+1)
		}
		if !c.Fail && c.Expected == "" {
			return nil, fmt.Errorf("case %v: an expected tree is required unless the case is expected to fail", c.Name)
		}
		if c.Fail && c.Expected != "" {
			return nil, fmt.Errorf("case %v: a failing case cannot have an expected tree", c.Name)
		}
		if !c.Fail && c.Longest != nil {
			return nil, fmt.Errorf("case %v: longest is only meaningful for a failing case", c.Name)
		}
	}
	return &s, nil
}

type SuiteWithMetadata struct {
	Suite    *Suite
	FilePath string
	Error    error
}

// ListSuites returns the suites under root whose paths, relative to root, match the doublestar
// pattern, such as `**/*.test.yaml`. A suite that cannot be read carries its error.
func ListSuites(root string, pattern string) []*SuiteWithMetadata {
	paths, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return []*SuiteWithMetadata{
			{
				FilePath: root,
				Error:    err,
			},
		}
	}
	slices.Sort(paths)
	var suites []*SuiteWithMetadata
	for _, p := range paths {
		path := filepath.Join(root, filepath.FromSlash(p))
		s, err := parseSuiteFile(path)
		suites = append(suites, &SuiteWithMetadata{
			Suite:    s,
			FilePath: path,
			Error:    err,
		})
	}
	return suites
}

func parseSuiteFile(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSuite(f)
}

type TestResult struct {
	SuitePath string
	CaseName  string
	Error     error
	Diffs     []*tspec.TreeDiff

	// UnifiedDiff compares the expected and the actual tree when they differ.
	UnifiedDiff string
}

func (r *TestResult) name() string {
	if r.CaseName == "" {
		return r.SuitePath
	}
	return fmt.Sprintf("%v: %v", r.SuitePath, r.CaseName)
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.name(), indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		msg = fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
		if r.UnifiedDiff != "" {
			udLines := strings.Split(strings.TrimRight(r.UnifiedDiff, "\n"), "\n")
			msg = fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(udLines, "\n"+indent2))
		}
		return msg
	}
	return fmt.Sprintf("Passed %v", r.name())
}

type Tester struct {
	Suites  []*SuiteWithMetadata
	Options []parser.ParserOption
}

func (t *Tester) Run() []*TestResult {
	sets := map[string]*rule.Set{}
	var rs []*TestResult
	for _, s := range t.Suites {
		if s.Error != nil {
			rs = append(rs, &TestResult{
				SuitePath: s.FilePath,
				Error:     s.Error,
			})
			continue
		}
		set, err := t.grammarOf(sets, s)
		if err != nil {
			rs = append(rs, &TestResult{
				SuitePath: s.FilePath,
				Error:     err,
			})
			continue
		}
		for _, c := range s.Suite.Cases {
			r := t.runCase(set, s.Suite.Goal, c)
			r.SuitePath = s.FilePath
			r.CaseName = c.Name
			rs = append(rs, r)
		}
	}
	return rs
}

// grammarOf compiles the grammar of a suite once per file and grammar name.
func (t *Tester) grammarOf(sets map[string]*rule.Set, s *SuiteWithMetadata) (*rule.Set, error) {
	path := s.Suite.Grammar
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(s.FilePath), path)
	}
	key := path + "#" + s.Suite.GrammarName
	if set, ok := sets[key]; ok {
		return set, nil
	}
	set, err := grammar.CompileFile(path, s.Suite.GrammarName)
	if err != nil {
		return nil, err
	}
	sets[key] = set
	return set, nil
}

func (t *Tester) runCase(set *rule.Set, goal string, c *Case) *TestResult {
	var expected *tspec.Tree
	if !c.Fail {
		var err error
		expected, err = tspec.ParseTreeString(c.Expected)
		if err != nil {
			return &TestResult{
				Error: fmt.Errorf("invalid expected tree: %w", err),
			}
		}
		expected.Fill()
	}

	res, err := parser.Parse(set, goal, c.Input, t.Options...)
	if err != nil {
		return &TestResult{
			Error: err,
		}
	}

	if c.Fail {
		if res.OK() {
			return &TestResult{
				Error: fmt.Errorf("the input was accepted: %v", res.Tree),
			}
		}
		if c.Longest != nil && res.Failure.LongestMatch() != *c.Longest {
			return &TestResult{
				Error: fmt.Errorf("unexpected longest match: expected %v but got %v\n%v", *c.Longest, res.Failure.LongestMatch(), res.Failure),
			}
		}
		return &TestResult{}
	}

	if !res.OK() {
		return &TestResult{
			Error: res.Failure,
		}
	}
	actual := tspec.FromNode(res.Tree.Root).Fill()
	diffs := tspec.DiffTree(expected, actual)
	if len(diffs) > 0 {
		return &TestResult{
			Error:       fmt.Errorf("output mismatch"),
			Diffs:       diffs,
			UnifiedDiff: unifiedDiff(expected, actual),
		}
	}
	return &TestResult{}
}

func unifiedDiff(expected, actual *tspec.Tree) string {
	exp := expected.Format()
	act := actual.Format()
	if bytes.Equal(exp, act) {
		return ""
	}
	d, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(exp)),
		B:        difflib.SplitLines(string(act)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return d
}
