package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhakehurst/sppf/driver/input"
	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/grammar/rule"
)

var (
	ErrGenerationLimit = errors.New("generation limit exceeded")
	ErrUnknownGoal     = errors.New("unknown goal rule")
)

// ParseFailedError describes a parse that did not match the whole text.
type ParseFailedError struct {
	Goal string

	// Longest is the longest match of a rule a grammar author named, starting at the beginning
	// of the text. It is nil when nothing matched. Its descendants carry parent links, and its
	// own Parent is nil.
	Longest *sppf.Node

	// Position is the furthest position a terminal was tried at.
	Position int
	Location input.Location

	// Expected holds the terminals that were tried at Position and did not match.
	Expected []*rule.Rule
}

func (e *ParseFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v: parse failed", e.Location.Line, e.Location.Column)
	if e.Longest != nil {
		fmt.Fprintf(&b, "; longest match: %v [%v, %v)", e.Longest.Name(), e.Longest.Start, e.Longest.End)
	} else {
		fmt.Fprintf(&b, "; no match of %v", e.Goal)
	}
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, t := range e.Expected {
			names[i] = t.Name
		}
		fmt.Fprintf(&b, "; expected: %v", strings.Join(names, ", "))
	}
	return b.String()
}

// LongestMatch returns the length of the longest match, or -1 when nothing matched.
func (e *ParseFailedError) LongestMatch() int {
	if e.Longest == nil {
		return -1
	}
	return e.Longest.Len()
}

// InternalError reports a defect of the engine, such as a rule of an unknown kind.
type InternalError struct {
	Rule   string
	Detail string
}

func (e *InternalError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("internal error: %v", e.Detail)
	}
	return fmt.Sprintf("internal error: %v: %v", e.Rule, e.Detail)
}
