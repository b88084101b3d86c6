// Package input holds the text of one parse. It matches terminals at absolute byte positions,
// remembers every match, and hands out one Leaf per (terminal, start, end).
package input

import (
	"slices"
	"sync"

	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/rivo/uniseg"
)

// Leaf is a terminal matched at a position. An Input returns the same *Leaf for the same
// terminal and span, so leaves can be compared by pointer.
type Leaf struct {
	Terminal *rule.Rule
	Start    int
	End      int
}

func (l *Leaf) Len() int {
	return l.End - l.Start
}

type matchKey struct {
	terminal int
	pos      int
}

// Location is a line and a column, both 1-indexed. Columns count grapheme clusters.
type Location struct {
	Offset int
	Line   int
	Column int
}

// Input is not safe for concurrent use; every parse owns its own Input.
type Input struct {
	text string

	matches map[matchKey]*Leaf

	once      sync.Once
	lineIndex []int
}

func New(text string) *Input {
	return &Input{
		text:    text,
		matches: map[matchKey]*Leaf{},
	}
}

func (in *Input) Text() string {
	return in.text
}

func (in *Input) Len() int {
	return len(in.text)
}

// IsEnd reports whether pos is at or past the end of the text.
func (in *Input) IsEnd(pos int) bool {
	return pos >= len(in.text)
}

// Slice returns the text between start and end, clamped to the text.
func (in *Input) Slice(start, end int) string {
	start = max(0, min(start, len(in.text)))
	end = max(start, min(end, len(in.text)))
	return in.text[start:end]
}

// Match matches the terminal t at pos. It returns nil when t does not match. Both matches and
// failures are remembered, so a terminal is matched at most once per position.
func (in *Input) Match(t *rule.Rule, pos int) *Leaf {
	key := matchKey{
		terminal: t.Number,
		pos:      pos,
	}
	if leaf, ok := in.matches[key]; ok {
		return leaf
	}
	var leaf *Leaf
	if end, ok := t.Match(in.text, pos); ok {
		leaf = &Leaf{
			Terminal: t,
			Start:    pos,
			End:      end,
		}
	}
	in.matches[key] = leaf
	return leaf
}

// Location converts a byte offset into a line and a column.
func (in *Input) Location(offset int) Location {
	offset = max(0, min(offset, len(in.text)))
	lines := in.lines()

	line, exact := slices.BinarySearch(lines, offset)
	if !exact {
		line--
	}
	return Location{
		Offset: offset,
		Line:   line + 1,
		Column: uniseg.GraphemeClusterCount(in.text[lines[line]:offset]) + 1,
	}
}

// Line returns the text of the 1-indexed line without its line terminator.
func (in *Input) Line(line int) string {
	lines := in.lines()
	if line < 1 || line > len(lines) {
		return ""
	}
	start := lines[line-1]
	end := len(in.text)
	if line < len(lines) {
		end = lines[line] - 1
	}
	if end > start && in.text[end-1] == '\r' {
		end--
	}
	return in.text[start:end]
}

func (in *Input) lines() []int {
	in.once.Do(func() {
		in.lineIndex = []int{0}
		for i := 0; i < len(in.text); i++ {
			if in.text[i] == '\n' {
				in.lineIndex = append(in.lineIndex, i+1)
			}
		}
	})
	return in.lineIndex
}
