package input

import (
	"testing"

	"github.com/dhakehurst/sppf/grammar/rule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTerminals(t *testing.T) (*rule.Rule, *rule.Rule, *rule.Rule) {
	t.Helper()
	lit := &rule.Rule{Number: 0, Kind: rule.KindTerminal, Name: "'ab'", Value: "ab"}
	pat := &rule.Rule{Number: 1, Kind: rule.KindTerminal, Name: `"[a-z]+"`, Value: "[a-z]+", IsPattern: true}
	empty := &rule.Rule{Number: 2, Kind: rule.KindTerminal, Name: rule.NameEmptyMatch, IsEmptyTerminal: true}
	_, err := rule.NewSet("test", []*rule.Rule{lit, pat, empty}, nil)
	require.NoError(t, err)
	return lit, pat, empty
}

func TestInput_Match(t *testing.T) {
	lit, pat, empty := newTerminals(t)
	in := New("abc 12")

	l := in.Match(lit, 0)
	require.NotNil(t, l)
	assert.Equal(t, 0, l.Start)
	assert.Equal(t, 2, l.End)
	assert.Same(t, l, in.Match(lit, 0), "a leaf must be shared")

	p := in.Match(pat, 0)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.End, "a pattern matches the longest text")

	assert.Nil(t, in.Match(lit, 1))
	assert.Nil(t, in.Match(pat, 4))

	e := in.Match(empty, 6)
	require.NotNil(t, e)
	assert.Equal(t, 0, e.Len())
}

func TestInput_Location(t *testing.T) {
	in := New("ab\n\u00e9e\u0301x\r\n\nz")

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		// é is two bytes, and e + combining acute is one grapheme cluster.
		{5, 2, 2},
		{8, 2, 3},
		{12, 4, 1},
		{13, 4, 2},
		{100, 4, 2},
	}
	for _, tt := range tests {
		loc := in.Location(tt.offset)
		assert.Equal(t, tt.line, loc.Line, "offset %v", tt.offset)
		assert.Equal(t, tt.column, loc.Column, "offset %v", tt.offset)
	}

	assert.Equal(t, "ab", in.Line(1))
	assert.Equal(t, "\u00e9e\u0301x", in.Line(2))
	assert.Equal(t, "", in.Line(3))
	assert.Equal(t, "z", in.Line(4))
	assert.Equal(t, "", in.Line(5))
}

func TestInput_Slice(t *testing.T) {
	in := New("hello")
	assert.Equal(t, "ell", in.Slice(1, 4))
	assert.Equal(t, "lo", in.Slice(3, 10))
	assert.Equal(t, "", in.Slice(4, 2))
	assert.True(t, in.IsEnd(5))
	assert.False(t, in.IsEnd(4))
}
