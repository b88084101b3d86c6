package rule

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

type bitSet[T constraints.Integer] struct {
	words []uint64
}

func newBitSet[T constraints.Integer](size int) *bitSet[T] {
	return &bitSet[T]{
		words: make([]uint64, (size+63)/64),
	}
}

func (s *bitSet[T]) add(v T) bool {
	i, m := int(v)/64, uint64(1)<<(uint(v)%64)
	if i >= len(s.words) {
		words := make([]uint64, i+1)
		copy(words, s.words)
		s.words = words
	}
	if s.words[i]&m != 0 {
		return false
	}
	s.words[i] |= m
	return true
}

func (s *bitSet[T]) has(v T) bool {
	i := int(v) / 64
	if v < 0 || i >= len(s.words) {
		return false
	}
	return s.words[i]&(uint64(1)<<(uint(v)%64)) != 0
}

// union adds all members of o and reports whether s changed.
func (s *bitSet[T]) union(o *bitSet[T]) bool {
	if o == nil {
		return false
	}
	if len(o.words) > len(s.words) {
		words := make([]uint64, len(o.words))
		copy(words, s.words)
		s.words = words
	}
	changed := false
	for i, w := range o.words {
		n := s.words[i] | w
		if n != s.words[i] {
			s.words[i] = n
			changed = true
		}
	}
	return changed
}

func (s *bitSet[T]) len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// each calls fn for every member in ascending order.
func (s *bitSet[T]) each(fn func(v T)) {
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(T(i*64 + b))
			w &^= uint64(1) << uint(b)
		}
	}
}
