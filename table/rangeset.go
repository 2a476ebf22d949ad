// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"slices"
	"sort"
)

// IndexRange is a half-open range [Start, End) of slot indices.
type IndexRange struct {
	Start Index
	End   Index
}

// IndexRangeSet is a compressed set of slot indices stored as sorted,
// non-overlapping, non-adjacent half-open ranges. Reclaimed indices tend to
// cluster (resources allocated together die together), so destruction
// callbacks receive ranges instead of one call per index.
//
// The zero value is an empty set. IndexRangeSet is not safe for concurrent
// mutation.
type IndexRangeSet struct {
	ranges []IndexRange
}

// NewIndexRangeSet builds a set from an arbitrary, possibly unsorted and
// duplicated, list of indices.
func NewIndexRangeSet(indices []Index) IndexRangeSet {
	var s IndexRangeSet
	if len(indices) == 0 {
		return s
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	run := IndexRange{Start: sorted[0], End: sorted[0] + 1}
	for _, i := range sorted[1:] {
		switch {
		case i < run.End: // duplicate
		case i == run.End:
			run.End++
		default:
			s.ranges = append(s.ranges, run)
			run = IndexRange{Start: i, End: i + 1}
		}
	}
	s.ranges = append(s.ranges, run)
	return s
}

// Insert adds a single index, coalescing with neighboring ranges.
func (s *IndexRangeSet) Insert(i Index) {
	// Find the first range with End >= i: the only candidate that may
	// contain i or touch it from the left.
	pos := sort.Search(len(s.ranges), func(k int) bool { return s.ranges[k].End >= i })
	if pos == len(s.ranges) {
		s.ranges = append(s.ranges, IndexRange{Start: i, End: i + 1})
		return
	}
	r := &s.ranges[pos]
	switch {
	case r.Start <= i && i < r.End:
		// Already present.
	case r.End == i:
		// Extends r upward; may bridge to the next range.
		if pos+1 < len(s.ranges) && s.ranges[pos+1].Start == i+1 {
			r.End = s.ranges[pos+1].End
			s.ranges = append(s.ranges[:pos+1], s.ranges[pos+2:]...)
		} else {
			r.End = i + 1
		}
	case r.Start == i+1:
		// Extends r downward. The range below cannot touch: its End < i.
		r.Start = i
	default:
		// r lies strictly above i+1; insert a standalone range before it.
		s.ranges = append(s.ranges, IndexRange{})
		copy(s.ranges[pos+1:], s.ranges[pos:])
		s.ranges[pos] = IndexRange{Start: i, End: i + 1}
	}
}

// Empty reports whether the set holds no indices.
func (s *IndexRangeSet) Empty() bool {
	return len(s.ranges) == 0
}

// Len returns the number of indices in the set.
func (s *IndexRangeSet) Len() int {
	n := 0
	for _, r := range s.ranges {
		n += int(r.End - r.Start)
	}
	return n
}

// Ranges returns the underlying sorted ranges. The slice must not be
// modified.
func (s *IndexRangeSet) Ranges() []IndexRange {
	return s.ranges
}

// ForEach calls f for every index in ascending order, without duplicates.
func (s *IndexRangeSet) ForEach(f func(Index)) {
	for _, r := range s.ranges {
		for i := r.Start; i < r.End; i++ {
			f(i)
		}
	}
}

// Indices expands the set into a sorted slice of indices.
func (s *IndexRangeSet) Indices() []Index {
	out := make([]Index, 0, s.Len())
	s.ForEach(func(i Index) { out = append(out, i) })
	return out
}
