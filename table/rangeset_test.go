// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"testing"

	"github.com/zeebo/assert"
	"pgregory.net/rapid"
)

func TestIndexRangeSetBuild(t *testing.T) {
	var empty IndexRangeSet
	assert.That(t, empty.Empty())
	assert.Equal(t, empty.Len(), 0)

	s := NewIndexRangeSet([]Index{42, 3, 1, 9, 2, 69, 4, 6, 7, 3})
	assert.Equal(t, s.Len(), 9)
	assert.DeepEqual(t, s.Ranges(), []IndexRange{
		{Start: 1, End: 5},
		{Start: 6, End: 8},
		{Start: 9, End: 10},
		{Start: 42, End: 43},
		{Start: 69, End: 70},
	})
	assert.DeepEqual(t, s.Indices(), []Index{1, 2, 3, 4, 6, 7, 9, 42, 69})
}

func TestIndexRangeSetInsert(t *testing.T) {
	var s IndexRangeSet
	for _, i := range []Index{5, 7, 6, 0, 9, 6, 2} {
		s.Insert(i)
	}
	assert.DeepEqual(t, s.Ranges(), []IndexRange{
		{Start: 0, End: 1},
		{Start: 2, End: 3},
		{Start: 5, End: 8},
		{Start: 9, End: 10},
	})

	// Bridge two ranges with a single insert.
	s.Insert(8)
	assert.DeepEqual(t, s.Ranges(), []IndexRange{
		{Start: 0, End: 1},
		{Start: 2, End: 3},
		{Start: 5, End: 10},
	})
}

func TestIndexRangeSetRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		indices := rapid.SliceOf(rapid.Custom(func(t *rapid.T) Index {
			return Index(rapid.Uint32Range(0, 64).Draw(t, "i"))
		})).Draw(t, "indices")

		var s IndexRangeSet
		model := map[Index]bool{}
		for _, i := range indices {
			s.Insert(i)
			model[i] = true
		}

		if s.Len() != len(model) {
			t.Fatalf("Len() = %d, want %d", s.Len(), len(model))
		}
		var prev IndexRange
		for k, r := range s.Ranges() {
			if r.Start >= r.End {
				t.Fatalf("empty range %v", r)
			}
			if k > 0 && r.Start <= prev.End {
				t.Fatalf("ranges %v and %v overlap or touch", prev, r)
			}
			prev = r
		}
		s.ForEach(func(i Index) {
			if !model[i] {
				t.Fatalf("unexpected index %d", i)
			}
			delete(model, i)
		})
		if len(model) != 0 {
			t.Fatalf("%d indices missing from iteration", len(model))
		}
	})
}
