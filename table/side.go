// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

// Side selects one half of a double-buffered structure. While one side
// accumulates new entries (the write side), the other drains; flipping the
// selector is the only synchronization point between the two roles.
type Side uint32

const (
	// SideA is the first double-buffer side.
	SideA Side = 0

	// SideB is the second double-buffer side.
	SideB Side = 1
)

// Sides lists both sides, for code that must visit each queue exactly once.
var Sides = [2]Side{SideA, SideB}

// Flip returns the opposite side.
func (s Side) Flip() Side {
	return s ^ 1
}

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

// Pair is a two-element array indexed by Side.
type Pair[T any] struct {
	v [2]T
}

// NewPair builds a Pair by calling f once per side.
func NewPair[T any](f func() T) Pair[T] {
	return Pair[T]{v: [2]T{f(), f()}}
}

// Get returns a pointer to the element for the given side.
func (p *Pair[T]) Get(s Side) *T {
	return &p.v[s&1]
}
