// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"
)

type dummyIface struct{}

func (dummyIface) DropSlots(*Table[int], IndexRangeSet) {}
func (dummyIface) FlushSlots(*Table[int], []Index)      {}

func TestRegister(t *testing.T) {
	g := NewGroup()
	tab, err := Register[int](g, 128, dummyIface{})
	assert.NoError(t, err)
	assert.Equal(t, tab.Kind(), Kind(0))
	assert.Equal(t, tab.Capacity(), uint32(128))

	for want := Kind(1); want < GroupTables; want++ {
		tab, err := Register[int](g, 16, dummyIface{})
		assert.NoError(t, err)
		assert.Equal(t, tab.Kind(), want)
	}
	_, err = Register[int](g, 16, dummyIface{})
	assert.That(t, errors.Is(err, ErrOutOfTables))
}

func TestRegisterInvalidCapacity(t *testing.T) {
	g := NewGroup()
	_, err := Register[int](g, 0, dummyIface{})
	assert.That(t, errors.Is(err, ErrInvalidCapacity))
	_, err = Register[int](g, MaxCapacity+1, dummyIface{})
	assert.That(t, errors.Is(err, ErrInvalidCapacity))
	_, err = Register[int](g, MaxCapacity, dummyIface{})
	assert.NoError(t, err)
}

func TestFramesSequential(t *testing.T) {
	g := NewGroup()
	_, err := Register[int](g, 128, dummyIface{})
	assert.NoError(t, err)

	// Strictly sequential frames always land on the same side: the clock
	// advances once at frame start and once at frame end.
	for i := 0; i < 5; i++ {
		f := g.Frame()
		assert.Equal(t, f.Side(), SideA)
		f.End()
	}
}

func TestFramesDryOut(t *testing.T) {
	g := NewGroup()
	_, err := Register[int](g, 128, dummyIface{})
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		flip := func(s Side) Side {
			if i%2 == 1 {
				return s.Flip()
			}
			return s
		}

		assert.Equal(t, g.FrameSide(), flip(SideA))
		a1 := g.Frame()
		assert.Equal(t, a1.Side(), flip(SideA))

		assert.Equal(t, g.FrameSide(), flip(SideB))
		b1 := g.Frame()
		assert.Equal(t, b1.Side(), flip(SideB))

		assert.Equal(t, g.FrameSide(), flip(SideB))
		a1.End()
		assert.Equal(t, g.FrameSide(), flip(SideA))
		b1.End()
		assert.Equal(t, g.FrameSide(), flip(SideB))
	}
}

func TestFramesInterleaved(t *testing.T) {
	g := NewGroup()
	_, err := Register[int](g, 128, dummyIface{})
	assert.NoError(t, err)

	a1 := g.Frame()
	assert.Equal(t, a1.Side(), SideA)

	b1 := g.Frame()
	assert.Equal(t, b1.Side(), SideB)
	b2 := g.Frame()
	assert.Equal(t, b2.Side(), SideB)

	a1.End()
	a2 := g.Frame()
	assert.Equal(t, a2.Side(), SideA)
	a3 := g.Frame()
	assert.Equal(t, a3.Side(), SideA)

	b1.End()
	b2.End()
	b3 := g.Frame()
	assert.Equal(t, b3.Side(), SideB)

	// Ending the only frame of the current side does not switch.
	b3.End()
	b4 := g.Frame()
	assert.Equal(t, b4.Side(), SideB)

	b4.End()
	a2.End()
	a3.End()
}

func TestFrameDoubleEnd(t *testing.T) {
	g := NewGroup()
	f := g.Frame()
	f.End()
	assertPanics(t, f.End)
}
