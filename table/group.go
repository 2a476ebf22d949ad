// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrOutOfTables is returned by Register when all table ids of a Group are
// taken.
var ErrOutOfTables = errors.New("table: group table ids exhausted")

// ErrInvalidCapacity is returned by Register for a capacity of zero or above
// MaxCapacity.
var ErrInvalidCapacity = errors.New("table: invalid slot capacity")

// Group ties up to GroupTables tables to one shared reclamation clock.
//
// The clock is driven by frame guards. Each guard is pinned to one side of a
// double buffer; indices freed while a side is the write side may only be
// reclaimed once every frame pinned to the opposite side has ended, which is
// when the group drains the sealed queue, runs the destruction callbacks and
// flips the write side.
//
// Thread safety: all methods may be called from any goroutine once every
// Register call has completed. Register itself must not race with use of the
// group.
type Group struct {
	mu     sync.Mutex // guards frames and registration
	frames [2]uint32
	nTab   int

	// write is the side that refcount-zero events are currently queued on.
	// Only gc flips it, under both mu and flushGC.
	write atomic.Uint32

	// flushGC serializes flushes against each other and against gc, so a
	// parked flush reference is never reclaimed mid-flush.
	flushGC sync.Mutex

	tables [GroupTables]anyTable
}

// anyTable erases the payload type of a Table so a Group can hold a
// heterogeneous set.
type anyTable interface {
	refInc(index Index)
	refDec(index Index, write Side) bool
	tryRecover(id DescriptorID, write Side) bool
	collect(side Side) IndexRangeSet
	dropIndices(set IndexRangeSet)
	flush(write Side)
}

// NewGroup returns an empty Group. Frames start on SideA.
func NewGroup() *Group {
	g := &Group{}
	g.write.Store(uint32(SideB))
	return g
}

// Register adds a table with the given slot capacity and lifecycle callbacks
// to the group. Tables get ids in registration order. Register must complete
// before the group is used concurrently.
func Register[S any](g *Group, capacity uint32, iface Interface[S]) (*Table[S], error) {
	if capacity == 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("table: capacity %d not in 1..%d: %w",
			capacity, MaxCapacity, ErrInvalidCapacity)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nTab >= GroupTables {
		return nil, ErrOutOfTables
	}
	t := &Table[S]{
		group:  g,
		kind:   Kind(g.nTab),
		iface:  iface,
		slots:  make([]S, capacity),
		states: make([]slotState, capacity),
	}
	g.tables[g.nTab] = t
	g.nTab++
	return t, nil
}

func (g *Group) writeSide() Side {
	return Side(g.write.Load())
}

// FrameSide returns the side the next frame guard will be pinned to: the
// opposite of the current write side.
func (g *Group) FrameSide() Side {
	return g.writeSide().Flip()
}

// Frame pins a new frame guard to the current frame side. The guard must be
// ended exactly once, after all work recorded during the frame has completed.
//
// Starting a frame while the opposite side has none in flight also advances
// the clock, so a caller issuing strictly sequential frames still alternates
// sides and queues still drain.
func (g *Group) Frame() *FrameGuard {
	g.mu.Lock()
	side := g.FrameSide()
	g.frames[side]++
	if g.frames[side.Flip()] == 0 {
		g.gcLocked(side.Flip())
	} else {
		g.mu.Unlock()
	}
	return &FrameGuard{group: g, side: side}
}

func (g *Group) frameDrop(side Side) {
	g.mu.Lock()
	switch g.frames[side] {
	case 0:
		g.mu.Unlock()
		panic("table: frame guard count underflow")
	case 1:
		g.frames[side] = 0
		if g.FrameSide() != side {
			g.gcLocked(side)
			return
		}
		g.mu.Unlock()
	default:
		g.frames[side]--
		g.mu.Unlock()
	}
}

// gcLocked runs a reclamation cycle after the last frame of the given side
// ended: it drains the sealed reaper queues (the side opposite the dropped
// one), flips the write side onto the drained queues and runs the destruction
// callbacks.
//
// Called with g.mu held; releases it before the callbacks run so new frames
// and refcount traffic proceed during destruction.
func (g *Group) gcLocked(dropped Side) {
	g.flushGC.Lock()
	gcSide := dropped.Flip()
	var sets [GroupTables]IndexRangeSet
	for i := 0; i < g.nTab; i++ {
		sets[i] = g.tables[i].collect(gcSide)
	}
	g.write.Store(uint32(gcSide))
	g.mu.Unlock()

	for i := 0; i < g.nTab; i++ {
		g.tables[i].dropIndices(sets[i])
	}
	g.flushGC.Unlock()
}

// TryRecover attempts to turn a bare id back into an owning handle. It fails
// if the slot has been freed or its index reused under a newer version, or if
// the id names an unregistered table.
func (g *Group) TryRecover(id DescriptorID) (Slot, bool) {
	t := g.tables[id.Kind()&kindMask]
	if t == nil {
		return Slot{}, false
	}
	if !t.tryRecover(id, g.writeSide()) {
		return Slot{}, false
	}
	return Slot{group: g, id: id}, true
}

// Flush drains every table's flush queue through its FlushSlots callback and
// releases the parked allocation references. Call after allocating and before
// submitting work that reads the new descriptors.
func (g *Group) Flush() {
	g.flushGC.Lock()
	defer g.flushGC.Unlock()
	w := g.writeSide()
	for i := 0; i < g.nTab; i++ {
		g.tables[i].flush(w)
	}
}

// Close flushes all tables and forces both reaper queues through their
// destruction callbacks. The caller must guarantee no frames are in flight
// and the GPU is idle; slots still referenced are not destroyed and their
// resources leak.
func (g *Group) Close() {
	g.flushGC.Lock()
	defer g.flushGC.Unlock()
	w := g.writeSide()
	for i := 0; i < g.nTab; i++ {
		g.tables[i].flush(w)
	}
	// Destruction callbacks may release references they held (buffer backing
	// refs), queueing further drops. Keep draining until a pass stays empty.
	for {
		dropped := false
		for _, side := range Sides {
			for i := 0; i < g.nTab; i++ {
				set := g.tables[i].collect(side)
				if !set.Empty() {
					dropped = true
					g.tables[i].dropIndices(set)
				}
			}
		}
		if !dropped {
			return
		}
	}
}

// FrameGuard pins one in-flight frame to a side of the group's reclamation
// double buffer. See Group.Frame.
type FrameGuard struct {
	group *Group
	side  Side
	ended atomic.Bool
}

// Side returns the side the guard is pinned to.
func (f *FrameGuard) Side() Side {
	return f.side
}

// End marks the frame complete. Ending the last guard of a side triggers a
// reclamation cycle. End panics when called twice.
func (f *FrameGuard) End() {
	if !f.ended.CompareAndSwap(false, true) {
		panic("table: frame guard ended twice")
	}
	f.group.frameDrop(f.side)
}
