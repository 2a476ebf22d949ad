// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrOutOfCapacity is returned (wrapped in an *AllocError) when a table has no
// free slot left.
var ErrOutOfCapacity = errors.New("table: out of slot capacity")

// AllocError reports a failed slot allocation on a full table.
type AllocError struct {
	Kind     Kind
	Capacity uint32
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("table: table %d out of slots at capacity %d", e.Kind, e.Capacity)
}

func (e *AllocError) Unwrap() error { return ErrOutOfCapacity }

// Interface receives lifecycle callbacks from a Table.
//
// DropSlots is called once per reclamation cycle with the indices whose
// reference count reached zero one whole epoch ago; the payloads are still
// intact when it runs and are zeroed afterwards. FlushSlots is called by
// Group.Flush with the indices allocated since the previous flush, before
// their parked references are released.
//
// Both callbacks run under the group's flush/gc lock: they never overlap each
// other, but they must not call back into Flush, Frame or FrameGuard.End.
type Interface[S any] interface {
	DropSlots(t *Table[S], set IndexRangeSet)
	FlushSlots(t *Table[S], indices []Index)
}

// Table is one reference-counted slot table of a Group. The type parameter S
// is the payload stored per slot.
//
// Thread safety: Alloc, Get, Stats and the Slot operations may be called from
// any goroutine. Payload access through Get is only safe while the caller
// holds a reference to the slot (or a frame token minted before the reference
// was dropped).
type Table[S any] struct {
	group *Group
	kind  Kind
	iface Interface[S]

	slots  []S
	states []slotState

	// reaper holds indices whose refcount hit zero, keyed by the write
	// side current at the time of the drop. The side being drained is
	// never the side being pushed to.
	reaper Pair[indexQueue]

	// dead is the free pool, FIFO so version wear spreads across indices.
	dead indexQueue

	// flushq holds the ids allocated since the last flush. Each carries
	// one parked reference released when the flush drains it.
	flushq struct {
		mu  sync.Mutex
		ids []DescriptorID
	}

	// next is the allocation high-water mark, used once dead runs dry.
	next atomic.Uint32

	statAlloc   atomic.Uint64
	statReuse   atomic.Uint64
	statReclaim atomic.Uint64
	statRetire  atomic.Uint64
}

type slotState struct {
	refs    atomic.Uint32
	version atomic.Uint32
}

type indexQueue struct {
	mu      sync.Mutex
	indices []Index
}

func (q *indexQueue) push(i Index) {
	q.mu.Lock()
	q.indices = append(q.indices, i)
	q.mu.Unlock()
}

func (q *indexQueue) pop() (Index, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.indices) == 0 {
		return 0, false
	}
	i := q.indices[0]
	q.indices = q.indices[1:]
	return i, true
}

func (q *indexQueue) drain() []Index {
	q.mu.Lock()
	out := q.indices
	q.indices = nil
	q.mu.Unlock()
	return out
}

// Capacity returns the slot capacity the table was registered with.
func (t *Table[S]) Capacity() uint32 {
	return uint32(len(t.slots))
}

// Kind returns the table's id within its Group.
func (t *Table[S]) Kind() Kind {
	return t.kind
}

// Group returns the Group the table is registered in.
func (t *Table[S]) Group() *Group {
	return t.group
}

// Alloc places value into a free slot and returns an owning handle to it.
// The new slot starts with two references: one carried by the returned Slot
// and one parked on the flush queue until the next Group.Flush, so the slot
// stays alive at least until its descriptor has been written.
//
// Fails with an *AllocError wrapping ErrOutOfCapacity when the table is full.
// Slots freed but not yet through a reclamation cycle do not count as free.
func (t *Table[S]) Alloc(value S) (Slot, error) {
	index, reused := t.dead.pop()
	if !reused {
		i := t.next.Add(1) - 1
		if i >= t.Capacity() {
			return Slot{}, &AllocError{Kind: t.kind, Capacity: t.Capacity()}
		}
		index = Index(i)
	}

	// The index came off the free pool or the high-water mark, so this
	// goroutine is the only one touching the slot.
	t.slots[index] = value
	st := &t.states[index]
	id := NewDescriptorID(t.kind, index, Version(st.version.Load()))
	st.refs.Store(2)

	t.flushq.mu.Lock()
	t.flushq.ids = append(t.flushq.ids, id)
	t.flushq.mu.Unlock()

	t.statAlloc.Add(1)
	if reused {
		t.statReuse.Add(1)
	}
	return Slot{group: t.group, id: id}, nil
}

// Get returns the payload of the given slot without any liveness check. The
// caller must hold a reference to the slot or a frame token proving it alive.
func (t *Table[S]) Get(index Index) *S {
	return &t.slots[index]
}

// GetID is Get addressed by a full id; the kind and version are not checked.
func (t *Table[S]) GetID(id DescriptorID) *S {
	return &t.slots[id.Index()]
}

// Stats returns a snapshot of the table's lifetime counters.
func (t *Table[S]) Stats() Stats {
	return Stats{
		Allocated: t.statAlloc.Load(),
		Reused:    t.statReuse.Load(),
		Reclaimed: t.statReclaim.Load(),
		Retired:   t.statRetire.Load(),
	}
}

// Stats are lifetime counters of one table.
type Stats struct {
	// Allocated counts successful Alloc calls.
	Allocated uint64

	// Reused counts allocations served from the free pool rather than the
	// high-water mark.
	Reused uint64

	// Reclaimed counts slots returned to the free pool after a full
	// reclamation cycle.
	Reclaimed uint64

	// Retired counts slots permanently removed because their version space
	// was exhausted.
	Retired uint64
}

// Live returns the number of slots allocated and not yet through a
// reclamation cycle.
func (s Stats) Live() uint64 {
	return s.Allocated - s.Reclaimed - s.Retired
}

func (t *Table[S]) refInc(index Index) {
	t.states[index].refs.Add(1)
}

// refDec drops one reference. When the count reaches zero the index is pushed
// onto the reaper queue of the given write side; it reports whether that
// happened.
func (t *Table[S]) refDec(index Index, write Side) bool {
	switch t.states[index].refs.Add(^uint32(0)) {
	case ^uint32(0):
		panic("table: slot refcount underflow")
	case 0:
		t.reaper.Get(write).push(index)
		return true
	}
	return false
}

// tryRecover attempts to gain a new reference on the slot named by id. It
// fails if the refcount is zero (slot dead or mid-reclamation) or if the slot
// has been reused under a newer version.
func (t *Table[S]) tryRecover(id DescriptorID, write Side) bool {
	st := &t.states[id.Index()]
	for {
		old := st.refs.Load()
		if old == 0 {
			return false
		}
		if !st.refs.CompareAndSwap(old, old+1) {
			continue
		}
		if Version(st.version.Load()) == id.Version() {
			return true
		}
		// The index was reclaimed and reallocated since id was minted.
		// We briefly held a reference on the impostor; give it back.
		t.refDec(id.Index(), write)
		return false
	}
}

// collect drains one reaper queue into a range set.
func (t *Table[S]) collect(side Side) IndexRangeSet {
	return NewIndexRangeSet(t.reaper.Get(side).drain())
}

// dropIndices runs the destruction callback for collected indices, then zeroes
// the payloads and returns the indices to the free pool under a bumped
// version. Indices whose version space is exhausted are retired instead.
// Runs under the group's flush/gc lock.
func (t *Table[S]) dropIndices(set IndexRangeSet) {
	if set.Empty() {
		return
	}
	t.iface.DropSlots(t, set)

	var zero S
	set.ForEach(func(i Index) {
		t.slots[i] = zero
		if t.states[i].version.Add(1) <= MaxVersion {
			t.dead.push(i)
			t.statReclaim.Add(1)
		} else {
			t.statRetire.Add(1)
		}
	})
}

// flush drains the flush queue, hands the new indices to the interface and
// releases their parked references. Runs under the group's flush/gc lock.
func (t *Table[S]) flush(write Side) {
	t.flushq.mu.Lock()
	ids := t.flushq.ids
	t.flushq.ids = nil
	t.flushq.mu.Unlock()
	if len(ids) == 0 {
		return
	}

	indices := make([]Index, len(ids))
	for k, id := range ids {
		indices[k] = id.Index()
	}
	t.iface.FlushSlots(t, indices)

	// Slots whose last reference was the parked one land on the current
	// write queue here; it cannot be drained mid-flush because gc takes
	// the same lock.
	for _, id := range ids {
		t.refDec(id.Index(), write)
	}
}
