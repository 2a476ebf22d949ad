// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import (
	"errors"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zeebo/assert"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordIface records the index sets passed to DropSlots, one entry per
// reclamation cycle.
type recordIface struct {
	mu    sync.Mutex
	drops [][]uint32
}

func (r *recordIface) DropSlots(_ *Table[int], set IndexRangeSet) {
	var ix []uint32
	set.ForEach(func(i Index) { ix = append(ix, uint32(i)) })
	r.mu.Lock()
	r.drops = append(r.drops, ix)
	r.mu.Unlock()
}

func (r *recordIface) FlushSlots(*Table[int], []Index) {}

func (r *recordIface) take() [][]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.drops
	r.drops = nil
	return d
}

func TestAlloc(t *testing.T) {
	const n = 4
	g := NewGroup()
	tab, err := Register[int](g, n, dummyIface{})
	assert.NoError(t, err)

	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		s, err := tab.Alloc(42 + i)
		assert.NoError(t, err)
		assert.Equal(t, s.ID().Index(), Index(i))
		assert.Equal(t, s.ID().Kind(), Kind(0))
		assert.Equal(t, s.ID().Version(), Version(0))
		assert.Equal(t, *tab.GetID(s.ID()), 42+i)
		slots = append(slots, s)
	}

	_, err = tab.Alloc(69)
	assert.That(t, errors.Is(err, ErrOutOfCapacity))
	var ae *AllocError
	assert.That(t, errors.As(err, &ae))
	assert.Equal(t, ae.Capacity, uint32(n))

	// Asking again while still full fails the same way.
	_, err = tab.Alloc(70)
	assert.That(t, errors.Is(err, ErrOutOfCapacity))

	for _, s := range slots {
		s.Release()
	}
	g.Flush()
}

func TestSlotReuse(t *testing.T) {
	g := NewGroup()
	tab, err := Register[int](g, 128, dummyIface{})
	assert.NoError(t, err)

	alloc := func(cnt, expOffset uint32, expVersion Version) []Slot {
		t.Helper()
		out := make([]Slot, 0, cnt)
		for i := uint32(0); i < cnt; i++ {
			s, err := tab.Alloc(int(42 + i))
			assert.NoError(t, err)
			assert.Equal(t, *tab.GetID(s.ID()), int(42+i))
			assert.Equal(t, s.ID().Index(), Index(i+expOffset))
			assert.Equal(t, s.ID().Version(), expVersion)
			out = append(out, s)
		}
		g.Flush()
		return out
	}
	release := func(slots ...[]Slot) {
		for _, batch := range slots {
			for _, s := range batch {
				s.Release()
			}
		}
	}
	cycle := func() {
		for i := 0; i < 3; i++ {
			g.Frame().End()
		}
	}

	alloc1 := alloc(5, 0, 0)
	alloc2 := alloc(8, 5, 0)
	release(alloc1)
	cycle()

	// Freed indices come back in order with a bumped version; fresh
	// allocations continue past the high-water mark at version 0.
	alloc1 = alloc(5, 0, 1)
	alloc3 := alloc(3, 5+8, 0)
	release(alloc2)
	cycle()

	alloc2 = alloc(8, 5, 1)
	alloc4 := alloc(1, 5+8+3, 0)
	release(alloc1, alloc2, alloc3)
	cycle()

	alloc1 = alloc(5, 0, 2)
	alloc2 = alloc(8, 5, 2)
	alloc3 = alloc(3, 5+8, 1)
	alloc5 := alloc(2, 5+8+3+1, 0)
	release(alloc1, alloc2, alloc3, alloc4, alloc5)
}

// frameSwitch keeps one frame in flight per side, ending the oldest before
// starting the next, the way a double-buffered renderer drives the clock.
type frameSwitch struct {
	t    *testing.T
	g    *Group
	held [2]*FrameGuard
	side Side
}

func newFrameSwitch(t *testing.T, g *Group) *frameSwitch {
	s := &frameSwitch{t: t, g: g, side: SideA}
	for i := 0; i < 3; i++ {
		s.next()
	}
	return s
}

func (s *frameSwitch) next() {
	s.t.Helper()
	if f := s.held[s.side]; f != nil {
		f.End()
	}
	f := s.g.Frame()
	assert.Equal(s.t, f.Side(), s.side)
	s.held[s.side] = f
	s.side = s.side.Flip()
}

func (s *frameSwitch) stop() {
	for i, f := range s.held {
		if f != nil {
			f.End()
			s.held[i] = nil
		}
	}
}

func TestGC(t *testing.T) {
	g := NewGroup()
	ti := &recordIface{}
	tab, err := Register[int](g, 128, ti)
	assert.NoError(t, err)

	sw := newFrameSwitch(t, g)
	defer sw.stop()
	ti.take()

	slot1, err := tab.Alloc(42)
	assert.NoError(t, err)
	slot2, err := tab.Alloc(69)
	assert.NoError(t, err)
	g.Flush()

	slot1.Release()
	assert.Equal(t, len(ti.take()), 0)

	sw.next()
	assert.Equal(t, len(ti.take()), 0)

	slot2.Release()
	sw.next()
	assert.DeepEqual(t, ti.take(), [][]uint32{{0}})

	sw.next()
	assert.DeepEqual(t, ti.take(), [][]uint32{{1}})

	sw.next()
	assert.Equal(t, len(ti.take()), 0)
	sw.next()
	assert.Equal(t, len(ti.take()), 0)
}

func TestGCLongFrame(t *testing.T) {
	g := NewGroup()
	ti := &recordIface{}
	tab, err := Register[int](g, 128, ti)
	assert.NoError(t, err)

	a1 := g.Frame()
	assert.Equal(t, a1.Side(), SideA)
	longB := g.Frame()
	assert.Equal(t, longB.Side(), SideB)
	a1.End()

	s, err := tab.Alloc(42)
	assert.NoError(t, err)
	s.Release()
	g.Flush()
	assert.Equal(t, len(ti.take()), 0)

	// No number of frames on the other side reclaims anything while the
	// long frame is still in flight.
	for i := 0; i < 5; i++ {
		a := g.Frame()
		assert.Equal(t, a.Side(), SideA)
		a.End()
		assert.Equal(t, len(ti.take()), 0)
	}

	// Ending the long frame drains the sealed (empty) queue.
	longB.End()
	assert.Equal(t, len(ti.take()), 0)

	// The next cycle reaches the queue holding the slot.
	g.Frame().End()
	assert.DeepEqual(t, ti.take(), [][]uint32{{0}})
}

func TestGCDryOut(t *testing.T) {
	g := NewGroup()
	ti := &recordIface{}
	tab, err := Register[int](g, 128, ti)
	assert.NoError(t, err)

	a1 := g.Frame()
	s, err := tab.Alloc(42)
	assert.NoError(t, err)
	s.Release()
	g.Flush()
	a1.End()
	assert.Equal(t, len(ti.take()), 0)

	g.Frame().End()
	assert.DeepEqual(t, ti.take(), [][]uint32{{0}})
}

func TestStats(t *testing.T) {
	g := NewGroup()
	tab, err := Register[int](g, 4, dummyIface{})
	assert.NoError(t, err)

	a, err := tab.Alloc(42)
	assert.NoError(t, err)
	b, err := tab.Alloc(43)
	assert.NoError(t, err)
	g.Flush()

	a.Release()
	for i := 0; i < 3; i++ {
		g.Frame().End()
	}

	c, err := tab.Alloc(44)
	assert.NoError(t, err)
	assert.Equal(t, c.ID().Index(), Index(0))
	assert.Equal(t, c.ID().Version(), Version(1))

	st := tab.Stats()
	assert.Equal(t, st.Allocated, uint64(3))
	assert.Equal(t, st.Reused, uint64(1))
	assert.Equal(t, st.Reclaimed, uint64(1))
	assert.Equal(t, st.Retired, uint64(0))

	b.Release()
	c.Release()
	g.Flush()
	g.Close()
}

func TestTableLifecycleRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := NewGroup()
		ti := &recordIface{}
		tab, err := Register[int](g, 16, ti)
		if err != nil {
			t.Fatal(err)
		}

		live := map[DescriptorID][]Slot{}
		payload := map[DescriptorID]int{}
		total := 0

		liveIDs := func() []DescriptorID {
			ids := make([]DescriptorID, 0, len(live))
			for id, slots := range live {
				if len(slots) > 0 {
					ids = append(ids, id)
				}
			}
			sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
			return ids
		}

		n := rapid.IntRange(1, 150).Draw(t, "n")
		for step := 0; step < n; step++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0: // alloc
				s, err := tab.Alloc(total)
				if err == nil {
					live[s.ID()] = append(live[s.ID()], s)
					payload[s.ID()] = total
					total++
				}
			case 1: // clone
				if ids := liveIDs(); len(ids) > 0 {
					id := ids[rapid.IntRange(0, len(ids)-1).Draw(t, "clone")]
					live[id] = append(live[id], live[id][0].Clone())
				}
			case 2: // release
				if ids := liveIDs(); len(ids) > 0 {
					id := ids[rapid.IntRange(0, len(ids)-1).Draw(t, "release")]
					slots := live[id]
					slots[len(slots)-1].Release()
					live[id] = slots[:len(slots)-1]
				}
			case 3:
				g.Flush()
			case 4:
				g.Frame().End()
			}

			// Every id with a handle still out must recover and
			// resolve to its payload.
			for _, id := range liveIDs() {
				s, ok := g.TryRecover(id)
				if !ok {
					t.Fatalf("live id %v did not recover", id)
				}
				if got := *tab.GetID(id); got != payload[id] {
					t.Fatalf("id %v payload = %d, want %d", id, got, payload[id])
				}
				s.Release()
			}
		}

		for _, slots := range live {
			for _, s := range slots {
				s.Release()
			}
		}
		g.Close()

		dropped := 0
		for _, d := range ti.take() {
			dropped += len(d)
		}
		if dropped != total {
			t.Fatalf("dropped %d slots, allocated %d", dropped, total)
		}
	})
}

func TestTableConcurrent(t *testing.T) {
	g := NewGroup()
	ti := &recordIface{}
	tab, err := Register[int](g, 256, ti)
	assert.NoError(t, err)

	var total atomic.Uint64
	stop := make(chan struct{})
	np := runtime.GOMAXPROCS(-1)

	var workers sync.WaitGroup
	for w := 0; w < np; w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for j := 0; j < 2000; j++ {
				s, err := tab.Alloc(j)
				if err != nil {
					continue
				}
				total.Add(1)
				c := s.Clone()
				if rec, ok := g.TryRecover(s.ID()); ok {
					rec.Release()
				}
				c.Release()
				s.Release()
			}
		}()
	}

	var clock sync.WaitGroup
	clock.Add(1)
	go func() {
		defer clock.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			f := g.Frame()
			g.Flush()
			f.End()
		}
	}()

	workers.Wait()
	close(stop)
	clock.Wait()

	g.Close()
	dropped := uint64(0)
	for _, d := range ti.take() {
		dropped += uint64(len(d))
	}
	assert.Equal(t, dropped, total.Load())
}
