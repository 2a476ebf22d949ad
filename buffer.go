// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/bindless/access"
	"github.com/gogpu/bindless/table"
)

// BufferUsage declares how a buffer may be used. Missing flags are only
// validated at runtime, by the operations that need them.
type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageMapRead
	BufferUsageMapWrite
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageIndirect
)

// Mappable reports whether the buffer may be mapped into host memory.
func (u BufferUsage) Mappable() bool {
	return u&(BufferUsageMapRead|BufferUsageMapWrite) != 0
}

// InitialAccess returns the access state a freshly created buffer with this
// usage starts in.
func (u BufferUsage) InitialAccess() access.BufferAccess {
	if u.Mappable() {
		return access.BufferGeneral
	}
	return access.BufferUndefined
}

// RequiredBufferUsage returns the usage flags a buffer must carry to
// transition into the given access state. A zero result means any buffer
// qualifies.
func RequiredBufferUsage(a access.BufferAccess) BufferUsage {
	switch a {
	case access.BufferTransferRead:
		return BufferUsageTransferSrc
	case access.BufferTransferWrite:
		return BufferUsageTransferDst
	case access.BufferShaderRead, access.BufferShaderWrite, access.BufferShaderReadWrite:
		return BufferUsageStorage
	case access.BufferIndirectCommandRead:
		return BufferUsageIndirect
	case access.BufferIndexRead:
		return BufferUsageIndex
	case access.BufferVertexAttributeRead:
		return BufferUsageVertex
	default:
		return 0
	}
}

// BufferSlot is the payload of one buffer table slot. Resource holds the
// platform buffer object; the table owns it from allocation until the
// Platform's destroy hook runs.
type BufferSlot struct {
	Resource any

	// Len is the element count if the buffer holds a slice, otherwise 1.
	Len int

	// Size is the total size in bytes.
	Size uint64

	Usage  BufferUsage
	Access access.Lock[access.BufferAccess]

	// Backing pins the resources referenced by Embedded handles uploaded
	// into this buffer. Set by SetBufferBacking; released when the slot is
	// destroyed. Populated by AllocBuffer when nil.
	Backing *BackingRefs

	// Name is kept for tracking and debugging purposes.
	Name string
}

// BackingRefs holds the owning references that keep the targets of a buffer's
// uploaded Embedded handles alive.
type BackingRefs struct {
	mu   sync.Mutex
	refs []table.Slot
}

// Set replaces the held references, releasing the previous ones. Use after an
// upload that fully overwrites the buffer.
func (r *BackingRefs) Set(refs []table.Slot) {
	r.mu.Lock()
	old := r.refs
	r.refs = refs
	r.mu.Unlock()
	for _, s := range old {
		s.Release()
	}
}

// Merge adds references on top of the held ones. Use after a partial upload;
// previously pinned targets stay alive until the next full Set.
func (r *BackingRefs) Merge(refs []table.Slot) {
	r.mu.Lock()
	r.refs = append(r.refs, refs...)
	r.mu.Unlock()
}

// Clear releases all held references.
func (r *BackingRefs) Clear() {
	r.Set(nil)
}

// Len returns the number of held references.
func (r *BackingRefs) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

// AllocBuffer places a buffer into a free slot and returns an owning handle.
// The slot's descriptor is written on the next Flush; submitting work that
// reads it before flushing is undefined behavior.
//
// The buffer must declare at least one usage. Fails with an error wrapping
// table.ErrOutOfCapacity when the buffer table is full.
func (b *Bindless) AllocBuffer(slot BufferSlot) (Owned[Buffer], error) {
	if b.closed.Load() {
		return Owned[Buffer]{}, fmt.Errorf("bindless: alloc buffer %q: %w", slot.Name, ErrClosed)
	}
	if slot.Usage == 0 {
		return Owned[Buffer]{}, fmt.Errorf("bindless: buffer %q: %w", slot.Name, ErrNoUsage)
	}
	if slot.Backing == nil {
		slot.Backing = &BackingRefs{}
	}
	s, err := b.buffers.Alloc(slot)
	if err != nil {
		return Owned[Buffer]{}, fmt.Errorf("bindless: alloc buffer %q: %w", slot.Name, err)
	}
	Logger().Debug("bindless: buffer allocated",
		slog.String("name", slot.Name),
		slog.Uint64("size", slot.Size),
		slog.String("id", s.ID().String()))
	return Owned[Buffer]{slot: s}, nil
}

// BufferSlot returns the payload behind a buffer handle. The handle must
// carry liveness: an Owned handle, or a Transient of a frame that has not
// ended. The returned pointer is valid for the same duration.
func (b *Bindless) BufferSlot(h Handle) *BufferSlot {
	id := h.ID()
	if id.Kind() != KindBuffer {
		panic("bindless: handle does not name a buffer slot")
	}
	return b.buffers.GetID(id)
}

// bufferIface wires the buffer table's lifecycle callbacks to the Platform.
type bufferIface struct {
	b *Bindless
}

func (f bufferIface) DropSlots(t *table.Table[BufferSlot], set table.IndexRangeSet) {
	slots := make([]*BufferSlot, 0, set.Len())
	set.ForEach(func(i table.Index) {
		s := t.Get(i)
		// Embedded targets of this buffer may die with it; their zero
		// events land on the current write queue and age normally.
		s.Backing.Clear()
		slots = append(slots, s)
	})
	f.b.platform.DestroyBuffers(slots)
	Logger().Debug("bindless: buffers destroyed", slog.Int("count", len(slots)))
}

func (f bufferIface) FlushSlots(t *table.Table[BufferSlot], indices []table.Index) {
	writes := make([]BufferWrite, len(indices))
	for k, i := range indices {
		writes[k] = BufferWrite{Index: i, Slot: t.Get(i)}
	}
	f.b.platform.WriteBufferDescriptors(writes)
}
