// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"encoding/binary"

	"github.com/gogpu/bindless/table"
)

// Content marker types select which table a handle refers to. They carry no
// data; a handle's payload lives in the slot and is reached through the
// Bindless accessors.
type (
	// Buffer marks handles to buffer slots.
	Buffer struct{}

	// Image marks handles to image slots.
	Image struct{}

	// Sampler marks handles to sampler slots.
	Sampler struct{}
)

// Content constrains handle type parameters to the marker types.
type Content interface {
	Buffer | Image | Sampler
}

// Table kinds, in registration order.
const (
	KindBuffer  table.Kind = 0
	KindImage   table.Kind = 1
	KindSampler table.Kind = 2
)

func contentKind[C Content]() table.Kind {
	switch any(*new(C)).(type) {
	case Buffer:
		return KindBuffer
	case Image:
		return KindImage
	default:
		return KindSampler
	}
}

// Handle is implemented by every reference tier. ID alone proves nothing
// about liveness; only Owned handles and frame tokens do.
type Handle interface {
	ID() table.DescriptorID
}

// Owned is a reference-counted handle that keeps its slot alive. The zero
// Owned is invalid. Copying an Owned does not add a reference; use Clone.
type Owned[C Content] struct {
	slot table.Slot
}

// Valid reports whether the handle refers to a slot.
func (h Owned[C]) Valid() bool { return h.slot.Valid() }

// ID returns the packed descriptor id.
func (h Owned[C]) ID() table.DescriptorID { return h.slot.ID() }

// Clone takes an additional reference.
func (h Owned[C]) Clone() Owned[C] {
	return Owned[C]{slot: h.slot.Clone()}
}

// Release drops the handle's reference. The slot is destroyed one full
// reclamation cycle after the last reference is gone. The handle must not be
// used afterwards.
func (h Owned[C]) Release() { h.slot.Release() }

// Weak derives a non-owning handle.
func (h Owned[C]) Weak() Weak[C] {
	return Weak[C]{group: h.slot.Group(), id: h.slot.ID()}
}

// Transient derives a frame-scoped handle. It stays valid until f ends; no
// reference count is touched.
func (h Owned[C]) Transient(f *Frame) Transient[C] {
	return Transient[C]{id: h.slot.ID(), frame: f}
}

// Embedded derives the GPU-encodable form of the handle. An Embedded id is
// only safe to upload through the backing-refs path, see CollectBackingRefs.
func (h Owned[C]) Embedded() Embedded[C] {
	return Embedded[C]{id: h.slot.ID()}
}

// Weak is a handle that does not keep its slot alive. The zero Weak is
// invalid and never upgrades.
type Weak[C Content] struct {
	group *table.Group
	id    table.DescriptorID
}

// ID returns the packed descriptor id the handle was derived from.
func (h Weak[C]) ID() table.DescriptorID { return h.id }

// Upgrade attempts to recover an owning handle. It fails once the slot has
// been freed, or its index reclaimed and reused under a newer version.
func (h Weak[C]) Upgrade() (Owned[C], bool) {
	if h.group == nil {
		return Owned[C]{}, false
	}
	slot, ok := h.group.TryRecover(h.id)
	if !ok {
		return Owned[C]{}, false
	}
	return Owned[C]{slot: slot}, true
}

// Transient is a frame-scoped handle: it borrows liveness from the frame
// token it was created with instead of carrying a reference count, which
// makes it free to create in per-draw code. It must not outlive its frame.
type Transient[C Content] struct {
	id    table.DescriptorID
	frame *Frame
}

// ID returns the packed descriptor id.
func (h Transient[C]) ID() table.DescriptorID { return h.id }

// Frame returns the frame token the handle is scoped to.
func (h Transient[C]) Frame() *Frame { return h.frame }

// Embedded derives the GPU-encodable form of the handle.
func (h Transient[C]) Embedded() Embedded[C] {
	return Embedded[C]{id: h.id}
}

// EmbeddedSize is the exact encoded size of an Embedded handle in bytes.
const EmbeddedSize = 4

// Embedded is a handle in the form shaders consume: the packed 32-bit
// descriptor id, serialized little-endian into buffer memory with no framing.
// It carries no liveness on its own; a buffer holding Embedded handles must
// retain matching backing refs (SetBufferBacking) for as long as the GPU may
// read it.
type Embedded[C Content] struct {
	id table.DescriptorID
}

// ID returns the packed descriptor id.
func (h Embedded[C]) ID() table.DescriptorID { return h.id }

// Put serializes the handle into the first EmbeddedSize bytes of dst.
func (h Embedded[C]) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst, uint32(h.id))
}

// EmbeddedAt deserializes an Embedded handle from the first EmbeddedSize
// bytes of src. The decoded id must carry C's table kind: a mismatch means
// src was read at the wrong offset or as the wrong handle type, and panics.
// Liveness is not checked; resolving the id later fails if the slot is gone.
func EmbeddedAt[C Content](src []byte) Embedded[C] {
	id := table.DescriptorID(binary.LittleEndian.Uint32(src))
	if id.Kind() != contentKind[C]() {
		panic("bindless: embedded id kind does not match the handle type")
	}
	return Embedded[C]{id: id}
}
