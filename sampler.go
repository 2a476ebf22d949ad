// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bindless/table"
)

// SamplerDescriptor describes a sampler's filtering and addressing. It is
// comparable and serves as the dedup key for AllocSamplerCached.
type SamplerDescriptor struct {
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
	LodMinClamp  float32
	LodMaxClamp  float32

	// MaxAnisotropy of 0 or 1 disables anisotropic filtering.
	MaxAnisotropy uint16
}

// SamplerSlot is the payload of one sampler table slot.
type SamplerSlot struct {
	Resource   any
	Descriptor SamplerDescriptor

	// Name is kept for tracking and debugging purposes.
	Name string
}

// AllocSampler places a sampler into a free slot and returns an owning
// handle. The slot's descriptor is written on the next Flush.
func (b *Bindless) AllocSampler(slot SamplerSlot) (Owned[Sampler], error) {
	if b.closed.Load() {
		return Owned[Sampler]{}, fmt.Errorf("bindless: alloc sampler %q: %w", slot.Name, ErrClosed)
	}
	s, err := b.samplers.Alloc(slot)
	if err != nil {
		return Owned[Sampler]{}, fmt.Errorf("bindless: alloc sampler %q: %w", slot.Name, err)
	}
	Logger().Debug("bindless: sampler allocated",
		slog.String("name", slot.Name),
		slog.String("id", s.ID().String()))
	return Owned[Sampler]{slot: s}, nil
}

// AllocSamplerCached returns a sampler for the given descriptor, reusing a
// previously created one when possible. Samplers are immutable and engines
// request the same few combinations over and over, so slots are deduplicated
// through an LRU keyed by the descriptor; create is only called on a miss.
//
// The returned handle is owned by the caller and must be released like any
// other. The cache holds its own reference until the entry is evicted.
//
// When the sampler table is full the created slot never enters a table, so
// destroy is called with it instead of the reclamation path; destroy may be
// nil if create allocates nothing that needs tearing down.
func (b *Bindless) AllocSamplerCached(desc SamplerDescriptor, create func(SamplerDescriptor) (SamplerSlot, error), destroy func(SamplerSlot)) (Owned[Sampler], error) {
	b.samplerMu.Lock()
	defer b.samplerMu.Unlock()

	if h, ok := b.samplerCache.Get(desc); ok {
		return h.Clone(), nil
	}

	slot, err := create(desc)
	if err != nil {
		return Owned[Sampler]{}, fmt.Errorf("bindless: create sampler: %w", err)
	}
	slot.Descriptor = desc
	h, err := b.AllocSampler(slot)
	if err != nil {
		if destroy != nil {
			destroy(slot)
		}
		return Owned[Sampler]{}, err
	}
	b.samplerCache.Add(desc, h.Clone())
	return h, nil
}

// SamplerSlot returns the payload behind a sampler handle. The handle must
// carry liveness: an Owned handle, or a Transient of a frame that has not
// ended.
func (b *Bindless) SamplerSlot(h Handle) *SamplerSlot {
	id := h.ID()
	if id.Kind() != KindSampler {
		panic("bindless: handle does not name a sampler slot")
	}
	return b.samplers.GetID(id)
}

type samplerIface struct {
	b *Bindless
}

func (f samplerIface) DropSlots(t *table.Table[SamplerSlot], set table.IndexRangeSet) {
	slots := make([]*SamplerSlot, 0, set.Len())
	set.ForEach(func(i table.Index) {
		slots = append(slots, t.Get(i))
	})
	f.b.platform.DestroySamplers(slots)
	Logger().Debug("bindless: samplers destroyed", slog.Int("count", len(slots)))
}

func (f samplerIface) FlushSlots(t *table.Table[SamplerSlot], indices []table.Index) {
	writes := make([]SamplerWrite, len(indices))
	for k, i := range indices {
		writes[k] = SamplerWrite{Index: i, Slot: t.Get(i)}
	}
	f.b.platform.WriteSamplerDescriptors(writes)
}
