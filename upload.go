// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"github.com/gogpu/bindless/table"
)

// EmbeddedSource is implemented by CPU-side payload types that contain
// Embedded handles. VisitEmbedded must call visit once per embedded id in the
// payload, in any order; duplicates are fine.
//
// Upload code walks the payload through this interface before copying it to
// GPU memory, so every id written to the GPU is backed by a live reference.
type EmbeddedSource interface {
	VisitEmbedded(visit func(table.DescriptorID))
}

// EmbeddedIDs is a ready-made EmbeddedSource for payloads that can simply
// list their ids.
type EmbeddedIDs []table.DescriptorID

func (ids EmbeddedIDs) VisitEmbedded(visit func(table.DescriptorID)) {
	for _, id := range ids {
		visit(id)
	}
}

// CollectBackingRefs recovers one owning reference per distinct embedded id
// in src. All-or-nothing: if any id fails recovery, every reference taken so
// far is released and a *NoLongerAliveError for the first failed id is
// returned.
//
// The returned references must end up pinned on the buffer the payload is
// uploaded into (SetBufferBacking / MergeBufferBacking) so the GPU never
// reads a dangling id.
func (b *Bindless) CollectBackingRefs(src EmbeddedSource) ([]table.Slot, error) {
	var (
		refs    []table.Slot
		seen    map[table.DescriptorID]struct{}
		missing table.DescriptorID
		failed  bool
	)
	src.VisitEmbedded(func(id table.DescriptorID) {
		if failed {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		if seen == nil {
			seen = make(map[table.DescriptorID]struct{})
		}
		seen[id] = struct{}{}
		s, ok := b.group.TryRecover(id)
		if !ok {
			failed = true
			missing = id
			return
		}
		refs = append(refs, s)
	})
	if failed {
		for _, s := range refs {
			s.Release()
		}
		return nil, &NoLongerAliveError{ID: missing}
	}
	return refs, nil
}

// SetBufferBacking collects the embedded references of a payload that fully
// overwrites the buffer and pins them on its slot, releasing whatever was
// pinned before. Call after the upload's ids are final and before work
// reading the buffer is submitted.
func (b *Bindless) SetBufferBacking(h Owned[Buffer], src EmbeddedSource) error {
	refs, err := b.CollectBackingRefs(src)
	if err != nil {
		return err
	}
	b.BufferSlot(h).Backing.Set(refs)
	return nil
}

// MergeBufferBacking collects the embedded references of a payload written
// into part of the buffer and pins them in addition to the existing ones.
// References accumulated this way are only dropped by the next
// SetBufferBacking or when the buffer dies.
func (b *Bindless) MergeBufferBacking(h Owned[Buffer], src EmbeddedSource) error {
	refs, err := b.CollectBackingRefs(src)
	if err != nil {
		return err
	}
	b.BufferSlot(h).Backing.Merge(refs)
	return nil
}
