// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"
)

func TestCollectBackingRefs(t *testing.T) {
	b, _ := newTestInstance(t)

	img, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "img"})
	assert.NoError(t, err)
	smp, err := b.AllocSampler(SamplerSlot{Name: "smp"})
	assert.NoError(t, err)
	b.Flush()

	// Duplicates collapse to one reference.
	refs, err := b.CollectBackingRefs(EmbeddedIDs{img.ID(), smp.ID(), img.ID()})
	assert.NoError(t, err)
	assert.Equal(t, len(refs), 2)

	for _, r := range refs {
		r.Release()
	}
	img.Release()
	smp.Release()
	assert.NoError(t, b.Close())
}

func TestCollectBackingRefsAllOrNothing(t *testing.T) {
	b, p := newTestInstance(t)

	alive, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "alive"})
	assert.NoError(t, err)
	dead, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "dead"})
	assert.NoError(t, err)
	b.Flush()

	deadID := dead.ID()
	dead.Release()
	cycle(b)
	assert.DeepEqual(t, p.imagesGone(), []string{"dead"})

	_, err = b.CollectBackingRefs(EmbeddedIDs{alive.ID(), deadID})
	assert.That(t, errors.Is(err, ErrNoLongerAlive))
	var nle *NoLongerAliveError
	assert.That(t, errors.As(err, &nle))
	assert.Equal(t, nle.ID, deadID)

	// The reference taken on the live id before the failure was given back:
	// releasing the handle is enough to reclaim the slot.
	alive.Release()
	cycle(b)
	assert.DeepEqual(t, p.imagesGone(), []string{"dead", "alive"})

	assert.NoError(t, b.Close())
}

func TestSetBufferBackingPinsTargets(t *testing.T) {
	b, p := newTestInstance(t)

	target, err := b.AllocBuffer(BufferSlot{Size: 64, Usage: BufferUsageStorage, Name: "material"})
	assert.NoError(t, err)
	texture, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "albedo"})
	assert.NoError(t, err)
	b.Flush()

	assert.NoError(t, b.SetBufferBacking(target, EmbeddedIDs{texture.ID()}))
	assert.Equal(t, b.BufferSlot(target).Backing.Len(), 1)

	// The texture outlives its last direct handle while the buffer pins it.
	texture.Release()
	cycle(b)
	assert.Equal(t, len(p.imagesGone()), 0)

	// Dropping the buffer unpins the texture; it dies one cycle behind.
	target.Release()
	cycle(b)
	assert.DeepEqual(t, p.buffersGone(), []string{"material"})
	cycle(b)
	assert.DeepEqual(t, p.imagesGone(), []string{"albedo"})

	assert.NoError(t, b.Close())
}

func TestSetBufferBackingReplaces(t *testing.T) {
	b, p := newTestInstance(t)

	target, err := b.AllocBuffer(BufferSlot{Size: 64, Usage: BufferUsageStorage, Name: "material"})
	assert.NoError(t, err)
	old, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "old"})
	assert.NoError(t, err)
	next, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "next"})
	assert.NoError(t, err)
	b.Flush()

	assert.NoError(t, b.SetBufferBacking(target, EmbeddedIDs{old.ID()}))
	old.Release()

	// A full rewrite replaces the pinned set; the old target is released.
	assert.NoError(t, b.SetBufferBacking(target, EmbeddedIDs{next.ID()}))
	cycle(b)
	assert.DeepEqual(t, p.imagesGone(), []string{"old"})

	// Merge adds on top without dropping anything.
	extra, err := b.AllocImage(ImageSlot{Usage: ImageUsageSampled, Name: "extra"})
	assert.NoError(t, err)
	b.Flush()
	assert.NoError(t, b.MergeBufferBacking(target, EmbeddedIDs{extra.ID()}))
	assert.Equal(t, b.BufferSlot(target).Backing.Len(), 2)

	next.Release()
	extra.Release()
	target.Release()
	assert.NoError(t, b.Close())
	assert.Equal(t, len(p.imagesGone()), 3)
	assert.DeepEqual(t, p.buffersGone(), []string{"material"})
}

func TestEmbeddedSourceVisitor(t *testing.T) {
	// A payload type that walks its own fields.
	type instance struct {
		mesh     Embedded[Buffer]
		material Embedded[Buffer]
	}
	b, _ := newTestInstance(t)

	mesh, err := b.AllocBuffer(BufferSlot{Size: 1, Usage: BufferUsageStorage, Name: "mesh"})
	assert.NoError(t, err)
	mat, err := b.AllocBuffer(BufferSlot{Size: 1, Usage: BufferUsageStorage, Name: "mat"})
	assert.NoError(t, err)
	b.Flush()

	inst := instance{mesh: mesh.Embedded(), material: mat.Embedded()}
	refs, err := b.CollectBackingRefs(EmbeddedIDs{inst.mesh.ID(), inst.material.ID()})
	assert.NoError(t, err)
	assert.Equal(t, len(refs), 2)
	assert.Equal(t, refs[0].ID(), mesh.ID())
	assert.Equal(t, refs[1].ID(), mat.ID())

	for _, r := range refs {
		r.Release()
	}
	mesh.Release()
	mat.Release()
	assert.NoError(t, b.Close())
}

var _ EmbeddedSource = EmbeddedIDs{}
