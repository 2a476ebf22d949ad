// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/bindless/internal/cache"
	"github.com/gogpu/bindless/table"
)

// Bindless owns the descriptor tables of one device and drives their
// reclamation. Create it with New, drive it with Frame / Flush / PollReclaim,
// and shut it down with Close.
//
// Thread Safety: all methods are safe for concurrent use. The Platform's
// hooks are serialized by the instance, see Platform.
type Bindless struct {
	platform Platform
	counts   DescriptorCounts

	group    *table.Group
	buffers  *table.Table[BufferSlot]
	images   *table.Table[ImageSlot]
	samplers *table.Table[SamplerSlot]

	reclaim reclaimer
	closed  atomic.Bool

	samplerMu    sync.Mutex
	samplerCache *cache.Cache[SamplerDescriptor, Owned[Sampler]]
}

// New creates a Bindless instance with the given table capacities. The
// platform is retained for the instance's lifetime; there must be at most one
// instance per device.
func New(platform Platform, counts DescriptorCounts) (*Bindless, error) {
	if err := counts.validate(); err != nil {
		return nil, err
	}
	b := &Bindless{platform: platform, counts: counts, group: table.NewGroup()}

	var err error
	if b.buffers, err = table.Register[BufferSlot](b.group, counts.Buffers, bufferIface{b}); err != nil {
		return nil, fmt.Errorf("bindless: register buffer table: %w", err)
	}
	if b.images, err = table.Register[ImageSlot](b.group, counts.Images, imageIface{b}); err != nil {
		return nil, fmt.Errorf("bindless: register image table: %w", err)
	}
	if b.samplers, err = table.Register[SamplerSlot](b.group, counts.Samplers, samplerIface{b}); err != nil {
		return nil, fmt.Errorf("bindless: register sampler table: %w", err)
	}
	b.samplerCache = cache.New(int(counts.Samplers), func(_ SamplerDescriptor, h Owned[Sampler]) {
		h.Release()
	})

	Logger().Info("bindless: instance created",
		slog.Uint64("buffers", uint64(counts.Buffers)),
		slog.Uint64("images", uint64(counts.Images)),
		slog.Uint64("samplers", uint64(counts.Samplers)))
	return b, nil
}

// Counts returns the table capacities the instance was created with.
func (b *Bindless) Counts() DescriptorCounts {
	return b.counts
}

// Group exposes the underlying reclamation group, for integrations that
// drive frames or recover ids directly.
func (b *Bindless) Group() *table.Group {
	return b.group
}

// Flush writes the descriptors of every slot allocated since the previous
// flush through the Platform. Failing to flush before submitting work that
// reads new descriptors is undefined behavior.
func (b *Bindless) Flush() {
	b.group.Flush()
}

// InstanceStats snapshots the lifetime counters of all tables.
type InstanceStats struct {
	Buffers  table.Stats
	Images   table.Stats
	Samplers table.Stats
}

// Stats returns a snapshot of the instance's table counters.
func (b *Bindless) Stats() InstanceStats {
	return InstanceStats{
		Buffers:  b.buffers.Stats(),
		Images:   b.images.Stats(),
		Samplers: b.samplers.Stats(),
	}
}

// Close waits for parked frames, drops the sampler cache and forces both
// reclamation queues through the Platform's destroy hooks. The caller must
// have released its handles and ended its frames; slots still referenced are
// not destroyed and their resources leak. Closing twice returns ErrClosed, as
// do allocations afterwards.
func (b *Bindless) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := b.Reclaim(); err != nil {
		return fmt.Errorf("bindless: close: %w", err)
	}

	b.samplerMu.Lock()
	b.samplerCache.Purge()
	b.samplerMu.Unlock()

	b.group.Close()

	if st := b.Stats(); st.Buffers.Live()+st.Images.Live()+st.Samplers.Live() > 0 {
		Logger().Warn("bindless: instance closed with live slots",
			slog.Uint64("buffers", st.Buffers.Live()),
			slog.Uint64("images", st.Images.Live()),
			slog.Uint64("samplers", st.Samplers.Live()))
	} else {
		Logger().Info("bindless: instance closed")
	}
	return nil
}
