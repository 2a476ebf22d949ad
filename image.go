// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bindless/access"
	"github.com/gogpu/bindless/table"
)

// ImageUsage declares how an image may be used. Missing flags are only
// validated at runtime, by the operations that need them.
type ImageUsage uint32

const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageStorage
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
	ImageUsageSwapchain
)

// RequiredImageUsage returns the usage flags an image must carry to
// transition into the given access state. A zero result means any image
// qualifies.
func RequiredImageUsage(a access.ImageAccess) ImageUsage {
	switch a {
	case access.ImageTransferRead:
		return ImageUsageTransferSrc
	case access.ImageTransferWrite:
		return ImageUsageTransferDst
	case access.ImageStorageRead, access.ImageStorageWrite, access.ImageStorageReadWrite:
		return ImageUsageStorage
	case access.ImageSampledRead:
		return ImageUsageSampled
	case access.ImageColorAttachment:
		return ImageUsageColorAttachment
	case access.ImageDepthStencilAttachment:
		return ImageUsageDepthStencilAttachment
	case access.ImagePresent:
		return ImageUsageSwapchain
	default:
		return 0
	}
}

// ImageSlot is the payload of one image table slot. Resource holds the
// platform image object; the table owns it from allocation until the
// Platform's destroy hook runs.
type ImageSlot struct {
	Resource any

	Usage ImageUsage

	// Format is the image's texel format.
	Format gputypes.TextureFormat

	// Size is the extent of the image. Only the dimensions relevant for
	// the image's dimensionality are meaningful.
	Size gputypes.Extent3D

	MipLevels   uint32
	ArrayLayers uint32

	Access access.Lock[access.ImageAccess]

	// Name is kept for tracking and debugging purposes.
	Name string
}

// AllocImage places an image into a free slot and returns an owning handle.
// The slot's descriptor is written on the next Flush.
//
// The image must declare at least one usage. Fails with an error wrapping
// table.ErrOutOfCapacity when the image table is full.
func (b *Bindless) AllocImage(slot ImageSlot) (Owned[Image], error) {
	if b.closed.Load() {
		return Owned[Image]{}, fmt.Errorf("bindless: alloc image %q: %w", slot.Name, ErrClosed)
	}
	if slot.Usage == 0 {
		return Owned[Image]{}, fmt.Errorf("bindless: image %q: %w", slot.Name, ErrNoUsage)
	}
	if slot.MipLevels == 0 {
		slot.MipLevels = 1
	}
	if slot.ArrayLayers == 0 {
		slot.ArrayLayers = 1
	}
	s, err := b.images.Alloc(slot)
	if err != nil {
		return Owned[Image]{}, fmt.Errorf("bindless: alloc image %q: %w", slot.Name, err)
	}
	Logger().Debug("bindless: image allocated",
		slog.String("name", slot.Name),
		slog.String("id", s.ID().String()))
	return Owned[Image]{slot: s}, nil
}

// ImageSlot returns the payload behind an image handle. The handle must carry
// liveness: an Owned handle, or a Transient of a frame that has not ended.
func (b *Bindless) ImageSlot(h Handle) *ImageSlot {
	id := h.ID()
	if id.Kind() != KindImage {
		panic("bindless: handle does not name an image slot")
	}
	return b.images.GetID(id)
}

type imageIface struct {
	b *Bindless
}

func (f imageIface) DropSlots(t *table.Table[ImageSlot], set table.IndexRangeSet) {
	slots := make([]*ImageSlot, 0, set.Len())
	set.ForEach(func(i table.Index) {
		slots = append(slots, t.Get(i))
	})
	f.b.platform.DestroyImages(slots)
	Logger().Debug("bindless: images destroyed", slog.Int("count", len(slots)))
}

func (f imageIface) FlushSlots(t *table.Table[ImageSlot], indices []table.Index) {
	writes := make([]ImageWrite, len(indices))
	for k, i := range indices {
		writes[k] = ImageWrite{Index: i, Slot: t.Get(i)}
	}
	f.b.platform.WriteImageDescriptors(writes)
}
