// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bindless"
	"github.com/gogpu/bindless/access"
)

// CreateBuffer creates a HAL buffer and places it into a bindless slot in one
// step. The buffer is destroyed through the device when the slot is
// reclaimed.
func (p *Platform) CreateBuffer(b *bindless.Bindless, name string, size uint64, usage bindless.BufferUsage) (bindless.Owned[bindless.Buffer], error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: name,
		Size:  size,
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return bindless.Owned[bindless.Buffer]{}, fmt.Errorf("wgpu: create buffer %q: %w", name, err)
	}
	h, err := b.AllocBuffer(bindless.BufferSlot{
		Resource: buf,
		Len:      1,
		Size:     size,
		Usage:    usage,
		Access:   access.NewLock(usage.InitialAccess()),
		Name:     name,
	})
	if err != nil {
		p.device.DestroyBuffer(buf)
		return bindless.Owned[bindless.Buffer]{}, err
	}
	return h, nil
}

// TextureDesc describes a texture created through CreateTexture. Zero
// MipLevels, ArrayLayers, SampleCount and Dimension default to a single
// non-multisampled 2D subresource.
type TextureDesc struct {
	Name        string
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	ArrayLayers uint32
	SampleCount uint32
	Dimension   gputypes.TextureDimension
	Format      gputypes.TextureFormat
	Usage       bindless.ImageUsage
}

// CreateTexture creates a HAL texture and places it into a bindless slot in
// one step.
func (p *Platform) CreateTexture(b *bindless.Bindless, desc TextureDesc) (bindless.Owned[bindless.Image], error) {
	if desc.Depth == 0 {
		desc.Depth = 1
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	if desc.ArrayLayers == 0 {
		desc.ArrayLayers = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	if desc.Dimension == 0 {
		desc.Dimension = gputypes.TextureDimension2D
	}

	depthOrLayers := desc.Depth
	if desc.Dimension != gputypes.TextureDimension3D {
		depthOrLayers = desc.ArrayLayers
	}
	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Name,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: depthOrLayers,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   desc.SampleCount,
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         convertImageUsage(desc.Usage),
	})
	if err != nil {
		return bindless.Owned[bindless.Image]{}, fmt.Errorf("wgpu: create texture %q: %w", desc.Name, err)
	}
	h, err := b.AllocImage(bindless.ImageSlot{
		Resource:    tex,
		Usage:       desc.Usage,
		Format:      desc.Format,
		Size:        gputypes.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: depthOrLayers},
		MipLevels:   desc.MipLevels,
		ArrayLayers: desc.ArrayLayers,
		Name:        desc.Name,
	})
	if err != nil {
		p.device.DestroyTexture(tex)
		return bindless.Owned[bindless.Image]{}, err
	}
	return h, nil
}

// CreateSampler creates a HAL sampler and places it into a bindless slot in
// one step. Most callers want CreateSamplerCached instead.
func (p *Platform) CreateSampler(b *bindless.Bindless, name string, desc bindless.SamplerDescriptor) (bindless.Owned[bindless.Sampler], error) {
	slot, err := p.samplerSlot(name, desc)
	if err != nil {
		return bindless.Owned[bindless.Sampler]{}, err
	}
	h, err := b.AllocSampler(slot)
	if err != nil {
		p.device.DestroySampler(slot.Resource.(hal.Sampler))
		return bindless.Owned[bindless.Sampler]{}, err
	}
	return h, nil
}

// CreateSamplerCached returns a sampler slot for the descriptor, deduplicated
// through the instance's sampler cache. The HAL sampler is only created on a
// cache miss.
func (p *Platform) CreateSamplerCached(b *bindless.Bindless, desc bindless.SamplerDescriptor) (bindless.Owned[bindless.Sampler], error) {
	return b.AllocSamplerCached(desc,
		func(d bindless.SamplerDescriptor) (bindless.SamplerSlot, error) {
			return p.samplerSlot("", d)
		},
		func(s bindless.SamplerSlot) {
			p.device.DestroySampler(s.Resource.(hal.Sampler))
		})
}

func (p *Platform) samplerSlot(name string, desc bindless.SamplerDescriptor) (bindless.SamplerSlot, error) {
	smp, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        name,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
	})
	if err != nil {
		return bindless.SamplerSlot{}, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	return bindless.SamplerSlot{Resource: smp, Descriptor: desc, Name: name}, nil
}

func convertBufferUsage(usage bindless.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&bindless.BufferUsageTransferSrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&bindless.BufferUsageTransferDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&bindless.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&bindless.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&bindless.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&bindless.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}
	if usage&bindless.BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&bindless.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&bindless.BufferUsageIndirect != 0 {
		result |= gputypes.BufferUsageIndirect
	}
	return result
}

func convertImageUsage(usage bindless.ImageUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage
	if usage&bindless.ImageUsageTransferSrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if usage&bindless.ImageUsageTransferDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&bindless.ImageUsageSampled != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	if usage&bindless.ImageUsageStorage != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}
	if usage&(bindless.ImageUsageColorAttachment|bindless.ImageUsageDepthStencilAttachment|bindless.ImageUsageSwapchain) != 0 {
		result |= gputypes.TextureUsageRenderAttachment
	}
	return result
}
