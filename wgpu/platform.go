// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bindless"
	"github.com/gogpu/bindless/table"
)

// Device is the subset of hal.Device the platform uses. hal.Device satisfies
// it; tests substitute a small mock.
type Device interface {
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error)
	DestroySampler(sampler hal.Sampler)
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)
}

// Queue is the subset of hal.Queue the platform uses.
type Queue interface {
	Submit(commandBuffers []hal.CommandBuffer, signalFence hal.Fence, signalValue uint64) error
}

// Platform implements bindless.Platform on a HAL device. It keeps a CPU-side
// mirror of each descriptor array; backends read the mirrors when building
// the heap bind group.
//
// Thread Safety: Platform is safe for concurrent use.
type Platform struct {
	device Device
	queue  Queue

	// mu guards the binding mirrors. The lifecycle callbacks themselves are
	// already serialized by the bindless instance.
	mu       sync.RWMutex
	buffers  []hal.Buffer
	textures []hal.Texture
	samplers []hal.Sampler
}

var _ bindless.Platform = (*Platform)(nil)

// New creates a Platform on the given device and queue.
func New(device Device, queue Queue) *Platform {
	return &Platform{device: device, queue: queue}
}

// FromProvider creates a Platform from a host application's device provider,
// such as gogpu.App.GPUContextProvider(). The provider must expose its HAL
// handles through HalDevice() any and HalQueue() any.
func FromProvider(provider gpucontext.DeviceProvider) (*Platform, error) {
	if provider == nil {
		return nil, errors.New("wgpu: nil DeviceProvider")
	}
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, errors.New("wgpu: provider does not expose HAL handles")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}
	return New(device, queue), nil
}

// === bindless.Platform ===

// DestroyBuffers releases the HAL buffers of reclaimed slots. Mirror entries
// of destroyed slots stay stale until the index is reallocated and rewritten.
func (p *Platform) DestroyBuffers(slots []*bindless.BufferSlot) {
	for _, s := range slots {
		if buf, ok := s.Resource.(hal.Buffer); ok && buf != nil {
			p.device.DestroyBuffer(buf)
		}
	}
}

// DestroyImages releases the HAL textures of reclaimed slots.
func (p *Platform) DestroyImages(slots []*bindless.ImageSlot) {
	for _, s := range slots {
		if tex, ok := s.Resource.(hal.Texture); ok && tex != nil {
			p.device.DestroyTexture(tex)
		}
	}
}

// DestroySamplers releases the HAL samplers of reclaimed slots.
func (p *Platform) DestroySamplers(slots []*bindless.SamplerSlot) {
	for _, s := range slots {
		if smp, ok := s.Resource.(hal.Sampler); ok && smp != nil {
			p.device.DestroySampler(smp)
		}
	}
}

// WriteBufferDescriptors records newly allocated buffers in the binding
// mirror.
func (p *Platform) WriteBufferDescriptors(writes []bindless.BufferWrite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range writes {
		buf, _ := w.Slot.Resource.(hal.Buffer)
		p.buffers = storeBinding(p.buffers, w.Index, buf)
	}
}

// WriteImageDescriptors records newly allocated textures in the binding
// mirror.
func (p *Platform) WriteImageDescriptors(writes []bindless.ImageWrite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range writes {
		tex, _ := w.Slot.Resource.(hal.Texture)
		p.textures = storeBinding(p.textures, w.Index, tex)
	}
}

// WriteSamplerDescriptors records newly allocated samplers in the binding
// mirror.
func (p *Platform) WriteSamplerDescriptors(writes []bindless.SamplerWrite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range writes {
		smp, _ := w.Slot.Resource.(hal.Sampler)
		p.samplers = storeBinding(p.samplers, w.Index, smp)
	}
}

func storeBinding[R any](mirror []R, index table.Index, resource R) []R {
	for uint32(len(mirror)) <= uint32(index) {
		var zero R
		mirror = append(mirror, zero)
	}
	mirror[index] = resource
	return mirror
}

// === Binding mirrors ===

// BoundBuffer returns the buffer last written at the given descriptor index,
// or nil if none was.
func (p *Platform) BoundBuffer(index table.Index) hal.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if uint32(index) >= uint32(len(p.buffers)) {
		return nil
	}
	return p.buffers[index]
}

// BoundTexture returns the texture last written at the given descriptor
// index, or nil if none was.
func (p *Platform) BoundTexture(index table.Index) hal.Texture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if uint32(index) >= uint32(len(p.textures)) {
		return nil
	}
	return p.textures[index]
}

// BoundSampler returns the sampler last written at the given descriptor
// index, or nil if none was.
func (p *Platform) BoundSampler(index table.Index) hal.Sampler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if uint32(index) >= uint32(len(p.samplers)) {
		return nil
	}
	return p.samplers[index]
}

// Submit submits command buffers to the queue and returns a Pending tracking
// their execution, suitable for bindless.Frame.End.
func (p *Platform) Submit(commandBuffers []hal.CommandBuffer) (*Pending, error) {
	fence, err := p.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}
	if err := p.queue.Submit(commandBuffers, fence, 1); err != nil {
		p.device.DestroyFence(fence)
		return nil, fmt.Errorf("wgpu: submit: %w", err)
	}
	return &Pending{device: p.device, fence: fence, value: 1}, nil
}
