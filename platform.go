// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import "github.com/gogpu/bindless/table"

// Platform performs the device-level work the descriptor tables defer:
// destroying resources whose slots have been reclaimed and writing descriptors
// for newly allocated ones. The wgpu subpackage has the production
// implementation; tests use in-memory fakes.
//
// All methods are called with the slot payloads still intact. Destroy and
// write calls are serialized by the instance's flush/gc lock and never
// overlap, but they may be called from any goroutine (whichever one ends the
// last frame of a side). Implementations must not call back into the Bindless
// instance.
type Platform interface {
	DestroyBuffers(slots []*BufferSlot)
	DestroyImages(slots []*ImageSlot)
	DestroySamplers(slots []*SamplerSlot)

	WriteBufferDescriptors(writes []BufferWrite)
	WriteImageDescriptors(writes []ImageWrite)
	WriteSamplerDescriptors(writes []SamplerWrite)
}

// BufferWrite is one pending descriptor-array update for a newly allocated
// buffer slot.
type BufferWrite struct {
	Index table.Index
	Slot  *BufferSlot
}

// ImageWrite is one pending descriptor-array update for a newly allocated
// image slot.
type ImageWrite struct {
	Index table.Index
	Slot  *ImageSlot
}

// SamplerWrite is one pending descriptor-array update for a newly allocated
// sampler slot.
type SamplerWrite struct {
	Index table.Index
	Slot  *SamplerSlot
}

// PendingExecution tracks one submitted batch of GPU work. Frame.End ties a
// frame's reclamation to a PendingExecution so slots freed during the frame
// outlive the GPU's use of them.
//
// Implementations must be safe for concurrent use; Done and Wait may be
// called repeatedly and after completion.
type PendingExecution interface {
	// Done reports whether the execution has finished, without blocking.
	Done() bool

	// Wait blocks until the execution finishes.
	Wait() error
}

type completedExecution struct{}

func (completedExecution) Done() bool  { return true }
func (completedExecution) Wait() error { return nil }

// Completed returns a PendingExecution that already finished, for frames that
// submitted no GPU work.
func Completed() PendingExecution {
	return completedExecution{}
}
