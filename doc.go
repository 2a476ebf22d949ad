// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bindless manages the lifetime of GPU resources referenced through
// bindless descriptor arrays.
//
// In a bindless renderer, shaders address buffers, images and samplers by
// small dense indices into global descriptor arrays instead of per-draw
// bindings. That makes resource lifetime the hard problem: an index may not
// be reused while any submitted GPU work could still read it, and CPU-side
// handles, GPU-side embedded references and in-flight frames all keep
// resources alive for different durations.
//
// A Bindless instance owns up to three reference-counted slot tables (see the
// table subpackage) and a Platform that performs the actual resource
// destruction and descriptor writes. Resources are allocated into slots and
// handed out as handles of four tiers:
//
//   - Owned: reference-counted, keeps the slot alive; Clone and Release.
//   - Weak: does not keep the slot alive; Upgrade recovers an Owned handle
//     and fails once the slot has been freed or its index reused.
//   - Transient: valid for one frame, carried by a *Frame token; free to
//     create, no reference-count traffic.
//   - Embedded: the packed 4-byte descriptor id as written into GPU buffer
//     memory; kept alive by the backing refs of the buffer that contains it.
//
// Releasing the last reference never destroys a resource immediately.
// The index enters a double-buffered reclamation queue and the Platform's
// destroy hook runs only after every frame that could have observed the
// resource has ended (Frame / Frame.End with a PendingExecution), at which
// point the index returns to the free pool under a bumped version.
//
// Typical frame loop:
//
//	frame := b.Frame()
//	// ... allocate, record, derive Transient handles from frame ...
//	b.Flush()                  // write descriptors for new slots
//	pending := submit(...)     // platform submission
//	frame.End(pending)         // reclaim once the GPU is done
//	b.PollReclaim()
//
// The wgpu subpackage provides a Platform backed by github.com/gogpu/wgpu.
package bindless
