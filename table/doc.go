// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package table implements reference-counted slot tables with deferred,
// epoch-synchronized reclamation.
//
// A Table hands out small dense indices ("descriptor indices") for resource
// payloads that are referenced from GPU-visible descriptor arrays. Indices
// must not be reused while GPU work submitted earlier may still read them, so
// a slot whose reference count reaches zero is not freed immediately: its
// index is pushed onto one side of a double-buffered reaper queue. A Group
// tracks in-flight frames per side; when the last frame of a side completes,
// the opposite side's queue is drained, the table's destruction callback runs,
// and the indices return to the free pool with a bumped version.
//
// The double buffering means a drain never races with a concurrent push into
// the same queue: zero-count events always target the current write side,
// and the drain always targets the side that just sealed. Only the side flip
// itself is a synchronization point.
//
// Each slot carries a 12-bit version that is incremented on reclamation. The
// packed DescriptorID (index, table kind, version) therefore detects stale
// references to a reused index: TryRecover fails rather than aliasing an
// unrelated resource.
package table
