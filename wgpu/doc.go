// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the bindless Platform on top of gogpu/wgpu/hal.
//
// The Platform destroys reclaimed resources through the HAL device and
// mirrors descriptor writes into CPU-side binding arrays, one per table.
// Backends consume the binding arrays when (re)building the bind group for
// the descriptor heap.
//
// Construct it from an explicit device and queue:
//
//	p := wgpu.New(device, queue)
//	b, err := bindless.New(p, bindless.DefaultDescriptorCounts())
//
// or from a host application's gpucontext.DeviceProvider:
//
//	p, err := wgpu.FromProvider(app.GPUContextProvider())
//
// Submissions return a *Pending, which satisfies bindless.PendingExecution
// and can be handed to Frame.End directly.
package wgpu
