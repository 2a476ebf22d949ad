// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bindless"
)

// ErrWaitTimeout is returned by Pending.Wait when the fence does not signal
// within the wait timeout.
var ErrWaitTimeout = errors.New("wgpu: fence wait timed out")

// waitTimeout bounds a blocking Wait. A fence that takes longer than this is
// treated as a device loss rather than a slow frame.
const waitTimeout = 5 * time.Second

// Pending tracks one submission by its fence. It satisfies
// bindless.PendingExecution. The fence is destroyed once the submission is
// observed complete or failed.
//
// Pending is safe for concurrent use.
type Pending struct {
	device Device

	mu    sync.Mutex
	fence hal.Fence
	value uint64
	done  bool
	err   error
}

var _ bindless.PendingExecution = (*Pending)(nil)

// Done polls the fence without blocking.
func (p *Pending) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return true
	}
	ok, err := p.device.Wait(p.fence, p.value, 0)
	if err != nil {
		p.finish(err)
		return true
	}
	if ok {
		p.finish(nil)
	}
	return p.done
}

// Wait blocks until the fence signals. It returns ErrWaitTimeout if the
// device does not signal within the wait timeout, and the device error if
// waiting itself failed.
func (p *Pending) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return p.err
	}
	ok, err := p.device.Wait(p.fence, p.value, waitTimeout)
	switch {
	case err != nil:
		p.finish(err)
	case !ok:
		p.finish(ErrWaitTimeout)
	default:
		p.finish(nil)
	}
	return p.err
}

// finish records the outcome and releases the fence. Caller holds mu.
func (p *Pending) finish(err error) {
	p.done = true
	p.err = err
	p.device.DestroyFence(p.fence)
	p.fence = nil
}
