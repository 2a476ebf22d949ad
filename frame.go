// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"log/slog"
	"sync"

	"github.com/gogpu/bindless/table"
)

// Frame is a liveness token for one frame of work. Resources released while
// a frame is open are not destroyed until the frame has ended AND a full
// reclamation cycle has passed, so Transient handles minted from it stay
// valid for the whole frame.
//
// A frame must be ended exactly once. Frames may overlap and end out of
// order.
type Frame struct {
	b     *Bindless
	guard *table.FrameGuard
}

// Frame opens a new frame.
func (b *Bindless) Frame() *Frame {
	return &Frame{b: b, guard: b.group.Frame()}
}

// End ties the frame's reclamation to the completion of its submitted GPU
// work. The frame's side of the reclamation clock advances only once pending
// reports done; pass Completed() (or nil) for frames that submitted nothing.
//
// End itself never blocks: incomplete executions are parked on the instance
// and drained by PollReclaim, Reclaim or Close.
func (f *Frame) End(pending PendingExecution) {
	if pending == nil || pending.Done() {
		f.guard.End()
		return
	}
	f.b.reclaim.park(f.guard, pending)
}

type reclaimEntry struct {
	guard   *table.FrameGuard
	pending PendingExecution
}

// reclaimer holds frames whose GPU work had not finished when they ended.
type reclaimer struct {
	mu      sync.Mutex
	entries []reclaimEntry
}

func (r *reclaimer) park(guard *table.FrameGuard, pending PendingExecution) {
	r.mu.Lock()
	r.entries = append(r.entries, reclaimEntry{guard: guard, pending: pending})
	r.mu.Unlock()
}

// PollReclaim releases the frames whose GPU work has since completed and
// returns how many it released. It never blocks; call it once per frame.
func (b *Bindless) PollReclaim() int {
	b.reclaim.mu.Lock()
	var done []reclaimEntry
	kept := b.reclaim.entries[:0]
	for _, e := range b.reclaim.entries {
		if e.pending.Done() {
			done = append(done, e)
		} else {
			kept = append(kept, e)
		}
	}
	b.reclaim.entries = kept
	b.reclaim.mu.Unlock()

	for _, e := range done {
		e.guard.End()
	}
	if len(done) > 0 {
		Logger().Debug("bindless: frames reclaimed", slog.Int("count", len(done)))
	}
	return len(done)
}

// Reclaim blocks until every parked frame's GPU work has completed and
// releases them all. The first wait error is returned; the corresponding
// frames stay parked.
func (b *Bindless) Reclaim() error {
	b.reclaim.mu.Lock()
	entries := b.reclaim.entries
	b.reclaim.entries = nil
	b.reclaim.mu.Unlock()

	for i, e := range entries {
		if err := e.pending.Wait(); err != nil {
			b.reclaim.mu.Lock()
			b.reclaim.entries = append(b.reclaim.entries, entries[i:]...)
			b.reclaim.mu.Unlock()
			return err
		}
		e.guard.End()
	}
	return nil
}

// PendingFrames returns the number of ended frames still waiting on GPU
// completion.
func (b *Bindless) PendingFrames() int {
	b.reclaim.mu.Lock()
	defer b.reclaim.mu.Unlock()
	return len(b.reclaim.entries)
}
