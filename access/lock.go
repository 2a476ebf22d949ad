// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package access tracks the GPU access state of a resource in a single atomic
// word, so command recording on multiple goroutines can claim resources for
// mutation without a lock around the whole table.
//
// A resource is in exactly one of three conditions: free in some user-defined
// access state (its layout/visibility on the GPU), exclusively locked by one
// in-flight execution, or parked in shared read-only access. TryLock claims a
// free resource and reports the state it was in, which is what a barrier
// needs as its "from" half; Unlock publishes the state the execution left the
// resource in.
package access

import (
	"errors"
	"sync/atomic"
)

// State values carried by a Lock. The two largest values are reserved as the
// locked and shared sentinels.
const (
	lockedState = ^uint32(0)
	sharedState = ^uint32(1)

	// MaxState is the largest user state value a Lock can hold.
	MaxState = sharedState - 1
)

// Lock errors returned by TryLock.
var (
	// ErrLocked means the resource is claimed by another ongoing
	// execution.
	ErrLocked = errors.New("access: resource is locked by another ongoing execution")

	// ErrShared means the resource is in shared read-only access and
	// cannot be claimed for mutation again.
	ErrShared = errors.New("access: resource is in shared read-only access")
)

// Lock is an atomic access-state cell. The type parameter A is the
// user-defined state enum, stored verbatim; see BufferAccess and ImageAccess.
//
// The zero Lock holds state A(0). A Lock may be copied only while no
// goroutine is using it, which is what lets it live inside slot payloads.
type Lock[A ~uint32] struct {
	state uint32
}

// NewLock returns a lock holding the given unlocked state.
func NewLock[A ~uint32](a A) Lock[A] {
	return Lock[A]{state: stateWord(a)}
}

// NewLockedLock returns a lock that starts out exclusively held, for
// resources created mid-recording and unlocked when the recording ends.
func NewLockedLock[A ~uint32]() Lock[A] {
	return Lock[A]{state: lockedState}
}

// TryLock attempts to claim the resource exclusively. On success it returns
// the state the resource was in; the caller must pair it with exactly one
// Unlock or UnlockToShared. It fails with ErrLocked or ErrShared without
// blocking.
func (l *Lock[A]) TryLock() (A, error) {
	for {
		old := atomic.LoadUint32(&l.state)
		switch old {
		case lockedState:
			return 0, ErrLocked
		case sharedState:
			return 0, ErrShared
		}
		if atomic.CompareAndSwapUint32(&l.state, old, lockedState) {
			return A(old), nil
		}
	}
}

// Unlock releases an exclusive claim, publishing the state the resource was
// left in. Unlock panics when the lock is not held.
func (l *Lock[A]) Unlock(a A) {
	l.unlock(stateWord(a))
}

// UnlockToShared releases an exclusive claim into shared read-only access.
// Every subsequent TryLock fails with ErrShared; the resource can never be
// claimed for mutation again.
func (l *Lock[A]) UnlockToShared() {
	l.unlock(sharedState)
}

func (l *Lock[A]) unlock(word uint32) {
	if !atomic.CompareAndSwapUint32(&l.state, lockedState, word) {
		panic("access: double unlock")
	}
}

func stateWord[A ~uint32](a A) uint32 {
	w := uint32(a)
	if w > MaxState {
		panic("access: state value overlaps the locked or shared sentinel")
	}
	return w
}
