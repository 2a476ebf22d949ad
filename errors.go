// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"errors"
	"fmt"

	"github.com/gogpu/bindless/table"
)

// Sentinel errors. Capacity exhaustion surfaces as table.ErrOutOfCapacity
// wrapped with the resource name, and access conflicts as access.ErrLocked /
// access.ErrShared; everything here is specific to the root package.
var (
	// ErrNoUsage is returned when a buffer or image is allocated without
	// declaring any usage flag.
	ErrNoUsage = errors.New("bindless: resource must declare at least one usage")

	// ErrNoLongerAlive is returned when an Embedded reference in a payload
	// about to be uploaded points at a slot that has already been freed.
	ErrNoLongerAlive = errors.New("bindless: embedded reference no longer alive")

	// ErrClosed is returned by allocations against a closed instance, and
	// by Close itself when the instance was already closed.
	ErrClosed = errors.New("bindless: instance closed")
)

// NoLongerAliveError reports which embedded reference failed recovery during
// an upload. It unwraps to ErrNoLongerAlive.
type NoLongerAliveError struct {
	ID table.DescriptorID
}

func (e *NoLongerAliveError) Error() string {
	return fmt.Sprintf("bindless: embedded reference %v no longer alive", e.ID)
}

func (e *NoLongerAliveError) Unwrap() error { return ErrNoLongerAlive }

// MissingBufferUsageError reports a buffer used in a way its usage flags do
// not allow.
type MissingBufferUsageError struct {
	Name    string
	Usage   BufferUsage
	Missing BufferUsage
}

func (e *MissingBufferUsageError) Error() string {
	return fmt.Sprintf("bindless: buffer %q with usage %#x is missing usage %#x for this operation",
		e.Name, uint32(e.Usage), uint32(e.Missing))
}

// MissingImageUsageError reports an image used in a way its usage flags do
// not allow.
type MissingImageUsageError struct {
	Name    string
	Usage   ImageUsage
	Missing ImageUsage
}

func (e *MissingImageUsageError) Error() string {
	return fmt.Sprintf("bindless: image %q with usage %#x is missing usage %#x for this operation",
		e.Name, uint32(e.Usage), uint32(e.Missing))
}

// CheckBufferUsage verifies that the slot carries every flag of need.
func CheckBufferUsage(slot *BufferSlot, need BufferUsage) error {
	if slot.Usage&need != need {
		return &MissingBufferUsageError{Name: slot.Name, Usage: slot.Usage, Missing: need &^ slot.Usage}
	}
	return nil
}

// CheckImageUsage verifies that the slot carries every flag of need.
func CheckImageUsage(slot *ImageSlot, need ImageUsage) error {
	if slot.Usage&need != need {
		return &MissingImageUsageError{Name: slot.Name, Usage: slot.Usage, Missing: need &^ slot.Usage}
	}
	return nil
}
