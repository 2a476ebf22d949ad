// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

// Slot is an owning, reference-counted handle to one table slot. The zero
// Slot is invalid. Slots are small values; copying one does NOT add a
// reference, use Clone for that.
type Slot struct {
	group *Group
	id    DescriptorID
}

// ID returns the slot's packed id.
func (s Slot) ID() DescriptorID {
	return s.id
}

// Valid reports whether the handle refers to a slot.
func (s Slot) Valid() bool {
	return s.group != nil
}

// Group returns the Group the slot belongs to, or nil for the zero Slot.
func (s Slot) Group() *Group {
	return s.group
}

// Clone takes an additional reference and returns a handle carrying it.
func (s Slot) Clone() Slot {
	s.table().refInc(s.id.Index())
	return s
}

// Release drops the handle's reference. When it is the last one the slot's
// index enters the current write-side reaper queue and the payload is
// destroyed one full reclamation cycle later. The handle must not be used
// afterwards.
func (s Slot) Release() {
	s.table().refDec(s.id.Index(), s.group.writeSide())
}

func (s Slot) table() anyTable {
	if s.group == nil {
		panic("table: use of invalid slot handle")
	}
	return s.group.tables[s.id.Kind()&kindMask]
}
