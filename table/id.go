// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package table

import "fmt"

// Bit layout of a packed DescriptorID. All 32 bits are used: the index
// occupies the low bits so the common "index only" extraction is a single
// mask, and the version sits in the high bits.
const (
	// IndexBits is the number of bits for the slot index within one table.
	IndexBits = 18

	// KindBits is the number of bits identifying the table within a Group.
	KindBits = 2

	// VersionBits is the number of bits for the slot reuse version.
	VersionBits = 12

	indexShift   = 0
	kindShift    = IndexBits
	versionShift = IndexBits + KindBits

	indexMask   = 1<<IndexBits - 1
	kindMask    = 1<<KindBits - 1
	versionMask = 1<<VersionBits - 1
)

// MaxCapacity is the largest slot capacity a single table can be registered
// with: one more than the largest representable index.
const MaxCapacity = 1 << IndexBits

// GroupTables is the number of tables one Group can hold.
const GroupTables = 1 << KindBits

// MaxVersion is the largest representable slot version. A slot that has been
// reclaimed MaxVersion times is retired instead of returning to the free
// pool, so a stale DescriptorID can never match a later allocation.
const MaxVersion = 1<<VersionBits - 1

// Index identifies a slot within one table. Indices are dense: allocation
// prefers reclaimed indices and otherwise extends a high-water mark, so there
// are no gaps below the high-water mark except slots currently in flight
// through destruction.
//
// An Index is only meaningful together with a liveness proof (an owning
// handle or a frame token); a bare Index may have been reused by an unrelated
// allocation.
type Index uint32

// Version is the reuse generation of a slot, incremented each time the slot's
// index is reclaimed into the free pool.
type Version uint32

// Kind identifies a table within a Group (e.g. buffer, image, sampler).
type Kind uint32

// DescriptorID is the packed 32-bit identity of one slot: index, table kind
// and version. It is the exact form written into GPU-visible memory for
// embedded references, 4 bytes with no framing.
type DescriptorID uint32

// NewDescriptorID packs kind, index and version. Values outside their bit
// ranges are a programming error and panic.
func NewDescriptorID(kind Kind, index Index, version Version) DescriptorID {
	if index > indexMask || kind > kindMask || version > versionMask {
		panic(fmt.Sprintf("table: descriptor id fields out of range: kind=%d index=%d version=%d",
			kind, index, version))
	}
	return DescriptorID(uint32(index)<<indexShift |
		uint32(kind)<<kindShift |
		uint32(version)<<versionShift)
}

// Index returns the slot index within the table.
func (id DescriptorID) Index() Index {
	return Index(uint32(id) >> indexShift & indexMask)
}

// Kind returns which table of the Group the id refers to.
func (id DescriptorID) Kind() Kind {
	return Kind(uint32(id) >> kindShift & kindMask)
}

// Version returns the slot reuse version the id was minted with.
func (id DescriptorID) Version() Version {
	return Version(uint32(id) >> versionShift & versionMask)
}

func (id DescriptorID) String() string {
	return fmt.Sprintf("id(kind=%d index=%d v=%d)", id.Kind(), id.Index(), id.Version())
}
