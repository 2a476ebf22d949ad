// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bindless

import (
	"fmt"

	"github.com/gogpu/bindless/table"
)

// DescriptorCounts sets the slot capacity of each table. Capacities are fixed
// for the lifetime of the instance; allocation past a capacity fails rather
// than growing the table, since descriptor arrays are sized once on the GPU.
type DescriptorCounts struct {
	Buffers  uint32
	Images   uint32
	Samplers uint32
}

// DefaultDescriptorCounts returns capacities that fit comfortably within the
// update-after-bind limits of desktop hardware.
func DefaultDescriptorCounts() DescriptorCounts {
	return DescriptorCounts{
		Buffers:  10_000,
		Images:   10_000,
		Samplers: 400,
	}
}

// Min returns the per-field minimum of c and limit, for clamping requested
// counts to device limits.
func (c DescriptorCounts) Min(limit DescriptorCounts) DescriptorCounts {
	return DescriptorCounts{
		Buffers:  min(c.Buffers, limit.Buffers),
		Images:   min(c.Images, limit.Images),
		Samplers: min(c.Samplers, limit.Samplers),
	}
}

// WithinLimit reports whether every count of c is at most the corresponding
// count of limit.
func (c DescriptorCounts) WithinLimit(limit DescriptorCounts) bool {
	return c.Buffers <= limit.Buffers &&
		c.Images <= limit.Images &&
		c.Samplers <= limit.Samplers
}

func (c DescriptorCounts) validate() error {
	for _, f := range []struct {
		name  string
		count uint32
	}{
		{"buffers", c.Buffers},
		{"images", c.Images},
		{"samplers", c.Samplers},
	} {
		if f.count == 0 || f.count > table.MaxCapacity {
			return fmt.Errorf("bindless: %s count %d not in 1..%d", f.name, f.count, uint32(table.MaxCapacity))
		}
	}
	return nil
}
