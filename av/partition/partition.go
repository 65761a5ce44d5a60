// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"fmt"
	"strings"

	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// PartitionType 分区类型
type PartitionType uint8

// 分区类型常量, numbered as the partition symbol
const (
	None PartitionType = iota
	Horz
	Vert
	Split
	HorzA
	HorzB
	VertA
	VertB
	Horz4
	Vert4
	PartitionTypes // number of partition types
)

var partitionNames = [PartitionTypes]string{
	"none", "horz", "vert", "split",
	"horz_a", "horz_b", "vert_a", "vert_b",
	"horz_4", "vert_4",
}

// String returns a lower-case ASCII representation of the partition type.
func (pt PartitionType) String() string {
	if pt >= PartitionTypes {
		return fmt.Sprintf("PartitionType(%d)", uint8(pt))
	}
	return partitionNames[pt]
}

// MarshalText marshals the PartitionType to text.
func (pt PartitionType) MarshalText() ([]byte, error) {
	return []byte(pt.String()), nil
}

// UnmarshalText unmarshals text to a PartitionType.
func (pt *PartitionType) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range partitionNames {
		if n == name {
			*pt = PartitionType(i)
			return nil
		}
	}
	return fmt.Errorf("unrecognized partition type: %q", text)
}

// TypeOf validates a decoded partition symbol.
func TypeOf(symbol uint8) (PartitionType, error) {
	if symbol >= uint8(PartitionTypes) {
		return None, errors.Wrapf(bits.ErrInvalidData, "partition symbol %d, want 0..%d", symbol, PartitionTypes-1)
	}
	return PartitionType(symbol), nil
}

// SubBlockCount returns how many sub-blocks the partition produces.
func (pt PartitionType) SubBlockCount() int {
	switch pt {
	case None:
		return 1
	case Horz, Vert:
		return 2
	case HorzA, HorzB, VertA, VertB:
		return 3
	case Split, Horz4, Vert4:
		return 4
	default:
		return 0
	}
}

// IsAllowed reports whether the partition may be applied to bs.
func (pt PartitionType) IsAllowed(bs BlockSize) bool {
	w, h := bs.Width(), bs.Height()
	switch pt {
	case None:
		return bs.Valid()
	case Horz, Vert, Split:
		return w >= 8 && h >= 8
	case HorzA, HorzB, VertA, VertB:
		return w >= 16 && h >= 16
	case Horz4:
		return w >= 16 && h >= 32
	case Vert4:
		return w >= 32 && h >= 16
	default:
		return false
	}
}

// SubBlockSizes returns the sizes of the sub-blocks in index order.
// None, Horz, Vert and Split halve the parent exactly; the asymmetric and
// 4-way types repeat the parent size. ok is false when a half size is not
// an enumerated block size.
func (pt PartitionType) SubBlockSizes(bs BlockSize) (sizes []BlockSize, ok bool) {
	w, h := bs.Width(), bs.Height()
	var sub BlockSize
	switch pt {
	case None:
		sub, ok = bs, bs.Valid()
	case Horz:
		sub, ok = BlockSizeOf(w, h/2)
	case Vert:
		sub, ok = BlockSizeOf(w/2, h)
	case Split:
		sub, ok = BlockSizeOf(w/2, h/2)
	case HorzA, HorzB, VertA, VertB, Horz4, Vert4:
		sub, ok = bs, bs.Valid()
	}
	if !ok {
		return nil, false
	}

	sizes = make([]BlockSize, pt.SubBlockCount())
	for i := range sizes {
		sizes[i] = sub
	}
	return sizes, true
}

// ChildPosition returns the origin of sub-block i of a parent at (px, py).
// Sub-blocks of the asymmetric and 4-way types sit at the parent origin.
func (pt PartitionType) ChildPosition(px, py, i int, bs BlockSize) (x, y int) {
	w, h := bs.Width(), bs.Height()
	switch pt {
	case Horz:
		return px, py + i*h/2
	case Vert:
		return px + i*w/2, py
	case Split:
		return px + (i&1)*w/2, py + (i>>1)*h/2
	default:
		return px, py
	}
}
