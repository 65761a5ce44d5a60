// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// BlockSize 块尺寸, in AV1 subsize order.
type BlockSize uint8

// 块尺寸常量
const (
	Block4x4 BlockSize = iota
	Block4x8
	Block8x4
	Block8x8
	Block8x16
	Block16x8
	Block16x16
	Block16x32
	Block32x16
	Block32x32
	Block32x64
	Block64x32
	Block64x64
	Block64x128
	Block128x64
	Block128x128
	Block4x16
	Block16x4
	Block8x32
	Block32x8
	Block16x64
	Block64x16
	BlockSizes // number of block sizes
)

// log2 of width and height in pixels
var (
	widthLog2  = [BlockSizes]uint8{2, 2, 3, 3, 3, 4, 4, 4, 5, 5, 5, 6, 6, 6, 7, 7, 2, 4, 3, 5, 4, 6}
	heightLog2 = [BlockSizes]uint8{2, 3, 2, 3, 4, 3, 4, 5, 4, 5, 6, 5, 6, 7, 6, 7, 4, 2, 5, 3, 6, 4}
)

// Valid reports whether bs is one of the enumerated sizes.
func (bs BlockSize) Valid() bool {
	return bs < BlockSizes
}

// Width returns the block width in pixels, 0 for an invalid size.
func (bs BlockSize) Width() int {
	if !bs.Valid() {
		return 0
	}
	return 1 << widthLog2[bs]
}

// Height returns the block height in pixels, 0 for an invalid size.
func (bs BlockSize) Height() int {
	if !bs.Valid() {
		return 0
	}
	return 1 << heightLog2[bs]
}

// String returns the size as "WxH".
func (bs BlockSize) String() string {
	if !bs.Valid() {
		return fmt.Sprintf("BlockSize(%d)", uint8(bs))
	}
	return strconv.Itoa(bs.Width()) + "x" + strconv.Itoa(bs.Height())
}

// MarshalText marshals the BlockSize to text.
func (bs BlockSize) MarshalText() ([]byte, error) {
	if !bs.Valid() {
		return nil, errors.Wrapf(bits.ErrInvalidArgument, "block size %d", uint8(bs))
	}
	return []byte(bs.String()), nil
}

// UnmarshalText unmarshals text to a BlockSize.
func (bs *BlockSize) UnmarshalText(text []byte) error {
	v, err := ParseBlockSize(string(text))
	if err != nil {
		return err
	}
	*bs = v
	return nil
}

// BlockSizeOf returns the block size with the given dimensions.
func BlockSizeOf(w, h int) (BlockSize, bool) {
	for bs := BlockSize(0); bs < BlockSizes; bs++ {
		if bs.Width() == w && bs.Height() == h {
			return bs, true
		}
	}
	return BlockSizes, false
}

// ParseBlockSize parses "WxH", e.g. "64x64".
func ParseBlockSize(s string) (BlockSize, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return BlockSizes, errors.Wrapf(bits.ErrInvalidArgument, "block size %q", s)
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil {
		return BlockSizes, errors.Wrapf(bits.ErrInvalidArgument, "block size %q", s)
	}
	bs, ok := BlockSizeOf(w, h)
	if !ok {
		return BlockSizes, errors.Wrapf(bits.ErrInvalidArgument, "no %dx%d block size", w, h)
	}
	return bs, nil
}
