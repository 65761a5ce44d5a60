// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSize(t *testing.T) {
	tests := []struct {
		bs   BlockSize
		w, h int
		str  string
	}{
		{Block4x4, 4, 4, "4x4"},
		{Block8x4, 8, 4, "8x4"},
		{Block16x32, 16, 32, "16x32"},
		{Block128x128, 128, 128, "128x128"},
		{Block4x16, 4, 16, "4x16"},
		{Block64x16, 64, 16, "64x16"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.w, tt.bs.Width())
			assert.Equal(t, tt.h, tt.bs.Height())
			assert.Equal(t, tt.str, tt.bs.String())

			got, err := ParseBlockSize(tt.str)
			require.NoError(t, err)
			assert.Equal(t, tt.bs, got)
		})
	}

	for bs := BlockSize(0); bs < BlockSizes; bs++ {
		got, ok := BlockSizeOf(bs.Width(), bs.Height())
		assert.True(t, ok)
		assert.Equal(t, bs, got)
	}

	_, ok := BlockSizeOf(128, 32)
	assert.False(t, ok)
	_, err := ParseBlockSize("12x12")
	assert.True(t, errors.Is(err, bits.ErrInvalidArgument))
	_, err = ParseBlockSize("64")
	assert.True(t, errors.Is(err, bits.ErrInvalidArgument))
	assert.Zero(t, BlockSizes.Width())
}

func TestSizeClass(t *testing.T) {
	assert.Equal(t, 0, SizeClass(Block4x4))
	assert.Equal(t, 0, SizeClass(Block8x8))
	assert.Equal(t, 1, SizeClass(Block16x16))
	assert.Equal(t, 2, SizeClass(Block32x8))
	assert.Equal(t, 3, SizeClass(Block64x64))
	assert.Equal(t, 4, SizeClass(Block128x128))
}

func TestPartitionType_IsAllowed(t *testing.T) {
	tests := []struct {
		pt   PartitionType
		bs   BlockSize
		want bool
	}{
		{None, Block4x4, true},
		{Horz, Block4x4, false},
		{Vert, Block8x4, false},
		{Split, Block8x8, true},
		{HorzA, Block8x8, false},
		{VertB, Block16x16, true},
		{Horz4, Block16x32, true},
		{Horz4, Block16x16, false},
		{Vert4, Block32x16, true},
		{Vert4, Block16x32, false},
		{PartitionTypes, Block64x64, false},
	}
	for _, tt := range tests {
		t.Run(tt.pt.String()+"/"+tt.bs.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pt.IsAllowed(tt.bs))
		})
	}
}

func TestPartitionType_SubBlocks(t *testing.T) {
	tests := []struct {
		pt    PartitionType
		bs    BlockSize
		count int
		sizes []BlockSize
	}{
		{None, Block32x32, 1, []BlockSize{Block32x32}},
		{Horz, Block32x32, 2, []BlockSize{Block32x16, Block32x16}},
		{Vert, Block64x32, 2, []BlockSize{Block32x32, Block32x32}},
		{Split, Block16x16, 4, []BlockSize{Block8x8, Block8x8, Block8x8, Block8x8}},
		{HorzA, Block32x32, 3, []BlockSize{Block32x32, Block32x32, Block32x32}},
		{Vert4, Block64x64, 4, []BlockSize{Block64x64, Block64x64, Block64x64, Block64x64}},
	}
	for _, tt := range tests {
		t.Run(tt.pt.String(), func(t *testing.T) {
			assert.Equal(t, tt.count, tt.pt.SubBlockCount())
			sizes, ok := tt.pt.SubBlockSizes(tt.bs)
			require.True(t, ok)
			assert.Equal(t, tt.sizes, sizes)
		})
	}

	_, ok := Horz.SubBlockSizes(Block128x64)
	assert.False(t, ok)
}

func TestPartitionType_ChildPosition(t *testing.T) {
	var got [][2]int
	for i := 0; i < Split.SubBlockCount(); i++ {
		x, y := Split.ChildPosition(100, 100, i, Block32x32)
		got = append(got, [2]int{x, y})
	}
	assert.Equal(t, [][2]int{{100, 100}, {116, 100}, {100, 116}, {116, 116}}, got)

	x, y := Horz.ChildPosition(0, 64, 1, Block64x64)
	assert.Equal(t, [2]int{0, 96}, [2]int{x, y})
	x, y = Vert.ChildPosition(0, 64, 1, Block64x64)
	assert.Equal(t, [2]int{32, 64}, [2]int{x, y})
	x, y = HorzB.ChildPosition(8, 8, 2, Block32x32)
	assert.Equal(t, [2]int{8, 8}, [2]int{x, y})
}

func TestTypeOf(t *testing.T) {
	pt, err := TypeOf(9)
	require.NoError(t, err)
	assert.Equal(t, Vert4, pt)

	_, err = TypeOf(12)
	assert.True(t, errors.Is(err, bits.ErrInvalidData))
}

func TestPartitionType_Text(t *testing.T) {
	data, err := json.Marshal(Block{X: 8, Width: 16, Height: 16, Partition: HorzA, Depth: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":8,"y":0,"width":16,"height":16,"partition":"horz_a","depth":2}`, string(data))

	var pt PartitionType
	require.NoError(t, pt.UnmarshalText([]byte("VERT_4")))
	assert.Equal(t, Vert4, pt)
	assert.Error(t, pt.UnmarshalText([]byte("diagonal")))
}
