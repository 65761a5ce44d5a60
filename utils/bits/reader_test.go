// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bitsDatas = [][]byte{
	{0x46, 0x4c, 0x56, 0x01, 0x05, 0x00, 0x00, 0x00, 0x09},
	{
		0x47, 0x40, 0x00, 0x10, 0x00,
		0x00, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00,
		0x00, 0x01, 0xf0, 0x01,
		0x2e, 0x70, 0x19, 0x05,
	},
}

func TestReader_ReadBit(t *testing.T) {
	r := NewReader(bitsDatas[0])
	gotRet, rg, err := r.ReadBit()
	require.NoError(t, err)
	assert.False(t, gotRet)
	assert.Equal(t, Range{0, 1}, rg)

	gotRet, _, _ = r.ReadBit()
	assert.True(t, gotRet)

	_, err = r.Skip(3)
	require.NoError(t, err)
	gotRet, _, _ = r.ReadBit()
	assert.True(t, gotRet)

	gotRet, _, _ = r.ReadBit()
	assert.True(t, gotRet)

	_, err = r.Skip(5)
	require.NoError(t, err)
	gotRet, _, _ = r.ReadBit()
	assert.True(t, gotRet)

	gotRet, _, _ = r.ReadBit()
	assert.True(t, gotRet)

	gotRet, rg, _ = r.ReadBit()
	assert.False(t, gotRet)
	assert.Equal(t, Range{14, 15}, rg)

	v, rg, err := r.Read(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2b), v)
	assert.Equal(t, Range{15, 23}, rg)
}

func TestReader_Read16(t *testing.T) {
	r := NewReader(bitsDatas[0])
	v, _, err := r.Read(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x464c), v)

	r.Skip(4)
	v, _, _ = r.Read(16)
	assert.Equal(t, uint32(0x6010), v)

	r.Skip(1)
	v, rg, _ := r.Read(2)
	assert.Equal(t, uint32(0x2), v)
	assert.Equal(t, Range{37, 39}, rg)
}

func TestReader_Read32(t *testing.T) {
	r := NewReader(bitsDatas[1])
	v, _, err := r.Read(32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x47400010), v)

	r.Skip(4)
	v, _, _ = r.Read(32)
	assert.Equal(t, uint32(0x000b00d0), v)

	r.Skip(8)
	v, _, _ = r.Read(12)
	assert.Equal(t, uint32(0x1c1), v)
}

func TestReader_Peek(t *testing.T) {
	r := NewReader(bitsDatas[1])
	v, err := r.Peek(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x47), v)
	assert.Equal(t, 0, r.Offset())
}

func TestReader_InvalidArgument(t *testing.T) {
	r := NewReader(bitsDatas[0])
	for _, n := range []int{-1, 33, 64} {
		_, _, err := r.Read(n)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "n=%d", n)
	}
	_, err := r.Skip(-2)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, 0, r.Offset(), "rejected calls must not touch the cursor")

	_, err = NewReaderAt(bitsDatas[0], len(bitsDatas[0])*8+1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestReader_UnexpectedEnd(t *testing.T) {
	r, err := NewReaderAt([]byte{0xff}, 4)
	require.NoError(t, err)

	v, _, err := r.Read(32)
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))
	assert.Zero(t, v)
	assert.Equal(t, 4, r.Offset())

	_, err = r.Skip(5)
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))

	v, _, err = r.Read(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xf), v)

	_, _, err = r.ReadBit()
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))
}

func TestReader_ZeroWidth(t *testing.T) {
	r := NewReader([]byte{0x80})
	v, rg, err := r.Read(0)
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Equal(t, 0, rg.Len())
}

func TestReader_Align(t *testing.T) {
	r := NewReader([]byte{0xff, 0x01})
	r.Skip(3)
	rg, err := r.Align()
	require.NoError(t, err)
	assert.Equal(t, Range{3, 8}, rg)
	assert.True(t, r.ByteAligned())

	rg, err = r.Align()
	require.NoError(t, err)
	assert.Zero(t, rg.Len())
}

func TestReader_MoreRBSPData(t *testing.T) {
	// payload 101, stop bit, alignment zeros
	r := NewReader([]byte{0xb0})
	assert.True(t, r.MoreRBSPData())
	r.Skip(3)
	assert.False(t, r.MoreRBSPData())

	assert.False(t, NewReader([]byte{0x00, 0x00}).MoreRBSPData())
}

// The ranges returned by a sequence of reads tile the consumed span exactly.
func TestReader_RangesCoverAdvance(t *testing.T) {
	r := NewReader(bitsDatas[1])
	start := r.Offset()
	total := 0
	widths := []int{1, 7, 3, 32, 0, 5, 12, 9}
	for _, n := range widths {
		_, rg, err := r.Read(n)
		require.NoError(t, err)
		total += rg.Len()
	}
	_, rg, err := r.ReadUe()
	require.NoError(t, err)
	total += rg.Len()
	rg, err = r.Skip(6)
	require.NoError(t, err)
	total += rg.Len()

	assert.Equal(t, r.Offset()-start, total)
}

func TestRange(t *testing.T) {
	rg := Range{5, 17}
	assert.Equal(t, 12, rg.Len())
	assert.Equal(t, 0, rg.ByteStart())
	assert.Equal(t, 3, rg.ByteEnd())
	assert.True(t, rg.Contains(5))
	assert.False(t, rg.Contains(17))
	assert.Equal(t, Range{2, 17}, rg.Union(Range{2, 9}))
}

func BenchmarkReadBit(b *testing.B) {
	r := NewReader(bitsDatas[1])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		_, _, _ = r.ReadBit()
	}
}

func BenchmarkRead13(b *testing.B) {
	r := NewReader(bitsDatas[1])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		_, _, _ = r.Read(13)
	}
}

func BenchmarkRead29(b *testing.B) {
	r := NewReader(bitsDatas[1])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.offset = 2
		_, _, _ = r.Read(29)
	}
}
