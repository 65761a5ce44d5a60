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

// writeBits packs a string of '0'/'1' characters MSB-first.
func writeBits(s string) []byte {
	buf := make([]byte, (len(s)+7)/8)
	for i, c := range s {
		if c == '1' {
			buf[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	return buf
}

// ueBits encodes v as ue(v).
func ueBits(v uint64) string {
	v++
	n := 0
	for x := v; x > 1; x >>= 1 {
		n++
	}
	s := ""
	for i := 0; i < n; i++ {
		s += "0"
	}
	for i := n; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			s += "1"
		} else {
			s += "0"
		}
	}
	return s
}

func TestReadUe_Vectors(t *testing.T) {
	tests := []struct {
		bits string
		want uint64
		len  int
	}{
		{"1", 0, 1},
		{"010", 1, 3},
		{"011", 2, 3},
		{"00100", 3, 5},
		{"00111", 6, 5},
		{"0001000", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.bits, func(t *testing.T) {
			r := NewReader(writeBits(tt.bits))
			v, rg, err := r.ReadUe()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, Range{0, tt.len}, rg)
		})
	}
}

func TestReadUe_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 5, 17, 255, 256, 1000, 65535, 1<<20 + 3}
	s := ""
	for _, v := range values {
		s += ueBits(v)
	}
	r := NewReader(writeBits(s))
	for _, want := range values {
		got, _, err := r.ReadUe()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, len(s), r.Offset())
}

func TestReadSe(t *testing.T) {
	// k: 0 1 2 3 4 -> 0 1 -1 2 -2
	s := ueBits(0) + ueBits(1) + ueBits(2) + ueBits(3) + ueBits(4)
	r := NewReader(writeBits(s))
	for _, want := range []int64{0, 1, -1, 2, -2} {
		got, _, err := r.ReadSe()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReadUe_LeadingZeroBound(t *testing.T) {
	// 40 zero bytes: the run exceeds the bound long before data runs out
	r := NewReader(make([]byte, 40))
	_, _, err := r.ReadUe()
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))
	assert.Equal(t, MaxLeadingZeros+1, r.Offset())

	// exactly 32 zeros, a one bit and 32 value bits is still accepted
	buf := make([]byte, 9)
	buf[4] = 0x80
	r = NewReader(buf)
	v, rg, err := r.ReadUe()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<32-1), v)
	assert.Equal(t, 65, rg.Len())
}

func TestReadUe_Truncated(t *testing.T) {
	r := NewReader(writeBits("0001"))
	_, _, err := r.ReadUe()
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))
}

func TestReadUvlc(t *testing.T) {
	r := NewReader(writeBits("1" + "011"))
	v, _, err := r.ReadUvlc()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	v, _, err = r.ReadUvlc()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	buf := make([]byte, 5)
	buf[4] = 0x80
	r = NewReader(buf)
	v, rg, err := r.ReadUvlc()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<32-1), v)
	assert.Equal(t, 33, rg.Len())
}

func TestReadLeb128(t *testing.T) {
	r := NewReader([]byte{0xe5, 0x8e, 0x26, 0x05})
	v, rg, err := r.ReadLeb128()
	require.NoError(t, err)
	assert.Equal(t, uint64(624485), v)
	assert.Equal(t, Range{0, 24}, rg)

	v, _, err = r.ReadLeb128()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)

	_, _, err = NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}).ReadLeb128()
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))

	// 35 value bits: well-formed code, value out of range
	r = NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x7f})
	_, rg, err = r.ReadLeb128()
	assert.True(t, errors.Is(err, ErrInvalidData))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, Range{0, 40}, rg)
}

func TestReadSu(t *testing.T) {
	r := NewReader(writeBits("1111" + "0111" + "1000"))
	for _, want := range []int64{-1, 7, -8} {
		v, _, err := r.ReadSu(4)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestReadSignMagnitude(t *testing.T) {
	r := NewReader(writeBits("000001" + "0" + "000001" + "1" + "1010"))
	for _, want := range []int64{1, -1} {
		v, rg, err := r.ReadSignMagnitude(6)
		require.NoError(t, err)
		assert.Equal(t, want, v)
		assert.Equal(t, 7, rg.Len())
	}
	_, _, err := r.ReadSignMagnitude(4)
	assert.True(t, errors.Is(err, ErrUnexpectedEnd))
	assert.Equal(t, 14, r.Offset())

	_, _, err = r.ReadSignMagnitude(32)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestReadNs(t *testing.T) {
	// n=5: w=3, m=3; values 0..2 take 2 bits, 3..4 take 3 bits
	r := NewReader(writeBits("10" + "110" + "111"))
	v, rg, err := r.ReadNs(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)
	assert.Equal(t, 2, rg.Len())

	v, rg, err = r.ReadNs(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
	assert.Equal(t, 3, rg.Len())

	v, _, err = r.ReadNs(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v)

	_, _, err = r.ReadNs(0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestReadLe(t *testing.T) {
	r := NewReader([]byte{0x34, 0x12, 0x00})
	v, rg, err := r.ReadLe(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)
	assert.Equal(t, 16, rg.Len())
}

func BenchmarkReadUe(b *testing.B) {
	buf := writeBits(ueBits(1000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(buf)
		_, _, _ = r.ReadUe()
	}
}
