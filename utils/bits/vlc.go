// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"github.com/pkg/errors"
)

// MaxLeadingZeros bounds the zero-bit prefix of Exp-Golomb and uvlc codes.
// Corrupt input must not spin the reader over an arbitrarily long run.
const MaxLeadingZeros = 32

// maxLeb128Bytes is the AV1 limit on leb128() length.
const maxLeb128Bytes = 8

// countLeadingZeros consumes zero bits up to and including the terminating one bit.
func (r *Reader) countLeadingZeros() (int, error) {
	zeros := 0
	for {
		bit, _, err := r.ReadBit()
		if err != nil {
			return zeros, err
		}
		if bit {
			return zeros, nil
		}
		zeros++
		if zeros > MaxLeadingZeros {
			return zeros, errors.Wrapf(ErrUnexpectedEnd, "more than %d leading zero bits at %d", MaxLeadingZeros, r.offset)
		}
	}
}

// ReadUe reads an unsigned Exp-Golomb code, ue(v).
func (r *Reader) ReadUe() (uint64, Range, error) {
	start := r.offset
	zeros, err := r.countLeadingZeros()
	if err != nil {
		return 0, Range{start, r.offset}, err
	}

	v, _, err := r.Read(zeros)
	if err != nil {
		return 0, Range{start, r.offset}, err
	}
	return uint64(v) + (1 << uint(zeros)) - 1, Range{start, r.offset}, nil
}

// ReadSe reads a signed Exp-Golomb code, se(v).
func (r *Reader) ReadSe() (int64, Range, error) {
	k, rg, err := r.ReadUe()
	if err != nil {
		return 0, rg, err
	}
	if k&0x01 != 0 {
		return int64((k + 1) >> 1), rg, nil
	}
	return -int64(k >> 1), rg, nil
}

// ReadUvlc reads an AV1 uvlc() code.
func (r *Reader) ReadUvlc() (uint64, Range, error) {
	start := r.offset
	zeros, err := r.countLeadingZeros()
	if err != nil {
		return 0, Range{start, r.offset}, err
	}
	if zeros >= MaxLeadingZeros {
		return (1 << 32) - 1, Range{start, r.offset}, nil
	}

	v, _, err := r.Read(zeros)
	if err != nil {
		return 0, Range{start, r.offset}, err
	}
	return uint64(v) + (1 << uint(zeros)) - 1, Range{start, r.offset}, nil
}

// ReadLeb128 reads an AV1 leb128() value; the decoded value must fit in 32 bits.
func (r *Reader) ReadLeb128() (uint64, Range, error) {
	start := r.offset
	var value uint64
	for i := 0; i < maxLeb128Bytes; i++ {
		b, _, err := r.Read(8)
		if err != nil {
			return 0, Range{start, r.offset}, err
		}
		value |= uint64(b&0x7f) << (uint(i) * 7)
		if b&0x80 == 0 {
			if value > 0xffffffff {
				return 0, Range{start, r.offset}, errors.Wrapf(ErrInvalidData, "leb128 value %d exceeds 32 bits", value)
			}
			return value, Range{start, r.offset}, nil
		}
	}
	return 0, Range{start, r.offset}, errors.Wrapf(ErrUnexpectedEnd, "leb128 longer than %d bytes at %d", maxLeb128Bytes, start)
}

// ReadSu reads an n-bit two's complement value, su(n).
func (r *Reader) ReadSu(n int) (int64, Range, error) {
	v, rg, err := r.Read(n)
	if err != nil || n == 0 {
		return 0, rg, err
	}
	signMask := uint32(1) << uint(n-1)
	if v&signMask != 0 {
		return int64(v) - 2*int64(signMask), rg, nil
	}
	return int64(v), rg, nil
}

// ReadSignMagnitude reads an n-bit magnitude followed by a sign bit, the
// su(n) of VP9 (4.9).
func (r *Reader) ReadSignMagnitude(n int) (int64, Range, error) {
	start := r.offset
	if n < 0 {
		return 0, Range{start, start}, errors.Wrapf(ErrInvalidArgument, "su(%d)", n)
	}
	if err := r.check(n+1, MaxReadBits); err != nil {
		return 0, Range{start, start}, err
	}
	v := r.readUint64(n + 1)
	mag := int64(v >> 1)
	if v&1 != 0 {
		mag = -mag
	}
	return mag, Range{start, r.offset}, nil
}

// ReadNs reads a non-symmetric unsigned value in [0, n), ns(n).
func (r *Reader) ReadNs(n uint32) (uint32, Range, error) {
	start := r.offset
	if n == 0 {
		return 0, Range{start, start}, errors.Wrap(ErrInvalidArgument, "ns(0)")
	}

	w := 0
	for x := n; x != 0; x >>= 1 {
		w++
	}
	m := (uint32(1) << uint(w)) - n
	v, _, err := r.Read(w - 1)
	if err != nil {
		return 0, Range{start, r.offset}, err
	}
	if v < m {
		return v, Range{start, r.offset}, nil
	}
	extra, _, err := r.Read(1)
	if err != nil {
		return 0, Range{start, r.offset}, err
	}
	return (v << 1) - m + extra, Range{start, r.offset}, nil
}

// ReadLe reads n little-endian bytes, le(n).
func (r *Reader) ReadLe(n int) (uint32, Range, error) {
	start := r.offset
	if n < 0 || n > 4 {
		return 0, Range{start, start}, errors.Wrapf(ErrInvalidArgument, "le(%d)", n)
	}
	var v uint32
	for i := 0; i < n; i++ {
		b, _, err := r.Read(8)
		if err != nil {
			return 0, Range{start, r.offset}, err
		}
		v |= b << (uint(i) * 8)
	}
	return v, Range{start, r.offset}, nil
}
