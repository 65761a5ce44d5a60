// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bits

import (
	"github.com/pkg/errors"
)

// MaxReadBits is the widest value Read accepts; wider fields are composed by the caller.
const MaxReadBits = 32

var (
	// ErrUnexpectedEnd is returned when fewer bits remain than a read requires.
	ErrUnexpectedEnd = errors.New("bits: unexpected end of data")
	// ErrInvalidArgument is returned for nonsensical widths or offsets.
	ErrInvalidArgument = errors.New("bits: invalid argument")
	// ErrInvalidData is returned when stream content violates a modeled constraint.
	ErrInvalidData = errors.New("bits: invalid data")
)

// Range is a half-open interval [Start, End) of absolute bit positions.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bits in the range.
func (r Range) Len() int { return r.End - r.Start }

// ByteStart returns the index of the byte holding the first bit.
func (r Range) ByteStart() int { return r.Start >> 3 }

// ByteEnd returns the exclusive end byte index covering the last bit.
func (r Range) ByteEnd() int { return (r.End + 7) >> 3 }

// Contains reports whether bit lies inside the range.
func (r Range) Contains(bit int) bool { return bit >= r.Start && bit < r.End }

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	if o.Start < r.Start {
		r.Start = o.Start
	}
	if o.End > r.End {
		r.End = o.End
	}
	return r
}

// Reader is an MSB-first bit cursor over an immutable byte slice.
// A Reader is not safe for concurrent use; several Readers may share one buffer.
type Reader struct {
	buf    []byte
	offset int // bit base
}

// NewReader returns a new Reader positioned at bit 0.
func NewReader(buf []byte) *Reader {
	return &Reader{
		buf: buf,
	}
}

// NewReaderAt returns a Reader positioned at the given bit offset.
func NewReaderAt(buf []byte, offset int) (*Reader, error) {
	if offset < 0 || offset > len(buf)<<3 {
		return nil, errors.Wrapf(ErrInvalidArgument, "start offset %d outside [0, %d]", offset, len(buf)<<3)
	}
	return &Reader{buf: buf, offset: offset}, nil
}

// Offset returns the offset of bits.
func (r *Reader) Offset() int {
	return r.offset
}

// BitsLeft returns the number of left bits.
func (r *Reader) BitsLeft() int {
	return len(r.buf)<<3 - r.offset
}

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *Reader) ByteAligned() bool {
	return r.offset&0x7 == 0
}

// Bytes returns the underlying buffer.
func (r *Reader) Bytes() []byte {
	return r.buf
}

// ReadBit read a bit.
func (r *Reader) ReadBit() (bool, Range, error) {
	if r.BitsLeft() < 1 {
		return false, Range{r.offset, r.offset}, errors.Wrapf(ErrUnexpectedEnd, "read 1 bit at %d", r.offset)
	}

	rg := Range{r.offset, r.offset + 1}
	tmp := (r.buf[r.offset>>3] >> (7 - r.offset&0x7)) & 1
	r.offset++
	return tmp == 1, rg, nil
}

// Read read the uint32 of n bits.
func (r *Reader) Read(n int) (uint32, Range, error) {
	if err := r.check(n, MaxReadBits); err != nil {
		return 0, Range{r.offset, r.offset}, err
	}

	rg := Range{r.offset, r.offset + n}
	v := r.readUint64(n)
	return uint32(v), rg, nil
}

// Peek returns the next n bits without advancing.
func (r *Reader) Peek(n int) (uint32, error) {
	if err := r.check(n, MaxReadBits); err != nil {
		return 0, err
	}
	clone := *r
	return uint32(clone.readUint64(n)), nil
}

// Skip skip n bits.
func (r *Reader) Skip(n int) (Range, error) {
	if n < 0 {
		return Range{r.offset, r.offset}, errors.Wrapf(ErrInvalidArgument, "skip %d bits", n)
	}
	if n > r.BitsLeft() {
		return Range{r.offset, r.offset}, errors.Wrapf(ErrUnexpectedEnd, "skip %d bits at %d, %d left", n, r.offset, r.BitsLeft())
	}
	rg := Range{r.offset, r.offset + n}
	r.offset += n
	return rg, nil
}

// Align skips to the next byte boundary.
func (r *Reader) Align() (Range, error) {
	return r.Skip((8 - r.offset&0x7) & 0x7)
}

// MoreRBSPData reports whether syntax data remains before the rbsp_stop_one_bit.
func (r *Reader) MoreRBSPData() bool {
	left := r.BitsLeft()
	if left <= 0 {
		return false
	}

	// find the last set bit in the buffer: the stop bit
	last := len(r.buf) - 1
	for last >= 0 && r.buf[last] == 0 {
		last--
	}
	if last < 0 {
		return false
	}
	b := r.buf[last]
	stop := last<<3 + 7
	for b&1 == 0 {
		b >>= 1
		stop--
	}
	return r.offset < stop
}

func (r *Reader) check(n, max int) error {
	if n < 0 || n > max {
		return errors.Wrapf(ErrInvalidArgument, "read %d bits, want 0..%d", n, max)
	}
	if n > r.BitsLeft() {
		return errors.Wrapf(ErrUnexpectedEnd, "read %d bits at %d, %d left", n, r.offset, r.BitsLeft())
	}
	return nil
}

var bitsMask = [9]byte{
	0x00,
	0x01, 0x03, 0x07, 0x0f,
	0x1f, 0x3f, 0x7f, 0xff,
}

// readUint64 read the uint64 of n bits; bounds are checked by the caller.
func (r *Reader) readUint64(n int) uint64 {
	if n <= 0 {
		return 0
	}

	idx := r.offset >> 3
	validBits := 8 - r.offset&0x7
	r.offset += n

	var tmp uint64
	for n >= validBits {
		n -= validBits
		tmp |= uint64(r.buf[idx]&bitsMask[validBits]) << n
		idx++
		validBits = 8
	}

	if n > 0 {
		tmp |= uint64((r.buf[idx] >> (validBits - n)) & bitsMask[n])
	}
	return tmp
}
