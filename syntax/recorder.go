// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
	"strconv"

	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// Recorder reads syntax elements from a bits.Reader and records each one
// into a Builder as it is read.
//
// The first failure is sticky: once a read fails every later read returns
// the zero value without touching the stream or the tree, and Container no
// longer runs its body. Grammars therefore read straight through and check
// Err at the end, or earlier where a failed value would drive a loop.
type Recorder struct {
	r     *bits.Reader
	b     *Builder
	last  int // end of the last recorded field
	err   error
	field string
	errAt int
}

// NewRecorder returns a recorder over r feeding b.
func NewRecorder(r *bits.Reader, b *Builder) *Recorder {
	return &Recorder{r: r, b: b, last: r.Offset()}
}

// Reader returns the underlying reader.
func (rec *Recorder) Reader() *bits.Reader { return rec.r }

// Builder returns the underlying builder.
func (rec *Recorder) Builder() *Builder { return rec.b }

// Offset returns the current bit position.
func (rec *Recorder) Offset() int { return rec.r.Offset() }

// BitsLeft returns the number of unread bits.
func (rec *Recorder) BitsLeft() int { return rec.r.BitsLeft() }

// ByteAligned reports whether the cursor sits on a byte boundary.
func (rec *Recorder) ByteAligned() bool { return rec.r.ByteAligned() }

// MoreRBSPData reports whether syntax data remains before the rbsp stop bit.
func (rec *Recorder) MoreRBSPData() bool {
	return rec.err == nil && rec.r.MoreRBSPData()
}

// Err returns the first failure, if any.
func (rec *Recorder) Err() error { return rec.err }

// Failed reports whether a read has failed.
func (rec *Recorder) Failed() bool { return rec.err != nil }

// Fail aborts the grammar at the current position because of a decoded value.
func (rec *Recorder) Fail(name string, err error) {
	rec.fail(name, rec.r.Offset(), err)
}

// Failf aborts the grammar with an ErrInvalidData cause.
func (rec *Recorder) Failf(name string, format string, args ...interface{}) {
	rec.fail(name, rec.r.Offset(), errors.Wrapf(bits.ErrInvalidData, format, args...))
}

func (rec *Recorder) fail(name string, at int, err error) {
	if rec.err != nil {
		return
	}
	rec.err = err
	rec.field = name
	rec.errAt = at
}

func (rec *Recorder) record(name string, rg bits.Range, value string) {
	if rg.Len() == 0 {
		return
	}
	if err := rec.b.AddField(name, rg, value); err != nil {
		rec.fail(name, rg.Start, err)
		return
	}
	rec.last = rg.End
}

// U reads an n-bit unsigned field, u(n) / f(n).
func (rec *Recorder) U(name string, n int) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.Read(n)
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(uint64(v), 10))
	return v
}

// Flag reads a one-bit flag.
func (rec *Recorder) Flag(name string) bool {
	return rec.U(name, 1) == 1
}

// UE reads ue(v). Values that do not fit 32 bits are invalid data.
func (rec *Recorder) UE(name string) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadUe()
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	if v > 0xffffffff {
		rec.fail(name, at, errors.Wrapf(bits.ErrInvalidData, "ue(v) %d exceeds 32 bits", v))
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(v, 10))
	return uint32(v)
}

// UEMax reads ue(v) and rejects values above max. Counts that size loops
// or tables are read this way.
func (rec *Recorder) UEMax(name string, max uint32) uint32 {
	at := rec.r.Offset()
	v := rec.UE(name)
	if rec.err == nil && v > max {
		rec.fail(name, at, errors.Wrapf(bits.ErrInvalidData, "%s = %d, want <= %d", name, v, max))
		return 0
	}
	return v
}

// SE reads se(v).
func (rec *Recorder) SE(name string) int32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadSe()
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	if v > 1<<31-1 || v < -(1<<31) {
		rec.fail(name, at, errors.Wrapf(bits.ErrInvalidData, "se(v) %d exceeds 32 bits", v))
		return 0
	}
	rec.record(name, rg, strconv.FormatInt(v, 10))
	return int32(v)
}

// Uvlc reads an AV1 uvlc() value.
func (rec *Recorder) Uvlc(name string) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadUvlc()
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(v, 10))
	return uint32(v)
}

// Leb128 reads an AV1 leb128() value.
func (rec *Recorder) Leb128(name string) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadLeb128()
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(v, 10))
	return uint32(v)
}

// Su reads an n-bit signed value, su(n).
func (rec *Recorder) Su(name string, n int) int32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadSu(n)
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatInt(v, 10))
	return int32(v)
}

// SignMag reads an n-bit magnitude and its trailing sign bit as one field.
func (rec *Recorder) SignMag(name string, n int) int32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadSignMagnitude(n)
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatInt(v, 10))
	return int32(v)
}

// Ns reads a non-symmetric value in [0, n), ns(n).
func (rec *Recorder) Ns(name string, n uint32) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadNs(n)
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(uint64(v), 10))
	return v
}

// Le reads n little-endian bytes, le(n).
func (rec *Recorder) Le(name string, n int) uint32 {
	if rec.err != nil {
		return 0
	}
	at := rec.r.Offset()
	v, rg, err := rec.r.ReadLe(n)
	if err != nil {
		rec.fail(name, at, err)
		return 0
	}
	rec.record(name, rg, strconv.FormatUint(uint64(v), 10))
	return v
}

// Skip consumes n bits without decoding them. The bits are still recorded
// so that they can be highlighted.
func (rec *Recorder) Skip(name string, n int) {
	if rec.err != nil {
		return
	}
	at := rec.r.Offset()
	rg, err := rec.r.Skip(n)
	if err != nil {
		rec.fail(name, at, err)
		return
	}
	rec.record(name, rg, fmt.Sprintf("skipped(%d)", n))
}

// SkipToEnd records everything left in the buffer as one skipped field.
func (rec *Recorder) SkipToEnd(name string) {
	rec.Skip(name, rec.r.BitsLeft())
}

// Align skips to the next byte boundary.
func (rec *Recorder) Align(name string) {
	rec.Skip(name, (8-rec.r.Offset()&0x7)&0x7)
}

// Container records the elements read by fn inside a named container.
// The container is closed on every exit path of fn; after a failure it is
// closed at the end of the last recorded field.
func (rec *Recorder) Container(name string, fn func()) error {
	if rec.err != nil {
		return rec.err
	}

	start := rec.r.Offset()
	rec.b.Push(name, start)
	defer func() {
		end := rec.r.Offset()
		if rec.err != nil {
			end = start
			if rec.last > end {
				end = rec.last
			}
		}
		if err := rec.b.Pop(end); err != nil {
			rec.fail(name, end, err)
		}
	}()

	fn()
	return rec.err
}

// Parse runs fn inside a root container over data and returns the finished
// tree, or a *ParseError carrying the partial tree.
func Parse(data []byte, root string, fn func(rec *Recorder)) (*Tree, error) {
	return ParseReader(bits.NewReader(data), root, fn)
}

// ParseReader is like Parse but starts at the reader's current position.
func ParseReader(r *bits.Reader, root string, fn func(rec *Recorder)) (*Tree, error) {
	b := NewBuilder()
	rec := NewRecorder(r, b)
	rec.Container(root, func() { fn(rec) })

	if rec.err != nil {
		return nil, &ParseError{
			Unit:      root,
			Field:     rec.field,
			BitOffset: rec.errAt,
			Err:       rec.err,
			Partial:   b.Partial(),
		}
	}
	return b.Build()
}
