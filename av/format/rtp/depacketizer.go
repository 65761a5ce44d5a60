// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/cnotch/bitprobe/av/codec"
	"github.com/pkg/errors"
)

// ErrUnsupportedCodec is returned for codecs without a NAL payload format.
var ErrUnsupportedCodec = errors.New("rtp: unsupported codec")

// Depacketizer reassembles NAL units from the RTP packets of one stream.
type Depacketizer interface {
	// Depacketize returns the units completed by p, in order. After an
	// error the depacketizer drops the broken unit and stays usable.
	Depacketize(p *Packet) ([][]byte, error)
}

// NewDepacketizer creates a depacketizer for H.264 (RFC 6184) or HEVC
// (RFC 7798) payloads.
func NewDepacketizer(ct codec.Type) (Depacketizer, error) {
	switch ct {
	case codec.H264:
		return &h264Depacketizer{}, nil
	case codec.HEVC:
		return &h265Depacketizer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedCodec, "%q", ct.String())
	}
}

// fragments collects the pieces of one fragmented unit.
type fragments struct {
	unit    []byte
	lastSeq uint16
	active  bool
}

func (f *fragments) start(header []byte, seq uint16) {
	f.unit = append(f.unit[:0], header...)
	f.lastSeq = seq
	f.active = true
}

// add appends a piece; it reports false when a packet went missing.
func (f *fragments) add(piece []byte, seq uint16) bool {
	if !f.active || seq != f.lastSeq+1 {
		f.reset()
		return false
	}
	f.unit = append(f.unit, piece...)
	f.lastSeq = seq
	return true
}

func (f *fragments) finish() []byte {
	unit := make([]byte, len(f.unit))
	copy(unit, f.unit)
	f.reset()
	return unit
}

func (f *fragments) reset() {
	f.unit = f.unit[:0]
	f.active = false
}

// splitAggregate splits the units of an aggregation packet: each one is
// preceded by a 16 bit size.
func splitAggregate(payload []byte) ([][]byte, error) {
	var units [][]byte
	for off := 0; off < len(payload); {
		if off+2 > len(payload) {
			return units, errors.Wrapf(ErrInvalidPacket, "truncated unit size at byte %d", off)
		}
		size := int(payload[off])<<8 | int(payload[off+1])
		off += 2
		if size == 0 || off+size > len(payload) {
			return units, errors.Wrapf(ErrInvalidPacket, "unit of %d bytes at byte %d overruns the packet", size, off)
		}
		unit := make([]byte, size)
		copy(unit, payload[off:off+size])
		units = append(units, unit)
		off += size
	}
	return units, nil
}
