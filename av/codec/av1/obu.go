// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package av1

import (
	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// OBUHeader obu_header()
type OBUHeader struct {
	Type          uint8
	ExtensionFlag bool
	HasSizeField  bool
	TemporalID    uint8
	SpatialID     uint8
}

// Size returns the header length in bytes.
func (h *OBUHeader) Size() int {
	if h.ExtensionFlag {
		return 2
	}
	return 1
}

func (h *OBUHeader) decode(rec *syntax.Recorder) {
	if rec.Flag("obu_forbidden_bit") {
		rec.Failf("obu_forbidden_bit", "obu_forbidden_bit is set")
		return
	}
	h.Type = uint8(rec.U("obu_type", 4))
	h.ExtensionFlag = rec.Flag("obu_extension_flag")
	h.HasSizeField = rec.Flag("obu_has_size_field")
	rec.Skip("obu_reserved_1bit", 1)

	if h.ExtensionFlag {
		rec.Container("obu_extension_header", func() {
			h.TemporalID = uint8(rec.U("temporal_id", 3))
			h.SpatialID = uint8(rec.U("spatial_id", 2))
			rec.Skip("extension_header_reserved_3bits", 3)
		})
	}
}

// State carries what one OBU leaves behind for the next.
type State struct {
	SequenceHeader *SequenceHeader
}

// OBU is the decoded header of one open_bitstream_unit().
type OBU struct {
	Header OBUHeader
	Size   int // payload bytes
}

// DecodeOBU records one open_bitstream_unit() spanning the rest of the
// reader. A sequence header payload is decoded field by field and stored
// in st; other payloads are recorded as one skipped field.
func DecodeOBU(rec *syntax.Recorder, st *State) OBU {
	var obu OBU
	rec.Container("obu_header", func() { obu.Header.decode(rec) })
	if rec.Failed() {
		return obu
	}

	if obu.Header.HasSizeField {
		obu.Size = int(rec.Leb128("obu_size"))
		if !rec.Failed() && obu.Size*8 > rec.BitsLeft() {
			rec.Failf("obu_size", "obu_size %d exceeds the %d bytes left", obu.Size, rec.BitsLeft()/8)
			return obu
		}
	} else {
		obu.Size = rec.BitsLeft() / 8
	}
	if rec.Failed() {
		return obu
	}

	end := rec.Offset() + obu.Size*8
	switch obu.Header.Type {
	case OBUSequenceHeader:
		sh := &SequenceHeader{}
		rec.Container("sequence_header", func() { sh.Decode(rec) })
		if rec.Failed() {
			break
		}
		if rec.Offset() > end {
			rec.Failf("sequence_header", "sequence header overruns obu_size by %d bits", rec.Offset()-end)
			break
		}
		st.SequenceHeader = sh
		rec.Skip("trailing_bits", end-rec.Offset())
	case OBUTemporalDelimiter:
		// the payload is empty; anything obu_size declares is still recorded
		rec.Skip("temporal_delimiter_payload", obu.Size*8)
	default:
		rec.Skip(OBUTypeName(obu.Header.Type), obu.Size*8)
	}
	return obu
}

// ParseOBU parses one OBU with its header.
func ParseOBU(data []byte, st *State) (OBU, *syntax.Tree, error) {
	var obu OBU
	tree, err := syntax.Parse(data, "obu", func(rec *syntax.Recorder) {
		obu = DecodeOBU(rec, st)
	})
	return obu, tree, err
}

// SplitOBUs splits a low overhead bitstream format temporal unit into OBUs.
// An OBU without obu_size extends to the end of data.
func SplitOBUs(data []byte) ([][]byte, error) {
	var obus [][]byte
	for len(data) > 0 {
		r := bits.NewReader(data)
		header, _, err := r.Read(8)
		if err != nil {
			return obus, err
		}
		if header&0x04 != 0 {
			if _, err = r.Skip(8); err != nil {
				return obus, errors.Wrap(err, "obu_extension_header")
			}
		}

		if header&0x02 == 0 {
			return append(obus, data), nil
		}

		size, _, err := r.ReadLeb128()
		if err != nil {
			return obus, errors.Wrap(err, "obu_size")
		}
		total := r.Offset()/8 + int(size)
		if total > len(data) {
			return obus, errors.Wrapf(bits.ErrUnexpectedEnd, "obu of %d bytes, %d left", total, len(data))
		}
		obus = append(obus, data[:total])
		data = data[total:]
	}
	return obus, nil
}
