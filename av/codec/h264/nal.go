// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// NALHeader nal_unit_header
type NALHeader struct {
	RefIdc uint8
	Type   uint8
}

// IsIdr reports IdrPicFlag.
func (h *NALHeader) IsIdr() bool { return h.Type == NalIdrSlice }

func (h *NALHeader) decode(rec *syntax.Recorder) {
	if rec.Flag("forbidden_zero_bit") {
		rec.Failf("forbidden_zero_bit", "forbidden_zero_bit is set")
		return
	}
	h.RefIdc = uint8(rec.U("nal_ref_idc", 2))
	h.Type = uint8(rec.U("nal_unit_type", 5))

	switch h.Type {
	case NalPrefix, NalExtenSlice, NalDepthExtenSlice:
		rec.Container("nal_unit_header_extension", func() {
			rec.Flag("svc_extension_flag")
			rec.Skip("nal_unit_header_extension_bits", 23)
		})
	}
}

// State holds the parameter sets seen so far in a stream. Slices and
// picture parameter sets are decoded against it.
type State struct {
	SPS [MaxSpsCount]*SPS
	PPS [MaxPpsCount]*PPS
}

// NAL is one decoded NAL unit. Only the structure matching Header.Type is set.
type NAL struct {
	Header NALHeader
	SPS    *SPS
	PPS    *PPS
	Slice  *SliceHeader
}

// DecodeNAL records one NAL unit, without start code, spanning the rest of
// the reader. Parameter sets are stored into st.
func DecodeNAL(rec *syntax.Recorder, st *State) NAL {
	var nal NAL
	rec.Container("nal_unit_header", func() { nal.Header.decode(rec) })
	if rec.Failed() {
		return nal
	}

	switch nal.Header.Type {
	case NalSps:
		sps := &SPS{}
		rec.Container("seq_parameter_set_data", func() { sps.Decode(rec) })
		trailingBits(rec)
		if !rec.Failed() {
			st.SPS[sps.SeqParameterSetID] = sps
			nal.SPS = sps
		}
	case NalPps:
		pps := &PPS{}
		rec.Container("pic_parameter_set", func() { pps.Decode(rec, st) })
		trailingBits(rec)
		if !rec.Failed() {
			st.PPS[pps.PicParameterSetID] = pps
			nal.PPS = pps
		}
	case NalSlice, NalIdrSlice:
		sh := &SliceHeader{}
		rec.Container("slice_header", func() { sh.Decode(rec, &nal.Header, st) })
		if rec.Failed() {
			break
		}
		nal.Slice = sh
		rec.SkipToEnd("slice_data")
	case NalAud:
		rec.U("primary_pic_type", 3)
		trailingBits(rec)
	default:
		rec.SkipToEnd(NalTypeName(nal.Header.Type))
	}
	return nal
}

// trailingBits records rbsp_trailing_bits() and whatever padding follows.
func trailingBits(rec *syntax.Recorder) {
	if rec.Failed() || rec.BitsLeft() == 0 {
		return
	}
	if !rec.Flag("rbsp_stop_one_bit") {
		rec.Failf("rbsp_stop_one_bit", "rbsp_stop_one_bit is not set")
		return
	}
	rec.SkipToEnd("rbsp_alignment_zero_bits")
}

// ParseNAL parses one NAL unit without start code. Ranges refer to the
// escaped bytes of nal.
func ParseNAL(nal []byte, st *State) (NAL, *syntax.Tree, error) {
	var unit NAL
	tree, err := syntax.ParseRBSP(nal, "nal_unit", func(rec *syntax.Recorder) {
		unit = DecodeNAL(rec, st)
	})
	return unit, tree, err
}

// ParseSPS parses a sequence parameter set NAL unit.
func ParseSPS(nal []byte) (*SPS, *syntax.Tree, error) {
	var st State
	unit, tree, err := ParseNAL(nal, &st)
	if err == nil && unit.SPS == nil {
		err = errNotA("seq_parameter_set", unit.Header.Type)
	}
	return unit.SPS, tree, err
}

func errNotA(want string, nt uint8) error {
	return errors.Wrapf(bits.ErrInvalidArgument, "nal_unit_type %d is not a %s", nt, want)
}
