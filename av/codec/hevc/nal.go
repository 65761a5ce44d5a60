// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// NALHeader nal_unit_header()
type NALHeader struct {
	Type            uint8
	LayerID         uint8
	TemporalIDPlus1 uint8
}

func (h *NALHeader) decode(rec *syntax.Recorder) {
	if rec.Flag("forbidden_zero_bit") {
		rec.Failf("forbidden_zero_bit", "forbidden_zero_bit is set")
		return
	}
	h.Type = uint8(rec.U("nal_unit_type", 6))
	h.LayerID = uint8(rec.U("nuh_layer_id", 6))
	h.TemporalIDPlus1 = uint8(rec.U("nuh_temporal_id_plus1", 3))
	if !rec.Failed() && h.TemporalIDPlus1 == 0 {
		rec.Failf("nuh_temporal_id_plus1", "nuh_temporal_id_plus1 is 0")
	}
}

// State holds the parameter sets seen so far in a stream.
type State struct {
	VPS [MaxVpsCount]*VPS
	SPS [MaxSpsCount]*SPS
	PPS [MaxPpsCount]*PPS
}

// NAL is one decoded NAL unit. Only the structure matching Header.Type is set.
type NAL struct {
	Header NALHeader
	VPS    *VPS
	SPS    *SPS
	PPS    *PPS
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
	case NalVps:
		vps := &VPS{}
		rec.Container("video_parameter_set", func() { vps.Decode(rec) })
		trailingBits(rec)
		if !rec.Failed() {
			st.VPS[vps.ID] = vps
			nal.VPS = vps
		}
	case NalSps:
		sps := &SPS{}
		rec.Container("seq_parameter_set", func() { sps.Decode(rec) })
		trailingBits(rec)
		if !rec.Failed() {
			st.SPS[sps.ID] = sps
			nal.SPS = sps
		}
	case NalPps:
		pps := &PPS{}
		rec.Container("pic_parameter_set", func() { pps.Decode(rec) })
		trailingBits(rec)
		if !rec.Failed() {
			st.PPS[pps.ID] = pps
			nal.PPS = pps
		}
	case NalAud:
		rec.U("pic_type", 3)
		trailingBits(rec)
	default:
		rec.SkipToEnd(NalTypeName(nal.Header.Type))
	}
	return nal
}

// trailingBits records rbsp_trailing_bits() when the payload carries one.
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

// ParseNAL parses one NAL unit. Ranges refer to the escaped bytes of nal.
func ParseNAL(nal []byte, st *State) (NAL, *syntax.Tree, error) {
	var unit NAL
	tree, err := syntax.ParseRBSP(nal, "nal_unit", func(rec *syntax.Recorder) {
		unit = DecodeNAL(rec, st)
	})
	return unit, tree, err
}

// ParseVPS parses a video parameter set NAL unit.
func ParseVPS(nal []byte) (*VPS, *syntax.Tree, error) {
	var st State
	unit, tree, err := ParseNAL(nal, &st)
	if err == nil && unit.VPS == nil {
		err = errNotA("video_parameter_set", unit.Header.Type)
	}
	return unit.VPS, tree, err
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
