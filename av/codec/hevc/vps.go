// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/bitprobe/syntax"
)

// SubLayerOrdering is one entry of the sub-layer ordering info loop.
type SubLayerOrdering struct {
	MaxDecPicBufferingMinus1 uint8
	MaxNumReorderPics        uint8
	MaxLatencyIncreasePlus1  uint32
}

// decodeSubLayerOrdering reads the ordering loop shared by VPS and SPS.
// Entries that are not signalled copy the highest sub-layer.
func decodeSubLayerOrdering(rec *syntax.Recorder, prefix string, present bool, maxSubLayersMinus1 int) []SubLayerOrdering {
	ordering := make([]SubLayerOrdering, maxSubLayersMinus1+1)
	start := maxSubLayersMinus1
	if present {
		start = 0
	}
	for i := start; i <= maxSubLayersMinus1; i++ {
		o := &ordering[i]
		o.MaxDecPicBufferingMinus1 = uint8(rec.UEMax(syntax.Index(prefix+"_max_dec_pic_buffering_minus1", i), MaxDpbSize-1))
		o.MaxNumReorderPics = uint8(rec.UEMax(syntax.Index(prefix+"_max_num_reorder_pics", i), MaxDpbSize-1))
		o.MaxLatencyIncreasePlus1 = rec.UE(syntax.Index(prefix+"_max_latency_increase_plus1", i))
	}
	for i := 0; i < start; i++ {
		ordering[i] = ordering[maxSubLayersMinus1]
	}
	return ordering
}

// VPS video_parameter_set_rbsp()
type VPS struct {
	ID                     uint8
	BaseLayerInternalFlag  bool
	BaseLayerAvailableFlag bool
	MaxLayersMinus1        uint8
	MaxSubLayersMinus1     uint8
	TemporalIDNestingFlag  bool

	ProfileTierLevel ProfileTierLevel

	SubLayerOrderingInfoPresentFlag bool
	SubLayerOrdering                []SubLayerOrdering

	MaxLayerID         uint8
	NumLayerSetsMinus1 uint16

	TimingInfoPresentFlag       bool
	NumUnitsInTick              uint32
	TimeScale                   uint32
	PocProportionalToTimingFlag bool
	NumTicksPocDiffOneMinus1    uint32
	NumHrdParameters            uint16
	HrdParameters               []HRD

	ExtensionFlag bool
}

// Decode records video_parameter_set_rbsp() without its trailing bits.
func (vps *VPS) Decode(rec *syntax.Recorder) {
	vps.ID = uint8(rec.U("vps_video_parameter_set_id", 4))
	vps.BaseLayerInternalFlag = rec.Flag("vps_base_layer_internal_flag")
	vps.BaseLayerAvailableFlag = rec.Flag("vps_base_layer_available_flag")
	vps.MaxLayersMinus1 = uint8(rec.U("vps_max_layers_minus1", 6))
	vps.MaxSubLayersMinus1 = uint8(rec.U("vps_max_sub_layers_minus1", 3))
	vps.TemporalIDNestingFlag = rec.Flag("vps_temporal_id_nesting_flag")
	if rec.Failed() {
		return
	}
	if vps.MaxSubLayersMinus1 >= MaxSubLayers {
		rec.Failf("vps_max_sub_layers_minus1", "vps_max_sub_layers_minus1 %d out of range", vps.MaxSubLayersMinus1)
		return
	}
	if vps.MaxSubLayersMinus1 == 0 && !vps.TemporalIDNestingFlag {
		rec.Failf("vps_temporal_id_nesting_flag", "vps_temporal_id_nesting_flag must be 1 if vps_max_sub_layers_minus1 is 0")
		return
	}

	rec.Skip("vps_reserved_0xffff_16bits", 16)
	rec.Container("profile_tier_level", func() {
		vps.ProfileTierLevel.decode(rec, true, int(vps.MaxSubLayersMinus1))
	})

	vps.SubLayerOrderingInfoPresentFlag = rec.Flag("vps_sub_layer_ordering_info_present_flag")
	vps.SubLayerOrdering = decodeSubLayerOrdering(rec, "vps", vps.SubLayerOrderingInfoPresentFlag, int(vps.MaxSubLayersMinus1))

	vps.MaxLayerID = uint8(rec.U("vps_max_layer_id", 6))
	vps.NumLayerSetsMinus1 = uint16(rec.UEMax("vps_num_layer_sets_minus1", MaxLayerSets-1))
	for i := 1; i <= int(vps.NumLayerSetsMinus1) && !rec.Failed(); i++ {
		for j := 0; j <= int(vps.MaxLayerID); j++ {
			rec.Flag(syntax.Index(syntax.Index("layer_id_included_flag", i), j))
		}
	}

	vps.TimingInfoPresentFlag = rec.Flag("vps_timing_info_present_flag")
	if vps.TimingInfoPresentFlag {
		vps.NumUnitsInTick = rec.U("vps_num_units_in_tick", 32)
		vps.TimeScale = rec.U("vps_time_scale", 32)
		vps.PocProportionalToTimingFlag = rec.Flag("vps_poc_proportional_to_timing_flag")
		if vps.PocProportionalToTimingFlag {
			vps.NumTicksPocDiffOneMinus1 = rec.UE("vps_num_ticks_poc_diff_one_minus1")
		}
		vps.NumHrdParameters = uint16(rec.UEMax("vps_num_hrd_parameters", uint32(vps.NumLayerSetsMinus1)+1))
		vps.HrdParameters = make([]HRD, vps.NumHrdParameters)
		for i := range vps.HrdParameters {
			if rec.Failed() {
				break
			}
			rec.UEMax(syntax.Index("hrd_layer_set_idx", i), uint32(vps.NumLayerSetsMinus1))
			cprms := true
			if i > 0 {
				cprms = rec.Flag(syntax.Index("cprms_present_flag", i))
			}
			hrd := &vps.HrdParameters[i]
			rec.Container(syntax.Index("hrd_parameters", i), func() {
				hrd.decode(rec, cprms, int(vps.MaxSubLayersMinus1))
			})
		}
	}

	vps.ExtensionFlag = rec.Flag("vps_extension_flag")
	if vps.ExtensionFlag {
		rec.SkipToEnd("vps_extension_data")
	}
}
