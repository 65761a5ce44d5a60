// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/bitprobe/syntax"
)

// SliceHeader slice_header()
type SliceHeader struct {
	FirstMbInSlice    uint32
	SliceType         uint8
	PicParameterSetID uint8
	ColourPlaneID     uint8
	FrameNum          uint32
	FieldPicFlag      bool
	BottomFieldFlag   bool
	IdrPicID          uint32
	PicOrderCntLsb    uint32

	DirectSpatialMvPredFlag    bool
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	CabacInitIdc               uint8
	SliceQpDelta               int32
	DisableDeblockingFilterIdc uint8
	SliceGroupChangeCycle      uint32
}

// Type returns slice_type % 5.
func (sh *SliceHeader) Type() uint8 { return sh.SliceType % 5 }

// Decode records slice_header() against the parameter sets in st.
func (sh *SliceHeader) Decode(rec *syntax.Recorder, nh *NALHeader, st *State) {
	sh.FirstMbInSlice = rec.UEMax("first_mb_in_slice", MaxMbPicSize-1)
	sh.SliceType = uint8(rec.UEMax("slice_type", 9))
	sh.PicParameterSetID = uint8(rec.UEMax("pic_parameter_set_id", MaxPpsCount-1))
	if rec.Failed() {
		return
	}
	pps := st.PPS[sh.PicParameterSetID]
	if pps == nil {
		rec.Failf("pic_parameter_set_id", "pic_parameter_set %d not seen", sh.PicParameterSetID)
		return
	}
	sps := st.SPS[pps.SeqParameterSetID]
	if sps == nil {
		rec.Failf("pic_parameter_set_id", "seq_parameter_set %d not seen", pps.SeqParameterSetID)
		return
	}
	typ := sh.Type()

	if sps.SeparateColourPlaneFlag {
		sh.ColourPlaneID = uint8(rec.U("colour_plane_id", 2))
	}
	sh.FrameNum = rec.U("frame_num", int(sps.Log2MaxFrameNumMinus4)+4)
	if !sps.FrameMbsOnlyFlag {
		sh.FieldPicFlag = rec.Flag("field_pic_flag")
		if sh.FieldPicFlag {
			sh.BottomFieldFlag = rec.Flag("bottom_field_flag")
		}
	}
	if nh.IsIdr() {
		sh.IdrPicID = rec.UEMax("idr_pic_id", 65535)
	}

	bottomDelta := pps.BottomFieldPicOrderInFramePresentFlag && !sh.FieldPicFlag
	switch {
	case sps.PicOrderCntType == 0:
		sh.PicOrderCntLsb = rec.U("pic_order_cnt_lsb", int(sps.Log2MaxPicOrderCntLsbMinus4)+4)
		if bottomDelta {
			rec.SE("delta_pic_order_cnt_bottom")
		}
	case sps.PicOrderCntType == 1 && !sps.DeltaPicOrderAlwaysZeroFlag:
		rec.SE("delta_pic_order_cnt[0]")
		if bottomDelta {
			rec.SE("delta_pic_order_cnt[1]")
		}
	}

	if pps.RedundantPicCntPresentFlag {
		rec.UEMax("redundant_pic_cnt", 127)
	}
	if typ == SliceB {
		sh.DirectSpatialMvPredFlag = rec.Flag("direct_spatial_mv_pred_flag")
	}

	sh.NumRefIdxL0ActiveMinus1 = pps.NumRefIdxL0DefaultActiveMinus1
	sh.NumRefIdxL1ActiveMinus1 = pps.NumRefIdxL1DefaultActiveMinus1
	if typ == SliceP || typ == SliceSP || typ == SliceB {
		if rec.Flag("num_ref_idx_active_override_flag") {
			sh.NumRefIdxL0ActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l0_active_minus1", 31))
			if typ == SliceB {
				sh.NumRefIdxL1ActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l1_active_minus1", 31))
			}
		}
	}

	if typ != SliceI && typ != SliceSI {
		rec.Container("ref_pic_list_modification", func() {
			refPicListModification(rec, "l0")
			if typ == SliceB {
				refPicListModification(rec, "l1")
			}
		})
	}

	if (pps.WeightedPredFlag && (typ == SliceP || typ == SliceSP)) ||
		(pps.WeightedBipredIdc == 1 && typ == SliceB) {
		rec.Container("pred_weight_table", func() { sh.predWeightTable(rec, sps) })
	}

	if nh.RefIdc != 0 {
		rec.Container("dec_ref_pic_marking", func() { decRefPicMarking(rec, nh.IsIdr()) })
	}

	if pps.EntropyCodingModeFlag && typ != SliceI && typ != SliceSI {
		sh.CabacInitIdc = uint8(rec.UEMax("cabac_init_idc", 2))
	}
	sh.SliceQpDelta = rec.SE("slice_qp_delta")
	if typ == SliceSP || typ == SliceSI {
		if typ == SliceSP {
			rec.Flag("sp_for_switch_flag")
		}
		rec.SE("slice_qs_delta")
	}

	if pps.DeblockingFilterControlPresentFlag {
		sh.DisableDeblockingFilterIdc = uint8(rec.UEMax("disable_deblocking_filter_idc", 2))
		if sh.DisableDeblockingFilterIdc != 1 {
			rec.SE("slice_alpha_c0_offset_div2")
			rec.SE("slice_beta_offset_div2")
		}
	}

	if pps.NumSliceGroupsMinus1 > 0 && pps.SliceGroupMapType >= 3 && pps.SliceGroupMapType <= 5 {
		rate := pps.SliceGroupChangeRateMinus1 + 1
		units := uint32(sps.PicSizeInMapUnits())
		// Ceil(Log2(PicSizeInMapUnits ÷ SliceGroupChangeRate + 1))
		w := ceilLog2((units+rate-1)/rate + 1)
		sh.SliceGroupChangeCycle = rec.U("slice_group_change_cycle", w)
	}
}

func refPicListModification(rec *syntax.Recorder, list string) {
	if !rec.Flag("ref_pic_list_modification_flag_" + list) {
		return
	}
	for i := 0; i < MaxRplmCount && !rec.Failed(); i++ {
		idc := rec.UEMax(syntax.Index("modification_of_pic_nums_idc", i), 5)
		switch idc {
		case 0, 1:
			rec.UE(syntax.Index("abs_diff_pic_num_minus1", i))
		case 2:
			rec.UE(syntax.Index("long_term_pic_num", i))
		case 3:
			return
		default:
			rec.Failf("modification_of_pic_nums_idc", "modification_of_pic_nums_idc %d not supported", idc)
			return
		}
	}
	rec.Failf("ref_pic_list_modification_flag_"+list, "more than %d list modifications", MaxRplmCount)
}

func (sh *SliceHeader) predWeightTable(rec *syntax.Recorder, sps *SPS) {
	rec.UEMax("luma_log2_weight_denom", 7)
	chroma := sps.ChromaArrayType() != 0
	if chroma {
		rec.UEMax("chroma_log2_weight_denom", 7)
	}

	lists := []struct {
		name string
		n    int
	}{{"l0", int(sh.NumRefIdxL0ActiveMinus1) + 1}}
	if sh.Type() == SliceB {
		lists = append(lists, struct {
			name string
			n    int
		}{"l1", int(sh.NumRefIdxL1ActiveMinus1) + 1})
	}

	for _, l := range lists {
		for i := 0; i < l.n && !rec.Failed(); i++ {
			if rec.Flag(syntax.Index("luma_weight_"+l.name+"_flag", i)) {
				rec.SE(syntax.Index("luma_weight_"+l.name, i))
				rec.SE(syntax.Index("luma_offset_"+l.name, i))
			}
			if chroma && rec.Flag(syntax.Index("chroma_weight_"+l.name+"_flag", i)) {
				for j := 0; j < 2; j++ {
					rec.SE(syntax.Index(syntax.Index("chroma_weight_"+l.name, i), j))
					rec.SE(syntax.Index(syntax.Index("chroma_offset_"+l.name, i), j))
				}
			}
		}
	}
}

func decRefPicMarking(rec *syntax.Recorder, idr bool) {
	if idr {
		rec.Flag("no_output_of_prior_pics_flag")
		rec.Flag("long_term_reference_flag")
		return
	}
	if !rec.Flag("adaptive_ref_pic_marking_mode_flag") {
		return
	}
	for i := 0; i < MaxMmcoCount && !rec.Failed(); i++ {
		op := rec.UEMax(syntax.Index("memory_management_control_operation", i), 6)
		if op == 0 {
			return
		}
		if op == 1 || op == 3 {
			rec.UE(syntax.Index("difference_of_pic_nums_minus1", i))
		}
		if op == 2 {
			rec.UE(syntax.Index("long_term_pic_num", i))
		}
		if op == 3 || op == 6 {
			rec.UE(syntax.Index("long_term_frame_idx", i))
		}
		if op == 4 {
			rec.UE(syntax.Index("max_long_term_frame_idx_plus1", i))
		}
	}
	rec.Failf("adaptive_ref_pic_marking_mode_flag", "more than %d memory management operations", MaxMmcoCount)
}
