// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/bitprobe/syntax"
)

// PPS pic_parameter_set_rbsp()
type PPS struct {
	PicParameterSetID                     uint8
	SeqParameterSetID                     uint8
	EntropyCodingModeFlag                 bool
	BottomFieldPicOrderInFramePresentFlag bool

	NumSliceGroupsMinus1       uint8
	SliceGroupMapType          uint8
	SliceGroupChangeDirection  bool
	SliceGroupChangeRateMinus1 uint32
	PicSizeInMapUnitsMinus1    uint32

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	WeightedPredFlag               bool
	WeightedBipredIdc              uint8
	PicInitQpMinus26               int32
	PicInitQsMinus26               int32
	ChromaQpIndexOffset            int32

	DeblockingFilterControlPresentFlag bool
	ConstrainedIntraPredFlag           bool
	RedundantPicCntPresentFlag         bool

	Transform8x8ModeFlag        bool
	PicScalingMatrixPresentFlag bool
	SecondChromaQpIndexOffset   int32
}

// Decode records pic_parameter_set_rbsp() without its trailing bits. The
// referenced SPS is only needed when a scaling matrix is present.
func (pps *PPS) Decode(rec *syntax.Recorder, st *State) {
	pps.PicParameterSetID = uint8(rec.UEMax("pic_parameter_set_id", MaxPpsCount-1))
	pps.SeqParameterSetID = uint8(rec.UEMax("seq_parameter_set_id", MaxSpsCount-1))
	pps.EntropyCodingModeFlag = rec.Flag("entropy_coding_mode_flag")
	pps.BottomFieldPicOrderInFramePresentFlag = rec.Flag("bottom_field_pic_order_in_frame_present_flag")

	pps.NumSliceGroupsMinus1 = uint8(rec.UEMax("num_slice_groups_minus1", MaxSliceGroups-1))
	if pps.NumSliceGroupsMinus1 > 0 {
		pps.decodeSliceGroups(rec)
	}

	pps.NumRefIdxL0DefaultActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l0_default_active_minus1", 31))
	pps.NumRefIdxL1DefaultActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l1_default_active_minus1", 31))
	pps.WeightedPredFlag = rec.Flag("weighted_pred_flag")
	pps.WeightedBipredIdc = uint8(rec.U("weighted_bipred_idc", 2))
	pps.PicInitQpMinus26 = rec.SE("pic_init_qp_minus26")
	pps.PicInitQsMinus26 = rec.SE("pic_init_qs_minus26")
	pps.ChromaQpIndexOffset = rec.SE("chroma_qp_index_offset")
	pps.DeblockingFilterControlPresentFlag = rec.Flag("deblocking_filter_control_present_flag")
	pps.ConstrainedIntraPredFlag = rec.Flag("constrained_intra_pred_flag")
	pps.RedundantPicCntPresentFlag = rec.Flag("redundant_pic_cnt_present_flag")

	pps.SecondChromaQpIndexOffset = pps.ChromaQpIndexOffset
	if !rec.MoreRBSPData() {
		return
	}

	pps.Transform8x8ModeFlag = rec.Flag("transform_8x8_mode_flag")
	pps.PicScalingMatrixPresentFlag = rec.Flag("pic_scaling_matrix_present_flag")
	if pps.PicScalingMatrixPresentFlag {
		sps := st.SPS[pps.SeqParameterSetID]
		if sps == nil {
			rec.Failf("pic_scaling_matrix_present_flag", "seq_parameter_set %d not seen", pps.SeqParameterSetID)
			return
		}
		n := 6
		if pps.Transform8x8ModeFlag {
			if sps.ChromaFormatIdc == 3 {
				n += 6
			} else {
				n += 2
			}
		}
		scalingMatrix(rec, "pic_scaling_list_present_flag", n)
	}
	pps.SecondChromaQpIndexOffset = rec.SE("second_chroma_qp_index_offset")
}

func (pps *PPS) decodeSliceGroups(rec *syntax.Recorder) {
	pps.SliceGroupMapType = uint8(rec.UEMax("slice_group_map_type", 6))
	switch pps.SliceGroupMapType {
	case 0:
		for i := 0; i <= int(pps.NumSliceGroupsMinus1); i++ {
			rec.UE(syntax.Index("run_length_minus1", i))
		}
	case 2:
		for i := 0; i < int(pps.NumSliceGroupsMinus1); i++ {
			rec.UE(syntax.Index("top_left", i))
			rec.UE(syntax.Index("bottom_right", i))
		}
	case 3, 4, 5:
		pps.SliceGroupChangeDirection = rec.Flag("slice_group_change_direction_flag")
		pps.SliceGroupChangeRateMinus1 = rec.UEMax("slice_group_change_rate_minus1", MaxMbPicSize-1)
	case 6:
		pps.PicSizeInMapUnitsMinus1 = rec.UEMax("pic_size_in_map_units_minus1", MaxMbPicSize-1)
		w := ceilLog2(uint32(pps.NumSliceGroupsMinus1) + 1)
		for i := 0; i <= int(pps.PicSizeInMapUnitsMinus1) && !rec.Failed(); i++ {
			rec.U(syntax.Index("slice_group_id", i), w)
		}
	}
}

// ceilLog2 returns Ceil(Log2(x)) for x >= 1.
func ceilLog2(x uint32) int {
	n := 0
	for (uint32(1) << uint(n)) < x {
		n++
	}
	return n
}
