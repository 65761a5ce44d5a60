// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/bitprobe/syntax"
)

// PPS pic_parameter_set_rbsp()
type PPS struct {
	ID    uint8
	SpsID uint8

	DependentSliceSegmentsEnabledFlag bool
	OutputFlagPresentFlag             bool
	NumExtraSliceHeaderBits           uint8
	SignDataHidingEnabledFlag         bool
	CabacInitPresentFlag              bool

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	InitQpMinus26                  int32

	ConstrainedIntraPredFlag        bool
	TransformSkipEnabledFlag        bool
	CuQpDeltaEnabledFlag            bool
	DiffCuQpDeltaDepth              uint8
	CbQpOffset                      int32
	CrQpOffset                      int32
	SliceChromaQpOffsetsPresentFlag bool
	WeightedPredFlag                bool
	WeightedBipredFlag              bool
	TransquantBypassEnabledFlag     bool

	TilesEnabledFlag              bool
	EntropyCodingSyncEnabledFlag  bool
	NumTileColumnsMinus1          uint8
	NumTileRowsMinus1             uint8
	UniformSpacingFlag            bool
	ColumnWidthMinus1             []uint32
	RowHeightMinus1               []uint32
	LoopFilterAcrossTilesEnabled  bool
	LoopFilterAcrossSlicesEnabled bool

	DeblockingFilterControlPresentFlag bool
	DeblockingFilterOverrideEnabled    bool
	DeblockingFilterDisabledFlag       bool
	BetaOffsetDiv2                     int32
	TcOffsetDiv2                       int32

	ScalingListDataPresentFlag         bool
	ListsModificationPresentFlag       bool
	Log2ParallelMergeLevelMinus2       uint8
	SliceSegmentHeaderExtensionPresent bool
	ExtensionPresentFlag               bool
}

// Decode records pic_parameter_set_rbsp() without its trailing bits.
// Extension payloads are recorded as one skipped field.
func (pps *PPS) Decode(rec *syntax.Recorder) {
	pps.ID = uint8(rec.UEMax("pps_pic_parameter_set_id", MaxPpsCount-1))
	pps.SpsID = uint8(rec.UEMax("pps_seq_parameter_set_id", MaxSpsCount-1))

	pps.DependentSliceSegmentsEnabledFlag = rec.Flag("dependent_slice_segments_enabled_flag")
	pps.OutputFlagPresentFlag = rec.Flag("output_flag_present_flag")
	pps.NumExtraSliceHeaderBits = uint8(rec.U("num_extra_slice_header_bits", 3))
	pps.SignDataHidingEnabledFlag = rec.Flag("sign_data_hiding_enabled_flag")
	pps.CabacInitPresentFlag = rec.Flag("cabac_init_present_flag")

	pps.NumRefIdxL0DefaultActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l0_default_active_minus1", 14))
	pps.NumRefIdxL1DefaultActiveMinus1 = uint8(rec.UEMax("num_ref_idx_l1_default_active_minus1", 14))
	pps.InitQpMinus26 = rec.SE("init_qp_minus26")

	pps.ConstrainedIntraPredFlag = rec.Flag("constrained_intra_pred_flag")
	pps.TransformSkipEnabledFlag = rec.Flag("transform_skip_enabled_flag")
	pps.CuQpDeltaEnabledFlag = rec.Flag("cu_qp_delta_enabled_flag")
	if pps.CuQpDeltaEnabledFlag {
		pps.DiffCuQpDeltaDepth = uint8(rec.UEMax("diff_cu_qp_delta_depth", 3))
	}
	pps.CbQpOffset = rec.SE("pps_cb_qp_offset")
	pps.CrQpOffset = rec.SE("pps_cr_qp_offset")
	pps.SliceChromaQpOffsetsPresentFlag = rec.Flag("pps_slice_chroma_qp_offsets_present_flag")
	pps.WeightedPredFlag = rec.Flag("weighted_pred_flag")
	pps.WeightedBipredFlag = rec.Flag("weighted_bipred_flag")
	pps.TransquantBypassEnabledFlag = rec.Flag("transquant_bypass_enabled_flag")

	pps.TilesEnabledFlag = rec.Flag("tiles_enabled_flag")
	pps.EntropyCodingSyncEnabledFlag = rec.Flag("entropy_coding_sync_enabled_flag")
	if pps.TilesEnabledFlag {
		rec.Container("tiles", func() { pps.decodeTiles(rec) })
	}
	pps.LoopFilterAcrossSlicesEnabled = rec.Flag("pps_loop_filter_across_slices_enabled_flag")

	pps.DeblockingFilterControlPresentFlag = rec.Flag("deblocking_filter_control_present_flag")
	if pps.DeblockingFilterControlPresentFlag {
		rec.Container("deblocking_filter_control", func() {
			pps.DeblockingFilterOverrideEnabled = rec.Flag("deblocking_filter_override_enabled_flag")
			pps.DeblockingFilterDisabledFlag = rec.Flag("pps_deblocking_filter_disabled_flag")
			if !pps.DeblockingFilterDisabledFlag {
				pps.BetaOffsetDiv2 = rec.SE("pps_beta_offset_div2")
				pps.TcOffsetDiv2 = rec.SE("pps_tc_offset_div2")
			}
		})
	}

	pps.ScalingListDataPresentFlag = rec.Flag("pps_scaling_list_data_present_flag")
	if pps.ScalingListDataPresentFlag {
		rec.Container("scaling_list_data", func() { scalingListData(rec) })
	}

	pps.ListsModificationPresentFlag = rec.Flag("lists_modification_present_flag")
	pps.Log2ParallelMergeLevelMinus2 = uint8(rec.UEMax("log2_parallel_merge_level_minus2", 4))
	pps.SliceSegmentHeaderExtensionPresent = rec.Flag("slice_segment_header_extension_present_flag")

	pps.ExtensionPresentFlag = rec.Flag("pps_extension_present_flag")
	if pps.ExtensionPresentFlag {
		rec.Skip("pps_extension_flags", 8)
		rec.SkipToEnd("pps_extension_data")
	}
}

func (pps *PPS) decodeTiles(rec *syntax.Recorder) {
	pps.NumTileColumnsMinus1 = uint8(rec.UEMax("num_tile_columns_minus1", MaxTileColumns-1))
	pps.NumTileRowsMinus1 = uint8(rec.UEMax("num_tile_rows_minus1", MaxTileRows-1))
	pps.UniformSpacingFlag = rec.Flag("uniform_spacing_flag")
	if !pps.UniformSpacingFlag && !rec.Failed() {
		pps.ColumnWidthMinus1 = make([]uint32, pps.NumTileColumnsMinus1)
		for i := range pps.ColumnWidthMinus1 {
			pps.ColumnWidthMinus1[i] = rec.UE(syntax.Index("column_width_minus1", i))
		}
		pps.RowHeightMinus1 = make([]uint32, pps.NumTileRowsMinus1)
		for i := range pps.RowHeightMinus1 {
			pps.RowHeightMinus1[i] = rec.UE(syntax.Index("row_height_minus1", i))
		}
	}
	pps.LoopFilterAcrossTilesEnabled = rec.Flag("loop_filter_across_tiles_enabled_flag")
}
