// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/bitprobe/syntax"
)

// scalingListData records scaling_list_data().
func scalingListData(rec *syntax.Recorder) {
	for sizeID := 0; sizeID < 4; sizeID++ {
		step := 1
		if sizeID == 3 {
			step = 3
		}
		for matrixID := 0; matrixID < 6 && !rec.Failed(); matrixID += step {
			rec.Container(syntax.Index(syntax.Index("scaling_list", sizeID), matrixID), func() {
				if !rec.Flag("scaling_list_pred_mode_flag") {
					rec.UEMax("scaling_list_pred_matrix_id_delta", uint32(matrixID/step))
					return
				}
				n := 1 << uint(4+(sizeID<<1))
				if n > 64 {
					n = 64
				}
				if sizeID > 1 {
					dc := rec.SE("scaling_list_dc_coef_minus8")
					if dc < -7 || dc > 247 {
						rec.Failf("scaling_list_dc_coef_minus8", "scaling_list_dc_coef_minus8 %d outside [-7, 247]", dc)
						return
					}
				}
				for i := 0; i < n && !rec.Failed(); i++ {
					delta := rec.SE(syntax.Index("scaling_list_delta_coef", i))
					if delta < -128 || delta > 127 {
						rec.Failf("scaling_list_delta_coef", "scaling_list_delta_coef %d outside [-128, 127]", delta)
					}
				}
			})
		}
	}
}

// VUI vui_parameters()
type VUI struct {
	AspectRatioIdc uint8
	SarWidth       uint16
	SarHeight      uint16

	VideoFormat             uint8
	VideoFullRangeFlag      bool
	ColourPrimaries         uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8

	FieldSeqFlag bool

	DefaultDisplayWindowFlag bool
	DefDispWinLeftOffset     uint32
	DefDispWinRightOffset    uint32
	DefDispWinTopOffset      uint32
	DefDispWinBottomOffset   uint32

	TimingInfoPresentFlag       bool
	NumUnitsInTick              uint32
	TimeScale                   uint32
	PocProportionalToTimingFlag bool
	HrdParametersPresentFlag    bool
	HrdParameters               HRD

	BitstreamRestrictionFlag bool
	MaxBytesPerPicDenom      uint8
	MaxBitsPerMinCuDenom     uint8
}

func (vui *VUI) setDefault() {
	vui.VideoFormat = 5
	vui.ColourPrimaries = 2
	vui.TransferCharacteristics = 2
	vui.MatrixCoefficients = 2
	vui.MaxBytesPerPicDenom = 2
	vui.MaxBitsPerMinCuDenom = 1
}

func (vui *VUI) decode(rec *syntax.Recorder, sps *SPS) {
	vui.setDefault()
	if rec.Flag("aspect_ratio_info_present_flag") {
		vui.AspectRatioIdc = uint8(rec.U("aspect_ratio_idc", 8))
		if vui.AspectRatioIdc == 255 {
			vui.SarWidth = uint16(rec.U("sar_width", 16))
			vui.SarHeight = uint16(rec.U("sar_height", 16))
		}
	}

	if rec.Flag("overscan_info_present_flag") {
		rec.Flag("overscan_appropriate_flag")
	}

	if rec.Flag("video_signal_type_present_flag") {
		vui.VideoFormat = uint8(rec.U("video_format", 3))
		vui.VideoFullRangeFlag = rec.Flag("video_full_range_flag")
		if rec.Flag("colour_description_present_flag") {
			vui.ColourPrimaries = uint8(rec.U("colour_primaries", 8))
			vui.TransferCharacteristics = uint8(rec.U("transfer_characteristics", 8))
			vui.MatrixCoefficients = uint8(rec.U("matrix_coefficients", 8))
		}
	}

	if rec.Flag("chroma_loc_info_present_flag") {
		rec.UEMax("chroma_sample_loc_type_top_field", 5)
		rec.UEMax("chroma_sample_loc_type_bottom_field", 5)
	}

	rec.Flag("neutral_chroma_indication_flag")
	vui.FieldSeqFlag = rec.Flag("field_seq_flag")
	rec.Flag("frame_field_info_present_flag")

	vui.DefaultDisplayWindowFlag = rec.Flag("default_display_window_flag")
	if vui.DefaultDisplayWindowFlag {
		vui.DefDispWinLeftOffset = rec.UE("def_disp_win_left_offset")
		vui.DefDispWinRightOffset = rec.UE("def_disp_win_right_offset")
		vui.DefDispWinTopOffset = rec.UE("def_disp_win_top_offset")
		vui.DefDispWinBottomOffset = rec.UE("def_disp_win_bottom_offset")
	}

	vui.TimingInfoPresentFlag = rec.Flag("vui_timing_info_present_flag")
	if vui.TimingInfoPresentFlag {
		vui.NumUnitsInTick = rec.U("vui_num_units_in_tick", 32)
		vui.TimeScale = rec.U("vui_time_scale", 32)
		vui.PocProportionalToTimingFlag = rec.Flag("vui_poc_proportional_to_timing_flag")
		if vui.PocProportionalToTimingFlag {
			rec.UE("vui_num_ticks_poc_diff_one_minus1")
		}
		vui.HrdParametersPresentFlag = rec.Flag("vui_hrd_parameters_present_flag")
		if vui.HrdParametersPresentFlag {
			rec.Container("hrd_parameters", func() {
				vui.HrdParameters.decode(rec, true, int(sps.MaxSubLayersMinus1))
			})
		}
	}

	vui.BitstreamRestrictionFlag = rec.Flag("bitstream_restriction_flag")
	if vui.BitstreamRestrictionFlag {
		rec.Flag("tiles_fixed_structure_flag")
		rec.Flag("motion_vectors_over_pic_boundaries_flag")
		rec.Flag("restricted_ref_pic_lists_flag")
		rec.UEMax("min_spatial_segmentation_idc", 4095)
		vui.MaxBytesPerPicDenom = uint8(rec.UEMax("max_bytes_per_pic_denom", 16))
		vui.MaxBitsPerMinCuDenom = uint8(rec.UEMax("max_bits_per_min_cu_denom", 16))
		rec.UEMax("log2_max_mv_length_horizontal", 16)
		rec.UEMax("log2_max_mv_length_vertical", 15)
	}
}

// ShortTermRPS is a short-term reference picture set in its derived form
// (7.4.8): the POC deltas of the negative and positive pictures.
type ShortTermRPS struct {
	DeltaPocS0 []int32
	UsedS0     []bool
	DeltaPocS1 []int32
	UsedS1     []bool
}

// NumDeltaPocs NumNegativePics + NumPositivePics
func (rps *ShortTermRPS) NumDeltaPocs() int {
	return len(rps.DeltaPocS0) + len(rps.DeltaPocS1)
}

// decode records st_ref_pic_set(idx). sets holds the sets already decoded.
func (rps *ShortTermRPS) decode(rec *syntax.Recorder, idx int, sets []ShortTermRPS, numSets int) {
	inter := false
	if idx != 0 {
		inter = rec.Flag("inter_ref_pic_set_prediction_flag")
	}
	if !inter {
		numNegative := int(rec.UEMax("num_negative_pics", MaxDpbSize-1))
		numPositive := int(rec.UEMax("num_positive_pics", uint32(MaxDpbSize-1-numNegative)))
		if rec.Failed() {
			return
		}
		rps.DeltaPocS0 = make([]int32, numNegative)
		rps.UsedS0 = make([]bool, numNegative)
		poc := int32(0)
		for i := 0; i < numNegative; i++ {
			poc -= int32(rec.UEMax(syntax.Index("delta_poc_s0_minus1", i), 1<<15-1)) + 1
			rps.DeltaPocS0[i] = poc
			rps.UsedS0[i] = rec.Flag(syntax.Index("used_by_curr_pic_s0_flag", i))
		}
		rps.DeltaPocS1 = make([]int32, numPositive)
		rps.UsedS1 = make([]bool, numPositive)
		poc = 0
		for i := 0; i < numPositive; i++ {
			poc += int32(rec.UEMax(syntax.Index("delta_poc_s1_minus1", i), 1<<15-1)) + 1
			rps.DeltaPocS1[i] = poc
			rps.UsedS1[i] = rec.Flag(syntax.Index("used_by_curr_pic_s1_flag", i))
		}
		return
	}

	deltaIdxMinus1 := 0
	if idx == numSets {
		deltaIdxMinus1 = int(rec.UEMax("delta_idx_minus1", uint32(idx-1)))
	}
	if rec.Failed() {
		return
	}
	ref := &sets[idx-(deltaIdxMinus1+1)]

	sign := rec.Flag("delta_rps_sign")
	deltaRps := int32(rec.UEMax("abs_delta_rps_minus1", 1<<15-1)) + 1
	if sign {
		deltaRps = -deltaRps
	}

	n := ref.NumDeltaPocs()
	used := make([]bool, n+1)
	useDelta := make([]bool, n+1)
	for j := 0; j <= n && !rec.Failed(); j++ {
		used[j] = rec.Flag(syntax.Index("used_by_curr_pic_flag", j))
		useDelta[j] = true
		if !used[j] {
			useDelta[j] = rec.Flag(syntax.Index("use_delta_flag", j))
		}
	}
	if rec.Failed() {
		return
	}

	numNeg := len(ref.DeltaPocS0)
	for j := len(ref.DeltaPocS1) - 1; j >= 0; j-- {
		if d := ref.DeltaPocS1[j] + deltaRps; d < 0 && useDelta[numNeg+j] {
			rps.DeltaPocS0 = append(rps.DeltaPocS0, d)
			rps.UsedS0 = append(rps.UsedS0, used[numNeg+j])
		}
	}
	if deltaRps < 0 && useDelta[n] {
		rps.DeltaPocS0 = append(rps.DeltaPocS0, deltaRps)
		rps.UsedS0 = append(rps.UsedS0, used[n])
	}
	for j := 0; j < numNeg; j++ {
		if d := ref.DeltaPocS0[j] + deltaRps; d < 0 && useDelta[j] {
			rps.DeltaPocS0 = append(rps.DeltaPocS0, d)
			rps.UsedS0 = append(rps.UsedS0, used[j])
		}
	}

	for j := numNeg - 1; j >= 0; j-- {
		if d := ref.DeltaPocS0[j] + deltaRps; d > 0 && useDelta[j] {
			rps.DeltaPocS1 = append(rps.DeltaPocS1, d)
			rps.UsedS1 = append(rps.UsedS1, used[j])
		}
	}
	if deltaRps > 0 && useDelta[n] {
		rps.DeltaPocS1 = append(rps.DeltaPocS1, deltaRps)
		rps.UsedS1 = append(rps.UsedS1, used[n])
	}
	for j := 0; j < len(ref.DeltaPocS1); j++ {
		if d := ref.DeltaPocS1[j] + deltaRps; d > 0 && useDelta[numNeg+j] {
			rps.DeltaPocS1 = append(rps.DeltaPocS1, d)
			rps.UsedS1 = append(rps.UsedS1, used[numNeg+j])
		}
	}

	if rps.NumDeltaPocs() >= MaxDpbSize {
		rec.Failf("inter_ref_pic_set_prediction_flag", "short-term ref pic set %d contains %d pictures", idx, rps.NumDeltaPocs())
	}
}

// SPS seq_parameter_set_rbsp()
type SPS struct {
	VpsID                 uint8
	MaxSubLayersMinus1    uint8
	TemporalIDNestingFlag bool
	ProfileTierLevel      ProfileTierLevel

	ID                      uint8
	ChromaFormatIdc         uint8
	SeparateColourPlaneFlag bool
	PicWidthInLumaSamples   uint32
	PicHeightInLumaSamples  uint32

	ConformanceWindowFlag bool
	ConfWinLeftOffset     uint32
	ConfWinRightOffset    uint32
	ConfWinTopOffset      uint32
	ConfWinBottomOffset   uint32

	BitDepthLumaMinus8          uint8
	BitDepthChromaMinus8        uint8
	Log2MaxPicOrderCntLsbMinus4 uint8

	SubLayerOrderingInfoPresentFlag bool
	SubLayerOrdering                []SubLayerOrdering

	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinLumaTransformBlockSizeMinus2  uint8
	Log2DiffMaxMinLumaTransformBlockSize uint8
	MaxTransformHierarchyDepthInter      uint8
	MaxTransformHierarchyDepthIntra      uint8

	ScalingListEnabledFlag bool
	AmpEnabledFlag         bool
	SampleAdaptiveOffset   bool
	PcmEnabledFlag         bool

	ShortTermRefPicSets []ShortTermRPS

	LongTermRefPicsPresentFlag bool
	NumLongTermRefPicsSps      uint8

	TemporalMvpEnabledFlag          bool
	StrongIntraSmoothingEnabledFlag bool

	VuiParametersPresentFlag bool
	Vui                      VUI

	ExtensionPresentFlag bool
	RangeExtensionFlag   bool
}

// Decode records seq_parameter_set_rbsp() without its trailing bits.
func (sps *SPS) Decode(rec *syntax.Recorder) {
	sps.VpsID = uint8(rec.U("sps_video_parameter_set_id", 4))
	sps.MaxSubLayersMinus1 = uint8(rec.U("sps_max_sub_layers_minus1", 3))
	sps.TemporalIDNestingFlag = rec.Flag("sps_temporal_id_nesting_flag")
	if !rec.Failed() && sps.MaxSubLayersMinus1 >= MaxSubLayers {
		rec.Failf("sps_max_sub_layers_minus1", "sps_max_sub_layers_minus1 %d out of range", sps.MaxSubLayersMinus1)
		return
	}
	rec.Container("profile_tier_level", func() {
		sps.ProfileTierLevel.decode(rec, true, int(sps.MaxSubLayersMinus1))
	})

	sps.ID = uint8(rec.UEMax("sps_seq_parameter_set_id", MaxSpsCount-1))
	sps.ChromaFormatIdc = uint8(rec.UEMax("chroma_format_idc", 3))
	if sps.ChromaFormatIdc == 3 {
		sps.SeparateColourPlaneFlag = rec.Flag("separate_colour_plane_flag")
	}
	sps.PicWidthInLumaSamples = rec.UEMax("pic_width_in_luma_samples", MaxWidth)
	sps.PicHeightInLumaSamples = rec.UEMax("pic_height_in_luma_samples", MaxHeight)

	sps.ConformanceWindowFlag = rec.Flag("conformance_window_flag")
	if sps.ConformanceWindowFlag {
		sps.ConfWinLeftOffset = rec.UE("conf_win_left_offset")
		sps.ConfWinRightOffset = rec.UE("conf_win_right_offset")
		sps.ConfWinTopOffset = rec.UE("conf_win_top_offset")
		sps.ConfWinBottomOffset = rec.UE("conf_win_bottom_offset")
	}

	sps.BitDepthLumaMinus8 = uint8(rec.UEMax("bit_depth_luma_minus8", 8))
	sps.BitDepthChromaMinus8 = uint8(rec.UEMax("bit_depth_chroma_minus8", 8))
	sps.Log2MaxPicOrderCntLsbMinus4 = uint8(rec.UEMax("log2_max_pic_order_cnt_lsb_minus4", 12))

	sps.SubLayerOrderingInfoPresentFlag = rec.Flag("sps_sub_layer_ordering_info_present_flag")
	sps.SubLayerOrdering = decodeSubLayerOrdering(rec, "sps", sps.SubLayerOrderingInfoPresentFlag, int(sps.MaxSubLayersMinus1))

	sps.Log2MinLumaCodingBlockSizeMinus3 = uint8(rec.UEMax("log2_min_luma_coding_block_size_minus3", 3))
	sps.Log2DiffMaxMinLumaCodingBlockSize = uint8(rec.UEMax("log2_diff_max_min_luma_coding_block_size", 3))
	if rec.Failed() {
		return
	}
	minCbSize := uint32(1) << (sps.Log2MinLumaCodingBlockSizeMinus3 + 3)
	if sps.PicWidthInLumaSamples%minCbSize != 0 || sps.PicHeightInLumaSamples%minCbSize != 0 {
		rec.Failf("log2_min_luma_coding_block_size_minus3", "%dx%d not divisible by MinCbSizeY %d",
			sps.PicWidthInLumaSamples, sps.PicHeightInLumaSamples, minCbSize)
		return
	}

	sps.Log2MinLumaTransformBlockSizeMinus2 = uint8(rec.UEMax("log2_min_luma_transform_block_size_minus2", 3))
	sps.Log2DiffMaxMinLumaTransformBlockSize = uint8(rec.UEMax("log2_diff_max_min_luma_transform_block_size", 3))
	sps.MaxTransformHierarchyDepthInter = uint8(rec.UEMax("max_transform_hierarchy_depth_inter", 4))
	sps.MaxTransformHierarchyDepthIntra = uint8(rec.UEMax("max_transform_hierarchy_depth_intra", 4))

	sps.ScalingListEnabledFlag = rec.Flag("scaling_list_enabled_flag")
	if sps.ScalingListEnabledFlag && rec.Flag("sps_scaling_list_data_present_flag") {
		rec.Container("scaling_list_data", func() { scalingListData(rec) })
	}

	sps.AmpEnabledFlag = rec.Flag("amp_enabled_flag")
	sps.SampleAdaptiveOffset = rec.Flag("sample_adaptive_offset_enabled_flag")

	sps.PcmEnabledFlag = rec.Flag("pcm_enabled_flag")
	if sps.PcmEnabledFlag {
		rec.U("pcm_sample_bit_depth_luma_minus1", 4)
		rec.U("pcm_sample_bit_depth_chroma_minus1", 4)
		rec.UEMax("log2_min_pcm_luma_coding_block_size_minus3", 2)
		rec.UEMax("log2_diff_max_min_pcm_luma_coding_block_size", 3)
		rec.Flag("pcm_loop_filter_disabled_flag")
	}

	numSets := int(rec.UEMax("num_short_term_ref_pic_sets", MaxShortTermRefPicSets))
	if rec.Failed() {
		return
	}
	sps.ShortTermRefPicSets = make([]ShortTermRPS, numSets)
	for i := 0; i < numSets && !rec.Failed(); i++ {
		rps := &sps.ShortTermRefPicSets[i]
		rec.Container(syntax.Index("st_ref_pic_set", i), func() {
			rps.decode(rec, i, sps.ShortTermRefPicSets, numSets)
		})
	}

	sps.LongTermRefPicsPresentFlag = rec.Flag("long_term_ref_pics_present_flag")
	if sps.LongTermRefPicsPresentFlag {
		sps.NumLongTermRefPicsSps = uint8(rec.UEMax("num_long_term_ref_pics_sps", MaxLongTermRefPics))
		for i := 0; i < int(sps.NumLongTermRefPicsSps) && !rec.Failed(); i++ {
			rec.U(syntax.Index("lt_ref_pic_poc_lsb_sps", i), int(sps.Log2MaxPicOrderCntLsbMinus4)+4)
			rec.Flag(syntax.Index("used_by_curr_pic_lt_sps_flag", i))
		}
	}

	sps.TemporalMvpEnabledFlag = rec.Flag("sps_temporal_mvp_enabled_flag")
	sps.StrongIntraSmoothingEnabledFlag = rec.Flag("strong_intra_smoothing_enabled_flag")

	sps.VuiParametersPresentFlag = rec.Flag("vui_parameters_present_flag")
	if sps.VuiParametersPresentFlag {
		rec.Container("vui_parameters", func() { sps.Vui.decode(rec, sps) })
	} else {
		sps.Vui.setDefault()
	}

	sps.ExtensionPresentFlag = rec.Flag("sps_extension_present_flag")
	if !sps.ExtensionPresentFlag {
		return
	}
	sps.RangeExtensionFlag = rec.Flag("sps_range_extension_flag")
	multilayer := rec.Flag("sps_multilayer_extension_flag")
	ext3d := rec.Flag("sps_3d_extension_flag")
	scc := rec.Flag("sps_scc_extension_flag")
	ext4 := rec.U("sps_extension_4bits", 4)
	if sps.RangeExtensionFlag {
		rec.Container("sps_range_extension", func() {
			for _, name := range []string{
				"transform_skip_rotation_enabled_flag",
				"transform_skip_context_enabled_flag",
				"implicit_rdpcm_enabled_flag",
				"explicit_rdpcm_enabled_flag",
				"extended_precision_processing_flag",
				"intra_smoothing_disabled_flag",
				"high_precision_offsets_enabled_flag",
				"persistent_rice_adaptation_enabled_flag",
				"cabac_bypass_alignment_enabled_flag",
			} {
				rec.Flag(name)
			}
		})
	}
	if multilayer || ext3d || scc || ext4 != 0 {
		rec.SkipToEnd("sps_extension_data")
	}
}

// Width 视频宽度（像素）, after the conformance window.
func (sps *SPS) Width() int {
	subWidthC := 1
	if sps.ChromaFormatIdc == 1 || sps.ChromaFormatIdc == 2 {
		subWidthC = 2
	}
	return int(sps.PicWidthInLumaSamples) - subWidthC*int(sps.ConfWinLeftOffset+sps.ConfWinRightOffset)
}

// Height 视频高度（像素）, after the conformance window.
func (sps *SPS) Height() int {
	subHeightC := 1
	if sps.ChromaFormatIdc == 1 {
		subHeightC = 2
	}
	return int(sps.PicHeightInLumaSamples) - subHeightC*int(sps.ConfWinTopOffset+sps.ConfWinBottomOffset)
}

// FrameRate Video frame rate
func (sps *SPS) FrameRate() float64 {
	if sps.Vui.NumUnitsInTick == 0 {
		return 0.0
	}
	return float64(sps.Vui.TimeScale) / float64(sps.Vui.NumUnitsInTick)
}

// IsFixedFrameRate 是否固定帧率
func (sps *SPS) IsFixedFrameRate() bool {
	hrd := &sps.Vui.HrdParameters
	if !sps.Vui.HrdParametersPresentFlag || len(hrd.SubLayers) == 0 {
		return sps.Vui.TimingInfoPresentFlag
	}
	return hrd.SubLayers[len(hrd.SubLayers)-1].FixedPicRateWithinCvsFlag
}

// BitDepth returns the luma bit depth.
func (sps *SPS) BitDepth() int {
	return int(sps.BitDepthLumaMinus8) + 8
}
