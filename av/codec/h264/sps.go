// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"github.com/cnotch/bitprobe/syntax"
)

// HRD hrd_parameters()
type HRD struct {
	CpbCntMinus1 uint8
	BitRateScale uint8
	CpbSizeScale uint8

	BitRateValueMinus1 [MaxCpbCnt]uint32
	CpbSizeValueMinus1 [MaxCpbCnt]uint32
	CbrFlag            [MaxCpbCnt]bool

	InitialCpbRemovalDelayLengthMinus1 uint8
	CpbRemovalDelayLengthMinus1        uint8
	DpbOutputDelayLengthMinus1         uint8
	TimeOffsetLength                   uint8
}

// VUI vui_parameters()
type VUI struct {
	AspectRatioInfoPresentFlag bool
	AspectRatioIdc             uint8
	SarWidth                   uint16 // 表示样点高宽比的水平尺寸（以任意单位）。
	SarHeight                  uint16 // 表示样点高宽比的垂直尺寸（以与sar_width相同的任意单位）。

	OverscanInfoPresentFlag bool
	OverscanAppropriateFlag bool

	// 当video_format语法元素不存在，video_format的值应被推定为5。
	// 当colour_primaries 语法元素不存在时，colour_primaries 的值应被推定为等于2（色度未定义或由应用决定）。
	VideoSignalTypePresentFlag   bool
	VideoFormat                  uint8
	VideoFullRangeFlag           bool
	ColourDescriptionPresentFlag bool
	ColourPrimaries              uint8
	TransferCharacteristics      uint8
	MatrixCoefficients           uint8

	ChromaLocInfoPresentFlag       bool
	ChromaSampleLocTypeTopField    uint8
	ChromaSampleLocTypeBottomField uint8

	// 和帧率相关
	TimingInfoPresentFlag bool
	NumUnitsInTick        uint32
	TimeScale             uint32
	FixedFrameRateFlag    bool

	NalHrdParametersPresentFlag bool
	NalHrdParameters            HRD
	VclHrdParametersPresentFlag bool
	VclHrdParameters            HRD
	LowDelayHrdFlag             bool

	PicStructPresentFlag bool

	BitstreamRestrictionFlag           bool
	MotionVectorsOverPicBoundariesFlag bool
	MaxBytesPerPicDenom                uint8
	MaxBitsPerMbDenom                  uint8
	Log2MaxMvLengthHorizontal          uint8
	Log2MaxMvLengthVertical            uint8
	MaxNumReorderFrames                uint8
	MaxDecFrameBuffering               uint8
}

// SPS seq_parameter_set_rbsp()
type SPS struct {
	// 指明所用  profile、level、及对附录A.2的遵循情况
	ProfileIdc         uint8
	ConstraintSetFlags uint8 // constraint_set0_flag .. constraint_set5_flag, MSB first
	LevelIdc           uint8

	// 本句法元素的值应该在[0，31]。
	SeqParameterSetID uint8

	ChromaFormatIdc                 uint8
	SeparateColourPlaneFlag         bool
	BitDepthLumaMinus8              uint8
	BitDepthChromaMinus8            uint8
	QpprimeYZeroTransformBypassFlag bool
	SeqScalingMatrixPresentFlag     bool

	// MaxFrameNum = 2*exp( Log2MaxFrameNumMinus4 + 4 )
	Log2MaxFrameNumMinus4          uint8
	PicOrderCntType                uint8
	Log2MaxPicOrderCntLsbMinus4    uint8
	DeltaPicOrderAlwaysZeroFlag    bool
	OffsetForNonRefPic             int32
	OffsetForTopToBottomField      int32
	NumRefFramesInPicOrderCntCycle uint8

	MaxNumRefFrames           uint8
	GapsInFrameNumAllowedFlag bool

	// PicWidthInSamples = PicWidthInMbs * 16
	PicWidthInMbsMinus1       uint16
	PicHeightInMapUnitsMinus1 uint16

	FrameMbsOnlyFlag         bool
	MbAdaptiveFrameFieldFlag bool
	Direct8x8InferenceFlag   bool

	FrameCroppingFlag     bool
	FrameCropLeftOffset   uint16
	FrameCropRightOffset  uint16
	FrameCropTopOffset    uint16
	FrameCropBottomOffset uint16

	VuiParametersPresentFlag bool
	Vui                      VUI
}

// ConstraintSet reports constraint_setN_flag.
func (sps *SPS) ConstraintSet(n int) bool {
	return sps.ConstraintSetFlags&(0x80>>uint(n)) != 0
}

// ChromaArrayType derived per 7.4.2.1.1.
func (sps *SPS) ChromaArrayType() uint8 {
	if sps.SeparateColourPlaneFlag {
		return 0
	}
	return sps.ChromaFormatIdc
}

// PicSizeInMapUnits PicWidthInMbs * PicHeightInMapUnits
func (sps *SPS) PicSizeInMapUnits() int {
	return (int(sps.PicWidthInMbsMinus1) + 1) * (int(sps.PicHeightInMapUnitsMinus1) + 1)
}

func hasChromaInfo(profileIdc uint8) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135:
		return true
	}
	return false
}

// Decode records seq_parameter_set_data() into the current container.
func (sps *SPS) Decode(rec *syntax.Recorder) {
	sps.ProfileIdc = uint8(rec.U("profile_idc", 8))
	for i := 0; i < 6; i++ {
		if rec.Flag(syntax.Index("constraint_set_flag", i)) {
			sps.ConstraintSetFlags |= 0x80 >> uint(i)
		}
	}
	rec.Skip("reserved_zero_2bits", 2)
	sps.LevelIdc = uint8(rec.U("level_idc", 8))
	sps.SeqParameterSetID = uint8(rec.UEMax("seq_parameter_set_id", MaxSpsCount-1))

	sps.ChromaFormatIdc = 1
	if hasChromaInfo(sps.ProfileIdc) {
		sps.ChromaFormatIdc = uint8(rec.UEMax("chroma_format_idc", 3))
		if sps.ChromaFormatIdc == 3 {
			sps.SeparateColourPlaneFlag = rec.Flag("separate_colour_plane_flag")
		}
		sps.BitDepthLumaMinus8 = uint8(rec.UEMax("bit_depth_luma_minus8", 6))
		sps.BitDepthChromaMinus8 = uint8(rec.UEMax("bit_depth_chroma_minus8", 6))
		sps.QpprimeYZeroTransformBypassFlag = rec.Flag("qpprime_y_zero_transform_bypass_flag")
		sps.SeqScalingMatrixPresentFlag = rec.Flag("seq_scaling_matrix_present_flag")
		if sps.SeqScalingMatrixPresentFlag {
			n := 8
			if sps.ChromaFormatIdc == 3 {
				n = 12
			}
			scalingMatrix(rec, "seq_scaling_list_present_flag", n)
		}
	} else if sps.ProfileIdc == 183 {
		sps.ChromaFormatIdc = 0
	}

	sps.Log2MaxFrameNumMinus4 = uint8(rec.UEMax("log2_max_frame_num_minus4", 12))
	sps.PicOrderCntType = uint8(rec.UEMax("pic_order_cnt_type", 2))
	switch sps.PicOrderCntType {
	case 0:
		sps.Log2MaxPicOrderCntLsbMinus4 = uint8(rec.UEMax("log2_max_pic_order_cnt_lsb_minus4", 12))
	case 1:
		sps.DeltaPicOrderAlwaysZeroFlag = rec.Flag("delta_pic_order_always_zero_flag")
		sps.OffsetForNonRefPic = rec.SE("offset_for_non_ref_pic")
		sps.OffsetForTopToBottomField = rec.SE("offset_for_top_to_bottom_field")
		sps.NumRefFramesInPicOrderCntCycle = uint8(rec.UEMax("num_ref_frames_in_pic_order_cnt_cycle", 255))
		for i := 0; i < int(sps.NumRefFramesInPicOrderCntCycle); i++ {
			rec.SE(syntax.Index("offset_for_ref_frame", i))
		}
	}

	sps.MaxNumRefFrames = uint8(rec.UEMax("max_num_ref_frames", MaxRefs))
	sps.GapsInFrameNumAllowedFlag = rec.Flag("gaps_in_frame_num_value_allowed_flag")
	sps.PicWidthInMbsMinus1 = uint16(rec.UEMax("pic_width_in_mbs_minus1", MaxMbPicSize))
	sps.PicHeightInMapUnitsMinus1 = uint16(rec.UEMax("pic_height_in_map_units_minus1", MaxMbPicSize))

	sps.FrameMbsOnlyFlag = rec.Flag("frame_mbs_only_flag")
	if !sps.FrameMbsOnlyFlag {
		sps.MbAdaptiveFrameFieldFlag = rec.Flag("mb_adaptive_frame_field_flag")
	}
	sps.Direct8x8InferenceFlag = rec.Flag("direct_8x8_inference_flag")

	sps.FrameCroppingFlag = rec.Flag("frame_cropping_flag")
	if sps.FrameCroppingFlag {
		sps.FrameCropLeftOffset = uint16(rec.UE("frame_crop_left_offset"))
		sps.FrameCropRightOffset = uint16(rec.UE("frame_crop_right_offset"))
		sps.FrameCropTopOffset = uint16(rec.UE("frame_crop_top_offset"))
		sps.FrameCropBottomOffset = uint16(rec.UE("frame_crop_bottom_offset"))
	}

	sps.VuiParametersPresentFlag = rec.Flag("vui_parameters_present_flag")
	if sps.VuiParametersPresentFlag {
		rec.Container("vui_parameters", func() { sps.Vui.decode(rec, sps) })
	} else {
		sps.Vui.setDefault(sps)
	}
}

// scalingMatrix records the presence flags and scaling_list() of a
// scaling matrix with n lists; lists 0..5 are 4x4, the rest 8x8.
func scalingMatrix(rec *syntax.Recorder, flagName string, n int) {
	for i := 0; i < n; i++ {
		if !rec.Flag(syntax.Index(flagName, i)) {
			continue
		}
		size := 16
		if i >= 6 {
			size = 64
		}
		rec.Container(syntax.Index("scaling_list", i), func() { scalingList(rec, size) })
	}
}

// scalingList reads delta_scale until nextScale becomes 0.
func scalingList(rec *syntax.Recorder, size int) {
	lastScale, nextScale := int32(8), int32(8)
	for j := 0; j < size && !rec.Failed(); j++ {
		if nextScale != 0 {
			delta := rec.SE(syntax.Index("delta_scale", j))
			if delta < -128 || delta > 127 {
				rec.Failf("delta_scale", "delta_scale %d outside [-128, 127]", delta)
				return
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
}

func (vui *VUI) decode(rec *syntax.Recorder, sps *SPS) {
	vui.AspectRatioInfoPresentFlag = rec.Flag("aspect_ratio_info_present_flag")
	if vui.AspectRatioInfoPresentFlag {
		vui.AspectRatioIdc = uint8(rec.U("aspect_ratio_idc", 8))
		if vui.AspectRatioIdc == 255 { // Extended_SAR
			vui.SarWidth = uint16(rec.U("sar_width", 16))
			vui.SarHeight = uint16(rec.U("sar_height", 16))
		}
	}

	vui.OverscanInfoPresentFlag = rec.Flag("overscan_info_present_flag")
	if vui.OverscanInfoPresentFlag {
		vui.OverscanAppropriateFlag = rec.Flag("overscan_appropriate_flag")
	}

	vui.VideoFormat = 5
	vui.ColourPrimaries = 2
	vui.TransferCharacteristics = 2
	vui.MatrixCoefficients = 2
	vui.VideoSignalTypePresentFlag = rec.Flag("video_signal_type_present_flag")
	if vui.VideoSignalTypePresentFlag {
		vui.VideoFormat = uint8(rec.U("video_format", 3))
		vui.VideoFullRangeFlag = rec.Flag("video_full_range_flag")
		vui.ColourDescriptionPresentFlag = rec.Flag("colour_description_present_flag")
		if vui.ColourDescriptionPresentFlag {
			vui.ColourPrimaries = uint8(rec.U("colour_primaries", 8))
			vui.TransferCharacteristics = uint8(rec.U("transfer_characteristics", 8))
			vui.MatrixCoefficients = uint8(rec.U("matrix_coefficients", 8))
		}
	}

	vui.ChromaLocInfoPresentFlag = rec.Flag("chroma_loc_info_present_flag")
	if vui.ChromaLocInfoPresentFlag {
		vui.ChromaSampleLocTypeTopField = uint8(rec.UEMax("chroma_sample_loc_type_top_field", 5))
		vui.ChromaSampleLocTypeBottomField = uint8(rec.UEMax("chroma_sample_loc_type_bottom_field", 5))
	}

	vui.TimingInfoPresentFlag = rec.Flag("timing_info_present_flag")
	if vui.TimingInfoPresentFlag {
		vui.NumUnitsInTick = rec.U("num_units_in_tick", 32)
		vui.TimeScale = rec.U("time_scale", 32)
		vui.FixedFrameRateFlag = rec.Flag("fixed_frame_rate_flag")
	}

	vui.NalHrdParametersPresentFlag = rec.Flag("nal_hrd_parameters_present_flag")
	if vui.NalHrdParametersPresentFlag {
		rec.Container("nal_hrd_parameters", func() { vui.NalHrdParameters.decode(rec) })
	}
	vui.VclHrdParametersPresentFlag = rec.Flag("vcl_hrd_parameters_present_flag")
	if vui.VclHrdParametersPresentFlag {
		rec.Container("vcl_hrd_parameters", func() { vui.VclHrdParameters.decode(rec) })
	}
	if vui.NalHrdParametersPresentFlag || vui.VclHrdParametersPresentFlag {
		vui.LowDelayHrdFlag = rec.Flag("low_delay_hrd_flag")
	} else {
		vui.LowDelayHrdFlag = !vui.FixedFrameRateFlag
	}

	vui.PicStructPresentFlag = rec.Flag("pic_struct_present_flag")

	vui.BitstreamRestrictionFlag = rec.Flag("bitstream_restriction_flag")
	if vui.BitstreamRestrictionFlag {
		vui.MotionVectorsOverPicBoundariesFlag = rec.Flag("motion_vectors_over_pic_boundaries_flag")
		vui.MaxBytesPerPicDenom = uint8(rec.UEMax("max_bytes_per_pic_denom", 16))
		vui.MaxBitsPerMbDenom = uint8(rec.UEMax("max_bits_per_mb_denom", 16))
		// The current version of the standard constrains this to be in
		// [0,15], but older versions allow 16.
		vui.Log2MaxMvLengthHorizontal = uint8(rec.UEMax("log2_max_mv_length_horizontal", 16))
		vui.Log2MaxMvLengthVertical = uint8(rec.UEMax("log2_max_mv_length_vertical", 16))
		vui.MaxNumReorderFrames = uint8(rec.UEMax("max_num_reorder_frames", MaxDpbFrames))
		vui.MaxDecFrameBuffering = uint8(rec.UEMax("max_dec_frame_buffering", MaxDpbFrames))
	} else {
		vui.setRestrictionDefault(sps)
	}
}

func (vui *VUI) setDefault(sps *SPS) {
	vui.VideoFormat = 5
	vui.ColourPrimaries = 2
	vui.TransferCharacteristics = 2
	vui.MatrixCoefficients = 2
	vui.LowDelayHrdFlag = true
	vui.setRestrictionDefault(sps)
}

func (vui *VUI) setRestrictionDefault(sps *SPS) {
	vui.MotionVectorsOverPicBoundariesFlag = true
	vui.MaxBytesPerPicDenom = 2
	vui.MaxBitsPerMbDenom = 1
	vui.Log2MaxMvLengthHorizontal = 15
	vui.Log2MaxMvLengthVertical = 15

	switch sps.ProfileIdc {
	case 44, 86, 100, 110, 122, 244:
		if sps.ConstraintSet(3) {
			vui.MaxNumReorderFrames = 0
			vui.MaxDecFrameBuffering = 0
			return
		}
	}
	vui.MaxNumReorderFrames = MaxDpbFrames
	vui.MaxDecFrameBuffering = MaxDpbFrames
}

func (hrd *HRD) decode(rec *syntax.Recorder) {
	hrd.CpbCntMinus1 = uint8(rec.UEMax("cpb_cnt_minus1", MaxCpbCnt-1))
	hrd.BitRateScale = uint8(rec.U("bit_rate_scale", 4))
	hrd.CpbSizeScale = uint8(rec.U("cpb_size_scale", 4))

	for i := 0; i <= int(hrd.CpbCntMinus1) && !rec.Failed(); i++ {
		hrd.BitRateValueMinus1[i] = rec.UE(syntax.Index("bit_rate_value_minus1", i))
		hrd.CpbSizeValueMinus1[i] = rec.UE(syntax.Index("cpb_size_value_minus1", i))
		hrd.CbrFlag[i] = rec.Flag(syntax.Index("cbr_flag", i))
	}

	hrd.InitialCpbRemovalDelayLengthMinus1 = uint8(rec.U("initial_cpb_removal_delay_length_minus1", 5))
	hrd.CpbRemovalDelayLengthMinus1 = uint8(rec.U("cpb_removal_delay_length_minus1", 5))
	hrd.DpbOutputDelayLengthMinus1 = uint8(rec.U("dpb_output_delay_length_minus1", 5))
	hrd.TimeOffsetLength = uint8(rec.U("time_offset_length", 5))
}

// Width 视频宽度（像素）
func (sps *SPS) Width() int {
	w := (int(sps.PicWidthInMbsMinus1) + 1) * 16
	cropX, _ := sps.cropUnits()
	return w - cropX*(int(sps.FrameCropLeftOffset)+int(sps.FrameCropRightOffset))
}

// Height 视频高度（像素）
func (sps *SPS) Height() int {
	h := (int(sps.PicHeightInMapUnitsMinus1) + 1) * 16
	if !sps.FrameMbsOnlyFlag {
		h *= 2
	}
	_, cropY := sps.cropUnits()
	return h - cropY*(int(sps.FrameCropTopOffset)+int(sps.FrameCropBottomOffset))
}

// cropUnits returns CropUnitX, CropUnitY of 7.4.2.1.1.
func (sps *SPS) cropUnits() (int, int) {
	fieldFactor := 1
	if !sps.FrameMbsOnlyFlag {
		fieldFactor = 2
	}
	switch sps.ChromaArrayType() {
	case 0, 3:
		return 1, fieldFactor
	case 2:
		return 2, fieldFactor
	default:
		return 2, 2 * fieldFactor
	}
}

// FrameRate Video frame rate
func (sps *SPS) FrameRate() float64 {
	if sps.Vui.NumUnitsInTick == 0 {
		return 0.0
	}
	return float64(sps.Vui.TimeScale) / (2 * float64(sps.Vui.NumUnitsInTick))
}

// IsFixedFrameRate 是否固定帧率
func (sps *SPS) IsFixedFrameRate() bool {
	return sps.Vui.FixedFrameRateFlag
}

// BitDepth returns the luma bit depth.
func (sps *SPS) BitDepth() int {
	return int(sps.BitDepthLumaMinus8) + 8
}
