// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package av1

import (
	"github.com/cnotch/bitprobe/syntax"
)

// TimingInfo timing_info()
type TimingInfo struct {
	NumUnitsInDisplayTick    uint32
	TimeScale                uint32
	EqualPictureInterval     bool
	NumTicksPerPictureMinus1 uint32
}

// DecoderModelInfo decoder_model_info()
type DecoderModelInfo struct {
	BufferDelayLengthMinus1           uint8
	NumUnitsInDecodingTick            uint32
	BufferRemovalTimeLengthMinus1     uint8
	FramePresentationTimeLengthMinus1 uint8
}

// OperatingPoint one entry of the operating point loop.
type OperatingPoint struct {
	Idc                        uint16
	SeqLevelIdx                uint8
	SeqTier                    uint8
	DecoderModelPresent        bool
	DecoderBufferDelay         uint32
	EncoderBufferDelay         uint32
	LowDelayMode               bool
	InitialDisplayDelayPresent bool
	InitialDisplayDelayMinus1  uint8
}

// ColorConfig color_config()
type ColorConfig struct {
	BitDepth                int
	MonoChrome              bool
	NumPlanes               int
	ColorPrimaries          uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
	ColorRange              bool
	SubsamplingX            bool
	SubsamplingY            bool
	ChromaSamplePosition    uint8
	SeparateUVDeltaQ        bool
}

// SequenceHeader sequence_header_obu()
type SequenceHeader struct {
	SeqProfile                uint8
	StillPicture              bool
	ReducedStillPictureHeader bool

	TimingInfoPresent          bool
	TimingInfo                 TimingInfo
	DecoderModelInfoPresent    bool
	DecoderModelInfo           DecoderModelInfo
	InitialDisplayDelayPresent bool
	OperatingPoints            []OperatingPoint

	FrameWidthBitsMinus1  uint8
	FrameHeightBitsMinus1 uint8
	MaxFrameWidthMinus1   uint32
	MaxFrameHeightMinus1  uint32

	FrameIDNumbersPresent         bool
	DeltaFrameIDLengthMinus2      uint8
	AdditionalFrameIDLengthMinus1 uint8

	Use128x128Superblock       bool
	EnableFilterIntra          bool
	EnableIntraEdgeFilter      bool
	EnableInterintraCompound   bool
	EnableMaskedCompound       bool
	EnableWarpedMotion         bool
	EnableDualFilter           bool
	EnableOrderHint            bool
	EnableJntComp              bool
	EnableRefFrameMvs          bool
	SeqForceScreenContentTools uint8
	SeqForceIntegerMV          uint8
	OrderHintBits              int

	EnableSuperres         bool
	EnableCdef             bool
	EnableRestoration      bool
	ColorConfig            ColorConfig
	FilmGrainParamsPresent bool
}

// ParseSequenceHeader parses a sequence_header_obu() payload. The tree is
// rooted at "sequence_header".
func ParseSequenceHeader(data []byte) (*SequenceHeader, *syntax.Tree, error) {
	sh := &SequenceHeader{}
	tree, err := syntax.Parse(data, "sequence_header", sh.Decode)
	if err != nil {
		return nil, nil, err
	}
	return sh, tree, nil
}

// Decode records the fields of sequence_header_obu() into the current container.
func (sh *SequenceHeader) Decode(rec *syntax.Recorder) {
	sh.SeqProfile = uint8(rec.U("seq_profile", 3))
	sh.StillPicture = rec.Flag("still_picture")
	sh.ReducedStillPictureHeader = rec.Flag("reduced_still_picture_header")

	if sh.ReducedStillPictureHeader {
		sh.OperatingPoints = []OperatingPoint{{
			SeqLevelIdx: uint8(rec.U("seq_level_idx", 5)),
		}}
	} else {
		sh.TimingInfoPresent = rec.Flag("timing_info_present_flag")
		if sh.TimingInfoPresent {
			rec.Container("timing_info", func() { sh.TimingInfo.decode(rec) })
			sh.DecoderModelInfoPresent = rec.Flag("decoder_model_info_present_flag")
			if sh.DecoderModelInfoPresent {
				rec.Container("decoder_model_info", func() { sh.DecoderModelInfo.decode(rec) })
			}
		}
		sh.InitialDisplayDelayPresent = rec.Flag("initial_display_delay_present_flag")

		count := int(rec.U("operating_points_cnt_minus_1", 5)) + 1
		if rec.Failed() {
			return
		}
		sh.OperatingPoints = make([]OperatingPoint, count)
		for i := range sh.OperatingPoints {
			op := &sh.OperatingPoints[i]
			rec.Container(syntax.Index("operating_points", i), func() {
				op.decode(rec, sh)
			})
		}
	}

	sh.FrameWidthBitsMinus1 = uint8(rec.U("frame_width_bits_minus_1", 4))
	sh.FrameHeightBitsMinus1 = uint8(rec.U("frame_height_bits_minus_1", 4))
	sh.MaxFrameWidthMinus1 = rec.U("max_frame_width_minus_1", int(sh.FrameWidthBitsMinus1)+1)
	sh.MaxFrameHeightMinus1 = rec.U("max_frame_height_minus_1", int(sh.FrameHeightBitsMinus1)+1)

	if !sh.ReducedStillPictureHeader {
		sh.FrameIDNumbersPresent = rec.Flag("frame_id_numbers_present_flag")
	}
	if sh.FrameIDNumbersPresent {
		sh.DeltaFrameIDLengthMinus2 = uint8(rec.U("delta_frame_id_length_minus_2", 4))
		sh.AdditionalFrameIDLengthMinus1 = uint8(rec.U("additional_frame_id_length_minus_1", 3))
	}

	sh.Use128x128Superblock = rec.Flag("use_128x128_superblock")
	sh.EnableFilterIntra = rec.Flag("enable_filter_intra")
	sh.EnableIntraEdgeFilter = rec.Flag("enable_intra_edge_filter")

	if sh.ReducedStillPictureHeader {
		sh.SeqForceScreenContentTools = selectScreenContentTools
		sh.SeqForceIntegerMV = selectIntegerMV
	} else {
		sh.decodeTools(rec)
	}

	sh.EnableSuperres = rec.Flag("enable_superres")
	sh.EnableCdef = rec.Flag("enable_cdef")
	sh.EnableRestoration = rec.Flag("enable_restoration")
	rec.Container("color_config", func() { sh.ColorConfig.decode(rec, sh.SeqProfile) })
	sh.FilmGrainParamsPresent = rec.Flag("film_grain_params_present")
}

func (sh *SequenceHeader) decodeTools(rec *syntax.Recorder) {
	sh.EnableInterintraCompound = rec.Flag("enable_interintra_compound")
	sh.EnableMaskedCompound = rec.Flag("enable_masked_compound")
	sh.EnableWarpedMotion = rec.Flag("enable_warped_motion")
	sh.EnableDualFilter = rec.Flag("enable_dual_filter")
	sh.EnableOrderHint = rec.Flag("enable_order_hint")
	if sh.EnableOrderHint {
		sh.EnableJntComp = rec.Flag("enable_jnt_comp")
		sh.EnableRefFrameMvs = rec.Flag("enable_ref_frame_mvs")
	}

	if rec.Flag("seq_choose_screen_content_tools") {
		sh.SeqForceScreenContentTools = selectScreenContentTools
	} else {
		sh.SeqForceScreenContentTools = uint8(rec.U("seq_force_screen_content_tools", 1))
	}

	sh.SeqForceIntegerMV = selectIntegerMV
	if sh.SeqForceScreenContentTools > 0 {
		if !rec.Flag("seq_choose_integer_mv") {
			sh.SeqForceIntegerMV = uint8(rec.U("seq_force_integer_mv", 1))
		}
	}

	if sh.EnableOrderHint {
		sh.OrderHintBits = int(rec.U("order_hint_bits_minus_1", 3)) + 1
	}
}

func (ti *TimingInfo) decode(rec *syntax.Recorder) {
	ti.NumUnitsInDisplayTick = rec.U("num_units_in_display_tick", 32)
	ti.TimeScale = rec.U("time_scale", 32)
	ti.EqualPictureInterval = rec.Flag("equal_picture_interval")
	if ti.EqualPictureInterval {
		ti.NumTicksPerPictureMinus1 = rec.Uvlc("num_ticks_per_picture_minus_1")
	}
}

func (dm *DecoderModelInfo) decode(rec *syntax.Recorder) {
	dm.BufferDelayLengthMinus1 = uint8(rec.U("buffer_delay_length_minus_1", 5))
	dm.NumUnitsInDecodingTick = rec.U("num_units_in_decoding_tick", 32)
	dm.BufferRemovalTimeLengthMinus1 = uint8(rec.U("buffer_removal_time_length_minus_1", 5))
	dm.FramePresentationTimeLengthMinus1 = uint8(rec.U("frame_presentation_time_length_minus_1", 5))
}

func (op *OperatingPoint) decode(rec *syntax.Recorder, sh *SequenceHeader) {
	op.Idc = uint16(rec.U("operating_point_idc", 12))
	op.SeqLevelIdx = uint8(rec.U("seq_level_idx", 5))
	if op.SeqLevelIdx > 7 {
		op.SeqTier = uint8(rec.U("seq_tier", 1))
	}

	if sh.DecoderModelInfoPresent {
		op.DecoderModelPresent = rec.Flag("decoder_model_present_for_this_op")
		if op.DecoderModelPresent {
			n := int(sh.DecoderModelInfo.BufferDelayLengthMinus1) + 1
			rec.Container("operating_parameters_info", func() {
				op.DecoderBufferDelay = rec.U("decoder_buffer_delay", n)
				op.EncoderBufferDelay = rec.U("encoder_buffer_delay", n)
				op.LowDelayMode = rec.Flag("low_delay_mode_flag")
			})
		}
	}

	if sh.InitialDisplayDelayPresent {
		op.InitialDisplayDelayPresent = rec.Flag("initial_display_delay_present_for_this_op")
		if op.InitialDisplayDelayPresent {
			op.InitialDisplayDelayMinus1 = uint8(rec.U("initial_display_delay_minus_1", 4))
		}
	}
}

func (cc *ColorConfig) decode(rec *syntax.Recorder, seqProfile uint8) {
	highBitdepth := rec.Flag("high_bitdepth")
	cc.BitDepth = 8
	if seqProfile == 2 && highBitdepth {
		cc.BitDepth = 10
		if rec.Flag("twelve_bit") {
			cc.BitDepth = 12
		}
	} else if highBitdepth {
		cc.BitDepth = 10
	}

	if seqProfile != 1 {
		cc.MonoChrome = rec.Flag("mono_chrome")
	}
	cc.NumPlanes = 3
	if cc.MonoChrome {
		cc.NumPlanes = 1
	}

	cc.ColorPrimaries = cpUnspecified
	cc.TransferCharacteristics = tcUnspecified
	cc.MatrixCoefficients = mcUnspecified
	if rec.Flag("color_description_present_flag") {
		cc.ColorPrimaries = uint8(rec.U("color_primaries", 8))
		cc.TransferCharacteristics = uint8(rec.U("transfer_characteristics", 8))
		cc.MatrixCoefficients = uint8(rec.U("matrix_coefficients", 8))
	}

	switch {
	case cc.MonoChrome:
		cc.ColorRange = rec.Flag("color_range")
		cc.SubsamplingX, cc.SubsamplingY = true, true
		cc.ChromaSamplePosition = cspUnknown
		cc.SeparateUVDeltaQ = false
		return
	case cc.ColorPrimaries == cpBT709 && cc.TransferCharacteristics == tcSRGB &&
		cc.MatrixCoefficients == mcIdentity:
		cc.ColorRange = true
	default:
		cc.ColorRange = rec.Flag("color_range")
		switch seqProfile {
		case 0:
			cc.SubsamplingX, cc.SubsamplingY = true, true
		case 1:
		default:
			if cc.BitDepth == 12 {
				cc.SubsamplingX = rec.Flag("subsampling_x")
				if cc.SubsamplingX {
					cc.SubsamplingY = rec.Flag("subsampling_y")
				}
			} else {
				cc.SubsamplingX = true
			}
		}
		if cc.SubsamplingX && cc.SubsamplingY {
			cc.ChromaSamplePosition = uint8(rec.U("chroma_sample_position", 2))
		}
	}
	cc.SeparateUVDeltaQ = rec.Flag("separate_uv_delta_q")
}

// Width returns max_frame_width_minus_1 + 1.
func (sh *SequenceHeader) Width() int {
	return int(sh.MaxFrameWidthMinus1) + 1
}

// Height returns max_frame_height_minus_1 + 1.
func (sh *SequenceHeader) Height() int {
	return int(sh.MaxFrameHeightMinus1) + 1
}

// SuperblockSize returns 64 or 128.
func (sh *SequenceHeader) SuperblockSize() int {
	if sh.Use128x128Superblock {
		return 128
	}
	return 64
}

// FrameRate returns the frame rate signalled by timing_info, or 0.
func (sh *SequenceHeader) FrameRate() float64 {
	ti := sh.TimingInfo
	if !sh.TimingInfoPresent || !ti.EqualPictureInterval || ti.NumUnitsInDisplayTick == 0 {
		return 0
	}
	ticks := float64(ti.NumUnitsInDisplayTick) * (float64(ti.NumTicksPerPictureMinus1) + 1)
	return float64(ti.TimeScale) / ticks
}
