// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"github.com/cnotch/bitprobe/syntax"
)

// Profile is the profile part of profile_tier_level(), general or per sub-layer.
type Profile struct {
	Space              uint8
	TierFlag           bool
	Idc                uint8
	CompatibilityFlags uint32 // general_profile_compatibility_flag[0..31], MSB first

	ProgressiveSourceFlag   bool
	InterlacedSourceFlag    bool
	NonPackedConstraintFlag bool
	FrameOnlyConstraintFlag bool
}

// Compatible reports whether the profile is idc or declares compatibility with it.
func (p *Profile) Compatible(idc uint8) bool {
	return p.Idc == idc || p.CompatibilityFlags&(0x80000000>>uint(idc)) != 0
}

func (p *Profile) compatibleAny(idcs ...uint8) bool {
	for _, idc := range idcs {
		if p.Compatible(idc) {
			return true
		}
	}
	return false
}

// decode reads the 88 profile bits; prefix is "general" or "sub_layer".
func (p *Profile) decode(rec *syntax.Recorder, prefix string) {
	p.Space = uint8(rec.U(prefix+"_profile_space", 2))
	p.TierFlag = rec.Flag(prefix + "_tier_flag")
	p.Idc = uint8(rec.U(prefix+"_profile_idc", 5))
	for j := 0; j < 32; j++ {
		if rec.Flag(syntax.Index(prefix+"_profile_compatibility_flag", j)) {
			p.CompatibilityFlags |= 0x80000000 >> uint(j)
		}
	}

	p.ProgressiveSourceFlag = rec.Flag(prefix + "_progressive_source_flag")
	p.InterlacedSourceFlag = rec.Flag(prefix + "_interlaced_source_flag")
	p.NonPackedConstraintFlag = rec.Flag(prefix + "_non_packed_constraint_flag")
	p.FrameOnlyConstraintFlag = rec.Flag(prefix + "_frame_only_constraint_flag")

	// 43 bits of profile specific constraint flags
	switch {
	case p.compatibleAny(4, 5, 6, 7, 8, 9, 10, 11):
		for _, name := range []string{
			"_max_12bit_constraint_flag",
			"_max_10bit_constraint_flag",
			"_max_8bit_constraint_flag",
			"_max_422chroma_constraint_flag",
			"_max_420chroma_constraint_flag",
			"_max_monochrome_constraint_flag",
			"_intra_constraint_flag",
			"_one_picture_only_constraint_flag",
			"_lower_bit_rate_constraint_flag",
		} {
			rec.Flag(prefix + name)
		}
		if p.compatibleAny(5, 9, 10, 11) {
			rec.Flag(prefix + "_max_14bit_constraint_flag")
			rec.Skip(prefix+"_reserved_zero_33bits", 33)
		} else {
			rec.Skip(prefix+"_reserved_zero_34bits", 34)
		}
	case p.Compatible(2):
		rec.Skip(prefix+"_reserved_zero_7bits", 7)
		rec.Flag(prefix + "_one_picture_only_constraint_flag")
		rec.Skip(prefix+"_reserved_zero_35bits", 35)
	default:
		rec.Skip(prefix+"_reserved_zero_43bits", 43)
	}

	if p.compatibleAny(1, 2, 3, 4, 5, 9, 11) {
		rec.Flag(prefix + "_inbld_flag")
	} else {
		rec.Skip(prefix+"_reserved_zero_bit", 1)
	}
}

// SubLayer carries the optional per sub-layer part of profile_tier_level().
type SubLayer struct {
	ProfilePresent bool
	LevelPresent   bool
	Profile        Profile
	LevelIdc       uint8
}

// ProfileTierLevel profile_tier_level()
type ProfileTierLevel struct {
	General   Profile
	LevelIdc  uint8
	SubLayers []SubLayer
}

func (ptl *ProfileTierLevel) decode(rec *syntax.Recorder, profilePresent bool, maxSubLayersMinus1 int) {
	if profilePresent {
		ptl.General.decode(rec, "general")
	}
	ptl.LevelIdc = uint8(rec.U("general_level_idc", 8))

	ptl.SubLayers = make([]SubLayer, maxSubLayersMinus1)
	for i := range ptl.SubLayers {
		ptl.SubLayers[i].ProfilePresent = rec.Flag(syntax.Index("sub_layer_profile_present_flag", i))
		ptl.SubLayers[i].LevelPresent = rec.Flag(syntax.Index("sub_layer_level_present_flag", i))
	}
	if maxSubLayersMinus1 > 0 {
		for i := maxSubLayersMinus1; i < 8; i++ {
			rec.Skip(syntax.Index("reserved_zero_2bits", i), 2)
		}
	}

	for i := range ptl.SubLayers {
		sl := &ptl.SubLayers[i]
		if !sl.ProfilePresent && !sl.LevelPresent {
			continue
		}
		rec.Container(syntax.Index("sub_layer", i), func() {
			if sl.ProfilePresent {
				sl.Profile.decode(rec, "sub_layer")
			}
			if sl.LevelPresent {
				sl.LevelIdc = uint8(rec.U("sub_layer_level_idc", 8))
			}
		})
	}
}

// SubLayerHRD sub_layer_hrd_parameters()
type SubLayerHRD struct {
	BitRateValueMinus1 []uint32
	CpbSizeValueMinus1 []uint32
	CbrFlag            []bool
}

func (shrd *SubLayerHRD) decode(rec *syntax.Recorder, subPicParamsPresent bool, cpbCntMinus1 int) {
	n := cpbCntMinus1 + 1
	shrd.BitRateValueMinus1 = make([]uint32, n)
	shrd.CpbSizeValueMinus1 = make([]uint32, n)
	shrd.CbrFlag = make([]bool, n)
	for i := 0; i < n && !rec.Failed(); i++ {
		shrd.BitRateValueMinus1[i] = rec.UE(syntax.Index("bit_rate_value_minus1", i))
		shrd.CpbSizeValueMinus1[i] = rec.UE(syntax.Index("cpb_size_value_minus1", i))
		if subPicParamsPresent {
			rec.UE(syntax.Index("cpb_size_du_value_minus1", i))
			rec.UE(syntax.Index("bit_rate_du_value_minus1", i))
		}
		shrd.CbrFlag[i] = rec.Flag(syntax.Index("cbr_flag", i))
	}
}

// HRDSubLayer is the per sub-layer part of hrd_parameters().
type HRDSubLayer struct {
	FixedPicRateGeneralFlag     bool
	FixedPicRateWithinCvsFlag   bool
	ElementalDurationInTcMinus1 uint16
	LowDelayHrdFlag             bool
	CpbCntMinus1                uint8
	Nal                         *SubLayerHRD
	Vcl                         *SubLayerHRD
}

// HRD hrd_parameters()
type HRD struct {
	NalHrdParametersPresentFlag bool
	VclHrdParametersPresentFlag bool
	SubPicHrdParamsPresentFlag  bool

	BitRateScale uint8
	CpbSizeScale uint8

	InitialCpbRemovalDelayLengthMinus1 uint8
	AuCpbRemovalDelayLengthMinus1      uint8
	DpbOutputDelayLengthMinus1         uint8

	SubLayers []HRDSubLayer
}

func (hrd *HRD) decode(rec *syntax.Recorder, commonInfPresent bool, maxSubLayersMinus1 int) {
	hrd.InitialCpbRemovalDelayLengthMinus1 = 23
	hrd.AuCpbRemovalDelayLengthMinus1 = 23
	hrd.DpbOutputDelayLengthMinus1 = 23
	if commonInfPresent {
		hrd.NalHrdParametersPresentFlag = rec.Flag("nal_hrd_parameters_present_flag")
		hrd.VclHrdParametersPresentFlag = rec.Flag("vcl_hrd_parameters_present_flag")
		if hrd.NalHrdParametersPresentFlag || hrd.VclHrdParametersPresentFlag {
			hrd.SubPicHrdParamsPresentFlag = rec.Flag("sub_pic_hrd_params_present_flag")
			if hrd.SubPicHrdParamsPresentFlag {
				rec.U("tick_divisor_minus2", 8)
				rec.U("du_cpb_removal_delay_increment_length_minus1", 5)
				rec.Flag("sub_pic_cpb_params_in_pic_timing_sei_flag")
				rec.U("dpb_output_delay_du_length_minus1", 5)
			}
			hrd.BitRateScale = uint8(rec.U("bit_rate_scale", 4))
			hrd.CpbSizeScale = uint8(rec.U("cpb_size_scale", 4))
			if hrd.SubPicHrdParamsPresentFlag {
				rec.U("cpb_size_du_scale", 4)
			}
			hrd.InitialCpbRemovalDelayLengthMinus1 = uint8(rec.U("initial_cpb_removal_delay_length_minus1", 5))
			hrd.AuCpbRemovalDelayLengthMinus1 = uint8(rec.U("au_cpb_removal_delay_length_minus1", 5))
			hrd.DpbOutputDelayLengthMinus1 = uint8(rec.U("dpb_output_delay_length_minus1", 5))
		}
	}

	hrd.SubLayers = make([]HRDSubLayer, maxSubLayersMinus1+1)
	for i := range hrd.SubLayers {
		sl := &hrd.SubLayers[i]
		rec.Container(syntax.Index("sub_layer", i), func() {
			sl.FixedPicRateGeneralFlag = rec.Flag("fixed_pic_rate_general_flag")
			sl.FixedPicRateWithinCvsFlag = true
			if !sl.FixedPicRateGeneralFlag {
				sl.FixedPicRateWithinCvsFlag = rec.Flag("fixed_pic_rate_within_cvs_flag")
			}
			if sl.FixedPicRateWithinCvsFlag {
				sl.ElementalDurationInTcMinus1 = uint16(rec.UEMax("elemental_duration_in_tc_minus1", 2047))
			} else {
				sl.LowDelayHrdFlag = rec.Flag("low_delay_hrd_flag")
			}
			if !sl.LowDelayHrdFlag {
				sl.CpbCntMinus1 = uint8(rec.UEMax("cpb_cnt_minus1", MaxCpbCnt-1))
			}
			if hrd.NalHrdParametersPresentFlag {
				sl.Nal = &SubLayerHRD{}
				rec.Container("nal_sub_layer_hrd_parameters", func() {
					sl.Nal.decode(rec, hrd.SubPicHrdParamsPresentFlag, int(sl.CpbCntMinus1))
				})
			}
			if hrd.VclHrdParametersPresentFlag {
				sl.Vcl = &SubLayerHRD{}
				rec.Container("vcl_sub_layer_hrd_parameters", func() {
					sl.Vcl.decode(rec, hrd.SubPicHrdParamsPresentFlag, int(sl.CpbCntMinus1))
				})
			}
		})
	}
}
