// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

/**
 * Table 7-1 – NAL unit type codes and NAL unit type classes in
 * T-REC-H.265-201802
 */
const (
	NalTrailN    = 0
	NalTrailR    = 1
	NalTsaN      = 2
	NalTsaR      = 3
	NalStsaN     = 4
	NalStsaR     = 5
	NalRadlN     = 6
	NalRadlR     = 7
	NalRaslN     = 8
	NalRaslR     = 9
	NalBlaWLp    = 16
	NalBlaWRadl  = 17
	NalBlaNLp    = 18
	NalIdrWRadl  = 19
	NalIdrNLp    = 20
	NalCraNut    = 21
	NalIrapVcl22 = 22
	NalIrapVcl23 = 23
	NalVps       = 32
	NalSps       = 33
	NalPps       = 34
	NalAud       = 35
	NalEosNut    = 36
	NalEobNut    = 37
	NalFdNut     = 38
	NalSeiPrefix = 39
	NalSeiSuffix = 40
)

// 其他常量
const (
	// 7.4.3.1: vps_max_layers_minus1 is in [0, 62].
	MaxLayers = 63
	// 7.4.3.1: vps_max_sub_layers_minus1 is in [0, 6].
	MaxSubLayers = 7
	// 7.4.3.1: vps_num_layer_sets_minus1 is in [0, 1023].
	MaxLayerSets = 1024

	// 7.4.2.1: vps_video_parameter_set_id is u(4).
	MaxVpsCount = 16
	// 7.4.3.2.1: sps_seq_parameter_set_id is in [0, 15].
	MaxSpsCount = 16
	// 7.4.3.3.1: pps_pic_parameter_set_id is in [0, 63].
	MaxPpsCount = 64

	// A.4.2: MaxDpbSize is bounded above by 16.
	MaxDpbSize = 16

	// 7.4.3.2.1: num_short_term_ref_pic_sets is in [0, 64].
	MaxShortTermRefPicSets = 64
	// 7.4.3.2.1: num_long_term_ref_pics_sps is in [0, 32].
	MaxLongTermRefPics = 32

	// A.3: all profiles require that CtbLog2SizeY is in [4, 6].
	MinLog2CtbSize = 4
	MaxLog2CtbSize = 6

	// E.3.2: cpb_cnt_minus1[i] is in [0, 31].
	MaxCpbCnt = 32

	// A.4.1: pic_width_in_luma_samples and pic_height_in_luma_samples are
	// constrained to be not greater than sqrt(MaxLumaPs * 8).  Hence height/
	// width are bounded above by sqrt(8 * 35651584) = 16888.2 samples.
	MaxWidth  = 16888
	MaxHeight = 16888

	// A.4.1: table A.6 allows at most 22 tile rows for any level.
	MaxTileRows = 22
	// A.4.1: table A.6 allows at most 20 tile columns for any level.
	MaxTileColumns = 20
)

// NalTypeName returns the RBSP syntax structure carried by a NAL unit type.
func NalTypeName(nt uint8) string {
	switch {
	case nt <= NalCraNut:
		return "slice_segment_layer"
	case nt == NalVps:
		return "video_parameter_set"
	case nt == NalSps:
		return "seq_parameter_set"
	case nt == NalPps:
		return "pic_parameter_set"
	case nt == NalAud:
		return "access_unit_delimiter"
	case nt == NalEosNut:
		return "end_of_seq"
	case nt == NalEobNut:
		return "end_of_bitstream"
	case nt == NalFdNut:
		return "filler_data"
	case nt == NalSeiPrefix, nt == NalSeiSuffix:
		return "sei"
	}
	return "nal_unit_payload"
}
