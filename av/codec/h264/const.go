// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

/*
 * Table 7-1 – NAL unit type codes, syntax element categories, and NAL unit type classes in
 * T-REC-H.264-201704
 */
// H264 NAL 单元类型
const (
	NalUnspecified     = 0
	NalSlice           = 1  // 不分区非IDR图像的片
	NalDpa             = 2  // 片分区A
	NalDpb             = 3  // 片分区B
	NalDpc             = 4  // 片分区C
	NalIdrSlice        = 5  // IDR图像中的片（I帧）
	NalSei             = 6  // 补充增强信息单元
	NalSps             = 7  // 序列参数集
	NalPps             = 8  // 图像参数集
	NalAud             = 9  // 分界符
	NalEndSequence     = 10 // 序列结束
	NalEndStream       = 11 // 码流结束
	NalFillerData      = 12 // 填充
	NalSpsExt          = 13
	NalPrefix          = 14
	NalSubSps          = 15
	NalDps             = 16
	NalAuxiliarySlice  = 19
	NalExtenSlice      = 20
	NalDepthExtenSlice = 21

	NalTypeBitmask = 0x1F
)

// 图像片类型 slice_type % 5
const (
	SliceP  = 0
	SliceB  = 1
	SliceI  = 2
	SliceSP = 3
	SliceSI = 4
)

// 其他常量
const (
	// 7.4.2.1.1: seq_parameter_set_id is in [0, 31].
	MaxSpsCount = 32
	// 7.4.2.2: pic_parameter_set_id is in [0, 255].
	MaxPpsCount = 256

	// A.3: MaxDpbFrames is bounded above by 16.
	MaxDpbFrames = 16
	// 7.4.2.1.1: max_num_ref_frames is in [0, MaxDpbFrames], and
	// each reference frame can have two fields.
	MaxRefs = 2 * MaxDpbFrames

	// 7.4.3.1: modification_of_pic_nums_idc is not equal to 3 at most
	// num_ref_idx_lN_active_minus1 + 1 times (that is, once for each
	// possible reference), then equal to 3 once.
	MaxRplmCount = MaxRefs + 1

	// 7.4.3.3: in the worst case, we begin with a full short-term
	// reference picture list.  Each picture in turn is moved to the
	// long-term list (type 3) and then discarded from there (type 2).
	// Then, we set the length of the long-term list (type 4), mark
	// the current picture as long-term (type 6) and terminate the
	// process (type 0).
	MaxMmcoCount = MaxRefs*2 + 3

	// A.2.1, A.2.3: profiles supporting FMO constrain
	// num_slice_groups_minus1 to be in [0, 7].
	MaxSliceGroups = 8

	// E.2.2: cpb_cnt_minus1 is in [0, 31].
	MaxCpbCnt = 32

	// A.3: in table A-1 the highest level allows a MaxFS of 139264.
	MaxMbPicSize = 139264
)

var nalTypeNames = [...]string{
	NalSlice:           "slice_layer_without_partitioning",
	NalDpa:             "slice_data_partition_a",
	NalDpb:             "slice_data_partition_b",
	NalDpc:             "slice_data_partition_c",
	NalIdrSlice:        "slice_layer_without_partitioning",
	NalSei:             "sei",
	NalSps:             "seq_parameter_set",
	NalPps:             "pic_parameter_set",
	NalAud:             "access_unit_delimiter",
	NalEndSequence:     "end_of_seq",
	NalEndStream:       "end_of_stream",
	NalFillerData:      "filler_data",
	NalSpsExt:          "seq_parameter_set_extension",
	NalPrefix:          "prefix_nal_unit",
	NalSubSps:          "subset_seq_parameter_set",
	NalDps:             "depth_parameter_set",
	NalAuxiliarySlice:  "slice_layer_auxiliary",
	NalExtenSlice:      "slice_layer_extension",
	NalDepthExtenSlice: "slice_layer_depth_extension",
	31:                 "",
}

// NalTypeName returns the RBSP syntax structure carried by a NAL unit type.
func NalTypeName(nt uint8) string {
	if int(nt) < len(nalTypeNames) && nalTypeNames[nt] != "" {
		return nalTypeNames[nt]
	}
	return "nal_unit_payload"
}
