// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSps = "Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA=="

func testPPS() []byte {
	w := &bitWriter{}
	w.u(0x68, 8)
	w.ue(0).ue(0).u(1, 1).u(0, 1).ue(0) // ids, cabac, bottom_field, slice groups
	w.ue(0).ue(0).u(0, 1).u(0, 2)       // ref idx defaults, weighted prediction
	w.se(0).se(0).se(0)                 // qp, qs, chroma offset
	w.u(1, 1).u(0, 1).u(0, 1)
	return w.trailing().bytes()
}

func testIdrSlice() []byte {
	w := &bitWriter{}
	w.u(0x65, 8)
	w.ue(0).ue(7).ue(0) // first_mb_in_slice, slice_type I, pps id
	w.u(0, 4)           // frame_num
	w.ue(0)             // idr_pic_id
	w.u(0, 6)           // pic_order_cnt_lsb
	w.u(0, 1).u(0, 1)   // dec_ref_pic_marking
	w.se(-2)            // slice_qp_delta
	w.ue(0).se(0).se(0) // deblocking
	w.u(0xb5, 8)        // slice_data
	return w.trailing().bytes()
}

func testPSlice() []byte {
	w := &bitWriter{}
	w.u(0x41, 8)
	w.ue(0).ue(5).ue(0)
	w.u(1, 4).u(2, 6)
	w.u(1, 1).ue(1)             // num_ref_idx_active_override_flag
	w.u(1, 1).ue(0).ue(0).ue(3) // ref_pic_list_modification_flag_l0
	w.u(1, 1).ue(1).ue(0).ue(0) // adaptive_ref_pic_marking_mode_flag
	w.ue(0).se(0).ue(1)         // cabac_init_idc, qp delta, deblocking off
	w.u(0xa5, 8)
	return w.trailing().bytes()
}

func mustDecodeSps(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(testSps)
	require.NoError(t, err)
	return data
}

func TestParseNAL_Sequence(t *testing.T) {
	var st State
	unit, _, err := ParseNAL(mustDecodeSps(t), &st)
	require.NoError(t, err)
	require.NotNil(t, unit.SPS)
	assert.Same(t, unit.SPS, st.SPS[0])

	unit, tree, err := ParseNAL(testPPS(), &st)
	require.NoError(t, err)
	require.NotNil(t, unit.PPS)
	assert.True(t, unit.PPS.EntropyCodingModeFlag)
	assert.False(t, unit.PPS.Transform8x8ModeFlag)
	assert.Nil(t, tree.Get("nal_unit.pic_parameter_set.transform_8x8_mode_flag"))
	n := tree.Get("nal_unit.pic_parameter_set.pic_parameter_set_id")
	require.NotNil(t, n)
	assert.Equal(t, bits.Range{Start: 8, End: 9}, n.Range)
	assertClosed(t, tree)

	unit, tree, err = ParseNAL(testIdrSlice(), &st)
	require.NoError(t, err)
	require.NotNil(t, unit.Slice)
	assert.Equal(t, uint8(SliceI), unit.Slice.Type())
	assert.Equal(t, int32(-2), unit.Slice.SliceQpDelta)
	assert.NotNil(t, tree.Get("nal_unit.slice_header.dec_ref_pic_marking.long_term_reference_flag"))
	assert.NotNil(t, tree.Get("nal_unit.slice_header.slice_beta_offset_div2"))
	assert.NotNil(t, tree.Get("nal_unit.slice_data"))
	assert.Nil(t, tree.Get("nal_unit.slice_header.cabac_init_idc"))
	assertClosed(t, tree)

	unit, tree, err = ParseNAL(testPSlice(), &st)
	require.NoError(t, err)
	require.NotNil(t, unit.Slice)
	assert.Equal(t, uint8(SliceP), unit.Slice.Type())
	assert.Equal(t, uint32(1), unit.Slice.FrameNum)
	assert.Equal(t, uint32(2), unit.Slice.PicOrderCntLsb)
	assert.Equal(t, uint8(1), unit.Slice.NumRefIdxL0ActiveMinus1)
	assert.Equal(t, uint8(1), unit.Slice.DisableDeblockingFilterIdc)

	idc := tree.Get("nal_unit.slice_header.ref_pic_list_modification.modification_of_pic_nums_idc[1]")
	require.NotNil(t, idc)
	assert.Equal(t, "3", idc.Value)
	mmco := tree.Get("nal_unit.slice_header.dec_ref_pic_marking.memory_management_control_operation[1]")
	require.NotNil(t, mmco)
	assert.Equal(t, "0", mmco.Value)
	assert.Nil(t, tree.Get("nal_unit.slice_header.slice_alpha_c0_offset_div2"))
	assertClosed(t, tree)
}

func TestParseNAL_SliceWithoutParameterSets(t *testing.T) {
	var st State
	_, _, err := ParseNAL(testIdrSlice(), &st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bits.ErrInvalidData))

	var perr *syntax.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "pic_parameter_set_id", perr.Field)
	assert.NotNil(t, perr.Partial.Get("nal_unit.slice_header.slice_type"))
	assertClosed(t, perr.Partial)
}

func TestParseNAL_ForbiddenBit(t *testing.T) {
	var st State
	_, _, err := ParseNAL([]byte{0xe7, 0x00}, &st)
	require.Error(t, err)
	var perr *syntax.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "forbidden_zero_bit", perr.Field)
}

func TestParseNAL_Opaque(t *testing.T) {
	var st State
	unit, tree, err := ParseNAL([]byte{0x06, 0x05, 0x10, 0x80}, &st)
	require.NoError(t, err)
	assert.Equal(t, uint8(NalSei), unit.Header.Type)
	n := tree.Get("nal_unit.sei")
	require.NotNil(t, n)
	assert.Equal(t, bits.Range{Start: 8, End: 32}, n.Range)
	assert.Equal(t, "skipped(24)", n.Value)
}
