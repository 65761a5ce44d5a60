// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPS_Parse(t *testing.T) {
	tests := []struct {
		name    string
		b64     string
		wantW   int
		wantH   int
		wantFR  float64
		wantErr bool
	}{
		{
			"base64_1",
			"Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==",
			1280,
			720,
			30,
			false,
		},
		{
			"base64_2",
			"Z3oAH7y0AoAt0IAAAAMAgAAAHkeMGVA=",
			1280,
			720,
			30,
			false,
		},
		{
			"base64_3",
			"Z2QAM6wspADwAQ+wFSAgICgAAB9IAAdTBO0LFok=",
			3840,
			2160,
			float64(60000) / float64(1001*2),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sps, tree, err := ParseSPSBase64(tt.b64)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, sps.Width())
			assert.Equal(t, tt.wantH, sps.Height())
			assert.Equal(t, tt.wantFR, sps.FrameRate())
			assertClosed(t, tree)
		})
	}
}

func TestSPS_Tree(t *testing.T) {
	sps, tree, err := ParseSPSBase64("Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA==")
	require.NoError(t, err)
	assert.Equal(t, uint8(100), sps.ProfileIdc)
	assert.Equal(t, uint8(31), sps.LevelIdc)
	assert.Equal(t, uint8(1), sps.ChromaFormatIdc)

	tests := []struct {
		path  string
		rg    bits.Range
		value string
	}{
		{"nal_unit.nal_unit_header.nal_unit_type", bits.Range{Start: 3, End: 8}, "7"},
		{"nal_unit.seq_parameter_set_data.profile_idc", bits.Range{Start: 8, End: 16}, "100"},
		{"nal_unit.seq_parameter_set_data.level_idc", bits.Range{Start: 24, End: 32}, "31"},
		{"nal_unit.seq_parameter_set_data.chroma_format_idc", bits.Range{Start: 33, End: 36}, "1"},
		{"nal_unit.seq_parameter_set_data.pic_width_in_mbs_minus1", bits.Range{Start: 51, End: 64}, "79"},
		{"nal_unit.seq_parameter_set_data.vui_parameters.num_units_in_tick", bits.Range{Start: 84, End: 116}, "1"},
		// time_scale straddles both emulation prevention bytes
		{"nal_unit.seq_parameter_set_data.vui_parameters.time_scale", bits.Range{Start: 124, End: 164}, "60"},
	}
	for _, tt := range tests {
		n := tree.Get(tt.path)
		require.NotNil(t, n, tt.path)
		assert.Equal(t, tt.rg, n.Range, tt.path)
		assert.Equal(t, tt.value, n.Value, tt.path)
	}

	// ranges are reported against the escaped unit
	assert.Equal(t, bits.Range{Start: 0, End: 25 * 8}, tree.Root.Range)
	assert.NotNil(t, tree.Get("nal_unit.rbsp_stop_one_bit"))

	vm := Describe(sps)
	assert.Equal(t, "h264", vm.Codec)
	assert.Equal(t, 100, vm.Profile)
	assert.Equal(t, 8, vm.BitDepth)
}

func TestSPS_Truncated(t *testing.T) {
	data := []byte{0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9, 0x40}
	_, _, err := ParseSPS(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bits.ErrUnexpectedEnd))

	var perr *syntax.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "nal_unit", perr.Unit)
	assert.Equal(t, "pic_width_in_mbs_minus1", perr.Field)
	assert.Equal(t, 51, perr.BitOffset)
	assert.NotNil(t, perr.Partial.Get("nal_unit.seq_parameter_set_data.max_num_ref_frames"))
	assertClosed(t, perr.Partial)
}

func TestSPS_ScalingList(t *testing.T) {
	w := &bitWriter{}
	w.u(0x67, 8).u(100, 8).u(0, 8).u(40, 8).ue(0)
	w.ue(1).ue(0).ue(0).u(0, 1)
	w.u(1, 1) // seq_scaling_matrix_present_flag
	w.u(1, 1) // seq_scaling_list_present_flag[0]
	// delta 8 gives nextScale 16, delta -16 gives 0 and ends the list
	w.se(8).se(-16)
	for i := 1; i < 8; i++ {
		w.u(0, 1)
	}
	w.ue(0).ue(2).ue(1).u(0, 1).ue(19).ue(14).u(1, 1).u(1, 1).u(0, 1).u(0, 1)
	w.trailing()

	sps, tree, err := ParseSPS(w.bytes())
	require.NoError(t, err)
	assert.Equal(t, 320, sps.Width())
	assert.Equal(t, 240, sps.Height())

	list := tree.Get("nal_unit.seq_parameter_set_data.scaling_list[0]")
	require.NotNil(t, list)
	assert.Len(t, list.Children, 2)
	assert.Nil(t, tree.Get("nal_unit.seq_parameter_set_data.scaling_list[1]"))
	assertClosed(t, tree)
}

func TestParseSPS_WrongType(t *testing.T) {
	_, _, err := ParseSPS([]byte{0x09, 0xf0})
	assert.True(t, errors.Is(err, bits.ErrInvalidArgument))
}

func assertClosed(t *testing.T, tree *syntax.Tree) {
	t.Helper()
	tree.Walk(func(n *syntax.Node, _ int) bool {
		if !n.IsContainer() || len(n.Children) == 0 {
			return true
		}
		union := n.Children[0].Range
		for _, c := range n.Children[1:] {
			union = union.Union(c.Range)
		}
		assert.Equal(t, union, n.Range, "container %s", n.Name)
		return true
	})
}

func TestSPS_FrameRateLargeTick(t *testing.T) {
	sps := &SPS{}
	sps.Vui.NumUnitsInTick = 0x80000000
	sps.Vui.TimeScale = 60
	fr := sps.FrameRate()
	assert.False(t, math.IsInf(fr, 0) || math.IsNaN(fr))
	assert.InDelta(t, 60.0/float64(1<<32), fr, 1e-15)

	sps.Vui.TimeScale = 0
	assert.Zero(t, sps.FrameRate())

	_, err := json.Marshal(Describe(sps))
	assert.NoError(t, err)
}
