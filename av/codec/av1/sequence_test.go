// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package av1

import (
	"errors"
	"strings"
	"testing"

	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bitWriter struct {
	strings.Builder
}

func (w *bitWriter) u(v uint64, n int) *bitWriter {
	for i := n - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			w.WriteByte('1')
		} else {
			w.WriteByte('0')
		}
	}
	return w
}

func (w *bitWriter) bytes(pad int) []byte {
	s := w.String()
	buf := make([]byte, (len(s)+7)/8+pad)
	for i, c := range s {
		if c == '1' {
			buf[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	return buf
}

func TestParseSequenceHeader_Reduced(t *testing.T) {
	data := []byte{0x19, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	sh, tree, err := ParseSequenceHeader(data)
	require.NoError(t, err)

	tests := []struct {
		path  string
		rg    bits.Range
		value string
	}{
		{"sequence_header.seq_profile", bits.Range{Start: 0, End: 3}, "0"},
		{"sequence_header.still_picture", bits.Range{Start: 3, End: 4}, "1"},
		{"sequence_header.reduced_still_picture_header", bits.Range{Start: 4, End: 5}, "1"},
		{"sequence_header.seq_level_idx", bits.Range{Start: 5, End: 10}, "4"},
		{"sequence_header.max_frame_width_minus_1", bits.Range{Start: 18, End: 19}, "0"},
	}
	for _, tt := range tests {
		n := tree.Get(tt.path)
		require.NotNil(t, n, tt.path)
		assert.Equal(t, tt.rg, n.Range, tt.path)
		assert.Equal(t, tt.value, n.Value, tt.path)
	}

	assert.True(t, sh.StillPicture)
	assert.Nil(t, tree.Get("sequence_header.timing_info_present_flag"))
	assert.Nil(t, tree.Get("sequence_header.frame_id_numbers_present_flag"))
	assert.Equal(t, uint8(selectScreenContentTools), sh.SeqForceScreenContentTools)
	assert.Equal(t, 1, sh.Width())
	assert.Equal(t, 8, sh.ColorConfig.BitDepth)
	assertClosed(t, tree)
}

func fullSequenceHeader() *bitWriter {
	w := &bitWriter{}
	w.u(0, 3).u(0, 1).u(0, 1) // profile, still, reduced
	w.u(1, 1)                  // timing_info_present_flag
	w.u(1001, 32).u(60000, 32).u(1, 1).u(1, 1)
	w.u(1, 1) // decoder_model_info_present_flag
	w.u(9, 5).u(1001, 32).u(4, 5).u(4, 5)
	w.u(0, 1) // initial_display_delay_present_flag
	w.u(1, 5) // operating_points_cnt_minus_1
	// operating_points[0]
	w.u(0x101, 12).u(8, 5).u(1, 1).u(1, 1).u(500, 10).u(600, 10).u(0, 1)
	// operating_points[1]
	w.u(0, 12).u(4, 5).u(0, 1)
	w.u(10, 4).u(9, 4).u(1919, 11).u(1079, 10)
	w.u(1, 1).u(5, 4).u(2, 3) // frame id numbers
	w.u(0, 1).u(1, 1).u(1, 1)
	w.u(1, 1).u(1, 1).u(1, 1).u(1, 1).u(1, 1).u(1, 1).u(1, 1) // compound tools, order hint
	w.u(1, 1).u(1, 1)                                         // choose screen content tools, integer mv
	w.u(6, 3)                                                 // order_hint_bits_minus_1
	w.u(0, 1).u(1, 1).u(1, 1)
	// color_config
	w.u(0, 1).u(0, 1).u(1, 1).u(1, 8).u(1, 8).u(1, 8).u(1, 1).u(0, 2).u(0, 1)
	w.u(0, 1) // film_grain_params_present
	return w
}

func TestParseSequenceHeader_Full(t *testing.T) {
	w := fullSequenceHeader()
	w.u(1, 1) // trailing one bit
	sh, tree, err := ParseSequenceHeader(w.bytes(0))
	require.NoError(t, err)

	assert.Equal(t, 1920, sh.Width())
	assert.Equal(t, 1080, sh.Height())
	assert.InDelta(t, 60000.0/1001.0, sh.FrameRate(), 1e-9)
	require.Len(t, sh.OperatingPoints, 2)
	assert.Equal(t, uint8(1), sh.OperatingPoints[0].SeqTier)
	assert.Equal(t, uint32(500), sh.OperatingPoints[0].DecoderBufferDelay)
	assert.Equal(t, uint32(600), sh.OperatingPoints[0].EncoderBufferDelay)
	assert.False(t, sh.OperatingPoints[1].DecoderModelPresent)
	assert.Equal(t, 7, sh.OrderHintBits)
	assert.Equal(t, uint8(selectIntegerMV), sh.SeqForceIntegerMV)
	assert.True(t, sh.ColorConfig.SubsamplingX && sh.ColorConfig.SubsamplingY)

	assert.Equal(t, bits.Range{Start: 192, End: 203}, tree.Get("sequence_header.max_frame_width_minus_1").Range)
	assert.Equal(t, "60000", tree.Get("sequence_header.timing_info.time_scale").Value)
	assert.Equal(t, "600", tree.Get("sequence_header.operating_points[0].operating_parameters_info.encoder_buffer_delay").Value)
	assert.Equal(t, "4", tree.Get("sequence_header.operating_points[1].seq_level_idx").Value)
	assert.Nil(t, tree.Get("sequence_header.operating_points[1].seq_tier"))
	assert.Nil(t, tree.Get("sequence_header.operating_points[2]"))
	assertClosed(t, tree)

	vm := Describe(sh)
	assert.Equal(t, "av1", vm.Codec)
	assert.Equal(t, 8, vm.Level)
	assert.True(t, vm.FixedFrameRate)
}

func TestParseSequenceHeader_Truncated(t *testing.T) {
	data := fullSequenceHeader().bytes(0)[:21]
	_, _, err := ParseSequenceHeader(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bits.ErrUnexpectedEnd))

	var perr *syntax.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "operating_point_idc", perr.Field)
	assert.Equal(t, 166, perr.BitOffset)
	assert.NotNil(t, perr.Partial.Get("sequence_header.operating_points[0].seq_tier"))
	assertClosed(t, perr.Partial)
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
