// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vp9

import (
	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// RefFrame is what the header parser needs to know about one reference slot.
type RefFrame struct {
	Width  int
	Height int
}

// State carries what one frame leaves behind for the next.
type State struct {
	Refs        [NumRefFrames]RefFrame
	ColorConfig ColorConfig
	RefDeltas   [4]int8
	ModeDeltas  [2]int8
}

func (st *State) update(h *FrameHeader) {
	if h.ShowExistingFrame {
		return
	}
	for i := 0; i < NumRefFrames; i++ {
		if h.RefreshFrameFlags&(1<<uint(i)) != 0 {
			st.Refs[i] = RefFrame{Width: h.Width, Height: h.Height}
		}
	}
	if h.FrameIsIntra() {
		st.ColorConfig = h.ColorConfig
	}
	st.RefDeltas = h.LoopFilter.RefDeltas
	st.ModeDeltas = h.LoopFilter.ModeDeltas
}

// DecodeFrame records one frame: the uncompressed header field by field,
// then the compressed header and the tile data as skipped fields.
func DecodeFrame(rec *syntax.Recorder, st *State) *FrameHeader {
	h := &FrameHeader{}
	rec.Container("uncompressed_header", func() { h.Decode(rec, st) })
	if rec.Failed() {
		return h
	}

	rec.Align("trailing_bits")
	if h.ShowExistingFrame {
		rec.SkipToEnd("padding")
		return h
	}

	size := int(h.HeaderSizeInBytes) * 8
	if size > rec.BitsLeft() {
		rec.Failf("compressed_header", "header_size_in_bytes %d exceeds the %d bytes left", h.HeaderSizeInBytes, rec.BitsLeft()/8)
		return h
	}
	rec.Skip("compressed_header", size)
	rec.SkipToEnd("tile_data")
	if !rec.Failed() {
		st.update(h)
	}
	return h
}

// ParseFrame parses one frame. st is updated only when the frame parses.
func ParseFrame(data []byte, st *State) (*FrameHeader, *syntax.Tree, error) {
	var h *FrameHeader
	tree, err := syntax.Parse(data, "frame", func(rec *syntax.Recorder) {
		h = DecodeFrame(rec, st)
	})
	return h, tree, err
}

// SplitSuperframe splits a superframe into its frames using the trailing
// superframe index. Data without an index is returned as one frame.
func SplitSuperframe(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	marker := data[len(data)-1]
	if marker&0xe0 != superframeMarker {
		return [][]byte{data}, nil
	}
	frames := int(marker&0x7) + 1
	mag := int((marker>>3)&0x3) + 1
	indexSize := 2 + mag*frames
	if len(data) < indexSize || data[len(data)-indexSize] != marker {
		return [][]byte{data}, nil
	}

	r := bits.NewReader(data[len(data)-indexSize+1:])
	payload := data[:len(data)-indexSize]
	out := make([][]byte, 0, frames)
	for i := 0; i < frames; i++ {
		size, _, err := r.ReadLe(mag)
		if err != nil {
			return out, errors.Wrap(err, "superframe index")
		}
		if int(size) > len(payload) {
			return out, errors.Wrapf(bits.ErrUnexpectedEnd, "frame %d of %d bytes, %d left", i, size, len(payload))
		}
		if size > 0 {
			out = append(out, payload[:size])
		}
		payload = payload[size:]
	}
	return out, nil
}
