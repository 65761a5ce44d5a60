// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vp9

import "github.com/cnotch/bitprobe/av/codec"

// Describe summarizes a frame header.
func Describe(h *FrameHeader) codec.VideoMeta {
	return codec.VideoMeta{
		Codec:    codec.VP9.String(),
		Profile:  int(h.Profile),
		Width:    h.Width,
		Height:   h.Height,
		BitDepth: h.ColorConfig.BitDepth,
	}
}

// IsKeyFrame reports whether data starts a key frame without decoding it.
func IsKeyFrame(data []byte) bool {
	if len(data) < 1 || data[0]>>6 != FrameMarker {
		return false
	}
	profile := (data[0]>>5)&1 | (data[0]>>3)&2
	shift := uint(3)
	if profile == 3 {
		shift = 2
	}
	if (data[0]>>shift)&1 != 0 {
		return false
	}
	return (data[0]>>(shift-1))&1 == KeyFrame
}
