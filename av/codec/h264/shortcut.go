// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import (
	"encoding/base64"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/syntax"
)

// Describe summarizes a sequence parameter set.
func Describe(sps *SPS) codec.VideoMeta {
	return codec.VideoMeta{
		Codec:          codec.H264.String(),
		Profile:        int(sps.ProfileIdc),
		Level:          int(sps.LevelIdc),
		Width:          sps.Width(),
		Height:         sps.Height(),
		BitDepth:       sps.BitDepth(),
		FixedFrameRate: sps.IsFixedFrameRate(),
		FrameRate:      sps.FrameRate(),
	}
}

// ParseSPSBase64 parses a base64 encoded SPS, as carried by sprop-parameter-sets.
func ParseSPSBase64(b64 string) (*SPS, *syntax.Tree, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, err
	}
	return ParseSPS(data)
}

// NalType .
func NalType(nt byte) byte {
	return nt & NalTypeBitmask
}

// IsSps .
func IsSps(nt byte) bool {
	return nt&NalTypeBitmask == NalSps
}

// IsPps .
func IsPps(nt byte) bool {
	return nt&NalTypeBitmask == NalPps
}

// IsIdrSlice .
func IsIdrSlice(nt byte) bool {
	return nt&NalTypeBitmask == NalIdrSlice
}
