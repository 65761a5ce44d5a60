// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hevc

import (
	"encoding/base64"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/syntax"
)

// Describe summarizes a sequence parameter set.
func Describe(sps *SPS) codec.VideoMeta {
	return codec.VideoMeta{
		Codec:          codec.HEVC.String(),
		Profile:        int(sps.ProfileTierLevel.General.Idc),
		Level:          int(sps.ProfileTierLevel.LevelIdc),
		Width:          sps.Width(),
		Height:         sps.Height(),
		BitDepth:       sps.BitDepth(),
		FixedFrameRate: sps.IsFixedFrameRate(),
		FrameRate:      sps.FrameRate(),
	}
}

// ParseVPSBase64 parses a base64 encoded VPS, as carried by sprop-vps.
func ParseVPSBase64(b64 string) (*VPS, *syntax.Tree, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, err
	}
	return ParseVPS(data)
}

// ParseSPSBase64 parses a base64 encoded SPS, as carried by sprop-sps.
func ParseSPSBase64(b64 string) (*SPS, *syntax.Tree, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, err
	}
	return ParseSPS(data)
}

// NalType .
func NalType(nt byte) byte {
	return (nt >> 1) & 0x3f
}
