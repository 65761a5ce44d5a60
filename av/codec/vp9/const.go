// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vp9

// frame_type
const (
	KeyFrame    = 0
	NonKeyFrame = 1
)

// color_space
const (
	CSUnknown  = 0
	CSBT601    = 1
	CSBT709    = 2
	CSSMPTE170 = 3
	CSSMPTE240 = 4
	CSBT2020   = 5
	CSReserved = 6
	CSRGB      = 7
)

// interpolation_filter
const (
	FilterEightTapSmooth = 0
	FilterEightTap       = 1
	FilterEightTapSharp  = 2
	FilterBilinear       = 3
	FilterSwitchable     = 4
)

// 语法限制
const (
	FrameMarker       = 2
	NumRefFrames      = 8
	RefsPerFrame      = 3
	MaxSegments       = 8
	SegLvlMax         = 4
	MaxLoopFilter     = 63
	MinTileWidthB64   = 4
	MaxTileWidthB64   = 64
	MaxProb           = 255
	SyncCode          = 0x498342
	superframeMarker  = 0xc0
	superframeMaxSize = 8
)

var (
	segmentationFeatureBits   = [SegLvlMax]int{8, 6, 2, 0}
	segmentationFeatureSigned = [SegLvlMax]bool{true, true, false, false}

	// literal_to_type
	literalToType = [4]uint8{FilterEightTapSharp, FilterEightTap, FilterEightTapSmooth, FilterBilinear}
)

// ColorSpaceName returns the name of a color_space value.
func ColorSpaceName(cs uint8) string {
	switch cs {
	case CSUnknown:
		return "unknown"
	case CSBT601:
		return "bt601"
	case CSBT709:
		return "bt709"
	case CSSMPTE170:
		return "smpte170"
	case CSSMPTE240:
		return "smpte240"
	case CSBT2020:
		return "bt2020"
	case CSRGB:
		return "rgb"
	default:
		return "reserved"
	}
}
