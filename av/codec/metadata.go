// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

// VideoMeta 视频元数据, summarized from a parsed sequence-level header.
type VideoMeta struct {
	Codec          string  `json:"codec"`
	Profile        int     `json:"profile"`
	Level          int     `json:"level,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	BitDepth       int     `json:"bitdepth,omitempty"`
	FixedFrameRate bool    `json:"fixedframerate,omitempty"`
	FrameRate      float64 `json:"framerate,omitempty"`
}
