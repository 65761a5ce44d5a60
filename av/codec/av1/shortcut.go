// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package av1

import "github.com/cnotch/bitprobe/av/codec"

// Describe summarizes a sequence header.
func Describe(sh *SequenceHeader) codec.VideoMeta {
	vm := codec.VideoMeta{
		Codec:    codec.AV1.String(),
		Profile:  int(sh.SeqProfile),
		Width:    sh.Width(),
		Height:   sh.Height(),
		BitDepth: sh.ColorConfig.BitDepth,
	}
	if len(sh.OperatingPoints) > 0 {
		vm.Level = int(sh.OperatingPoints[0].SeqLevelIdx)
	}
	if fr := sh.FrameRate(); fr > 0 {
		vm.FixedFrameRate = true
		vm.FrameRate = fr
	}
	return vm
}
