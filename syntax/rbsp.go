// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"github.com/cnotch/bitprobe/utils"
	"github.com/pkg/errors"
)

// ParseRBSP removes the emulation prevention bytes of an H.264/H.265 NAL
// unit, runs fn over the RBSP and reports every position against the
// escaped unit, so that ranges line up with the bytes a hex view shows.
// A leading start code is dropped and positions start after it.
func ParseRBSP(nal []byte, root string, fn func(rec *Recorder)) (*Tree, error) {
	rbsp, em := utils.RemoveH264or5EmulationBytes(nal)
	tree, err := Parse(rbsp, root, fn)
	if len(em) == 0 {
		return tree, err
	}

	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Remap(em.RawBit)
		}
		return nil, err
	}
	return tree.Remap(em.RawBit), nil
}
