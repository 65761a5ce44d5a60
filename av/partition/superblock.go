// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// MaxFrameDimension is the largest frame width or height accepted by
// ParseFrame, the 16-bit limit of frame_width_minus_1.
const MaxFrameDimension = 1 << 16

// ParseFrame decodes the partition trees of every superblock of a frame in
// raster order. sb must be Block64x64 or Block128x128.
func ParseFrame(src SymbolSource, frameWidth, frameHeight int, sb BlockSize) ([]*Node, error) {
	p := Parser{Source: src}
	return p.ParseFrame(frameWidth, frameHeight, sb)
}

// ParseFrame is the package level ParseFrame with the parser's source and
// depth ceiling. The frame itself is the boundary; p.Boundary is left as is.
func (p *Parser) ParseFrame(frameWidth, frameHeight int, sb BlockSize) ([]*Node, error) {
	if sb != Block64x64 && sb != Block128x128 {
		return nil, errors.Wrapf(bits.ErrInvalidArgument, "superblock size %s", sb)
	}
	if frameWidth <= 0 || frameHeight <= 0 ||
		frameWidth > MaxFrameDimension || frameHeight > MaxFrameDimension {
		return nil, errors.Wrapf(bits.ErrInvalidArgument, "frame size %dx%d, want 1..%d", frameWidth, frameHeight, MaxFrameDimension)
	}

	fb := FrameBoundary{Width: frameWidth, Height: frameHeight}
	q := *p
	q.Boundary = fb
	step := sb.Width()
	roots := make([]*Node, 0, SuperblockCount(frameWidth, frameHeight, sb))
	for y := 0; y < frameHeight; y += step {
		for x := 0; x < frameWidth; x += step {
			hasRows, hasCols := fb.Flags(x, y, sb)
			root, err := q.Parse(x, y, sb, hasRows, hasCols)
			if err != nil {
				return nil, errors.WithMessagef(err, "superblock (%d,%d)", x, y)
			}
			roots = append(roots, root)
		}
	}
	return roots, nil
}

// SuperblockCount returns the number of superblocks covering a frame, or 0
// when either dimension is outside 1..MaxFrameDimension.
func SuperblockCount(frameWidth, frameHeight int, sb BlockSize) int {
	w, h := sb.Width(), sb.Height()
	if w == 0 || h == 0 || frameWidth <= 0 || frameHeight <= 0 ||
		frameWidth > MaxFrameDimension || frameHeight > MaxFrameDimension {
		return 0
	}
	return ((frameWidth + w - 1) / w) * ((frameHeight + h - 1) / h)
}
