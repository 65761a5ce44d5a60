// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/av/codec/av1"
	"github.com/cnotch/bitprobe/av/codec/vp9"
	"github.com/cnotch/bitprobe/utils"
	"github.com/pkg/errors"
)

// ErrUnsupportedCodec is returned for a codec without a grammar.
var ErrUnsupportedCodec = errors.New("inspect: unsupported codec")

// Unit is one independently parseable piece of a stream: a NAL unit
// without start code, an OBU or a VP9 frame.
type Unit struct {
	Codec  codec.Type
	Index  int // position in the stream
	Offset int // byte offset of Data in the submitted buffer
	Data   []byte
}

// Split cuts data into units. Annex B start codes delimit H.264/HEVC NAL
// units, obu_size delimits AV1 OBUs and the superframe index delimits VP9
// frames.
// When the framing breaks part way, the units found so far are returned
// together with the remainder as a last unit, so that its parse reports
// where the stream went wrong.
func Split(ct codec.Type, data []byte) ([]Unit, error) {
	var (
		parts [][]byte
		err   error
	)
	switch ct {
	case codec.H264, codec.HEVC:
		parts = utils.SplitAnnexB(data)
	case codec.AV1:
		parts, err = av1.SplitOBUs(data)
	case codec.VP9:
		parts, err = vp9.SplitSuperframe(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedCodec, "%q", ct.String())
	}

	units := make([]Unit, 0, len(parts)+1)
	consumed := 0
	for _, p := range parts {
		off := offsetOf(data, p)
		units = append(units, Unit{Codec: ct, Index: len(units), Offset: off, Data: p})
		consumed = off + len(p)
	}

	if err != nil {
		// AV1 leaves the unsplit tail behind the last OBU; a broken
		// superframe index is reported against the whole buffer.
		rest := data[consumed:]
		if ct == codec.VP9 {
			units, rest = units[:0], data
		}
		if len(rest) > 0 {
			units = append(units, Unit{Codec: ct, Index: len(units), Offset: len(data) - len(rest), Data: rest})
		}
		return units, errors.WithMessage(err, "split "+ct.String())
	}
	return units, nil
}

// offsetOf returns where sub starts inside data; sub must be a subslice.
func offsetOf(data, sub []byte) int {
	return cap(data) - cap(sub)
}
