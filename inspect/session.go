// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"fmt"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/av/codec/av1"
	"github.com/cnotch/bitprobe/av/codec/h264"
	"github.com/cnotch/bitprobe/av/codec/hevc"
	"github.com/cnotch/bitprobe/av/codec/vp9"
	"github.com/cnotch/bitprobe/stats"
	"github.com/cnotch/bitprobe/syntax"
	"github.com/pkg/errors"
)

// Session parses the units of one stream in order. Parameter sets,
// sequence headers and reference frame sizes decoded from earlier units are
// kept for later ones.
// A Session is not safe for concurrent use.
type Session struct {
	// MaxUnitSize rejects larger units without parsing them; 0 means no limit.
	MaxUnitSize int

	id    ID
	codec codec.Type
	next  int // index of the next unit
	meta  *codec.VideoMeta

	h264 h264.State
	hevc hevc.State
	av1  av1.State
	vp9  vp9.State
}

// NewSession creates a session for one stream of the given codec.
func NewSession(ct codec.Type) (*Session, error) {
	switch ct {
	case codec.AV1, codec.H264, codec.HEVC, codec.VP9:
	default:
		return nil, errors.Wrapf(ErrUnsupportedCodec, "%q", ct.String())
	}
	return &Session{id: NewID(), codec: ct}, nil
}

// ID returns the session id.
func (s *Session) ID() ID { return s.id }

// Codec returns the codec of the stream.
func (s *Session) Codec() codec.Type { return s.codec }

// Meta returns the summary of the last sequence-level header, or nil.
func (s *Session) Meta() *codec.VideoMeta { return s.meta }

// Parse parses one unit. A unit that fails yields a Result carrying an
// ErrorInfo; the session stays usable for the next unit.
func (s *Session) Parse(u Unit) *Result {
	res := &Result{
		ID:     fmt.Sprintf("%s.%d", s.id, u.Index),
		Codec:  s.codec,
		Index:  u.Index,
		Offset: u.Offset,
		Size:   len(u.Data),
	}
	if u.Index >= s.next {
		s.next = u.Index + 1
	}

	if s.MaxUnitSize > 0 && len(u.Data) > s.MaxUnitSize {
		res.Error = &ErrorInfo{
			Code:  CodeTooLarge,
			Cause: fmt.Sprintf("unit of %d bytes exceeds the limit of %d", len(u.Data), s.MaxUnitSize),
		}
		stats.Units.Add(len(u.Data), 0, true)
		return res
	}

	root := syntax.Index("unit", u.Index)
	var err error
	switch s.codec {
	case codec.H264:
		res.Tree, err = s.parseH264(root, u.Data, res)
	case codec.HEVC:
		res.Tree, err = s.parseHEVC(root, u.Data, res)
	case codec.AV1:
		res.Tree, err = s.parseAV1(root, u.Data, res)
	case codec.VP9:
		res.Tree, err = s.parseVP9(root, u.Data, res)
	}
	if err != nil {
		res.Tree = nil
		res.Error = newErrorInfo(err)
	}

	stats.Units.Add(len(u.Data), res.Bits(), res.Failed())
	return res
}

// ParseAll splits data into units and parses them in order. Framing errors
// do not stop the parse: the unsplit remainder is parsed as a last unit and
// reports its own failure.
func (s *Session) ParseAll(data []byte) []*Result {
	units, _ := Split(s.codec, data)
	results := make([]*Result, 0, len(units))
	base := s.next
	for _, u := range units {
		u.Index += base
		results = append(results, s.Parse(u))
	}
	return results
}

func (s *Session) parseH264(root string, data []byte, res *Result) (*syntax.Tree, error) {
	var nal h264.NAL
	tree, err := syntax.ParseRBSP(data, root, func(rec *syntax.Recorder) {
		nal = h264.DecodeNAL(rec, &s.h264)
	})
	res.Kind = h264.NalTypeName(nal.Header.Type)
	if nal.SPS != nil {
		s.describe(h264.Describe(nal.SPS), res)
	}
	return tree, err
}

func (s *Session) parseHEVC(root string, data []byte, res *Result) (*syntax.Tree, error) {
	var nal hevc.NAL
	tree, err := syntax.ParseRBSP(data, root, func(rec *syntax.Recorder) {
		nal = hevc.DecodeNAL(rec, &s.hevc)
	})
	res.Kind = hevc.NalTypeName(nal.Header.Type)
	if nal.SPS != nil {
		s.describe(hevc.Describe(nal.SPS), res)
	}
	return tree, err
}

func (s *Session) parseAV1(root string, data []byte, res *Result) (*syntax.Tree, error) {
	var obu av1.OBU
	tree, err := syntax.Parse(data, root, func(rec *syntax.Recorder) {
		obu = av1.DecodeOBU(rec, &s.av1)
	})
	res.Kind = av1.OBUTypeName(obu.Header.Type)
	if err == nil && obu.Header.Type == av1.OBUSequenceHeader && s.av1.SequenceHeader != nil {
		s.describe(av1.Describe(s.av1.SequenceHeader), res)
	}
	return tree, err
}

func (s *Session) parseVP9(root string, data []byte, res *Result) (*syntax.Tree, error) {
	var h *vp9.FrameHeader
	tree, err := syntax.Parse(data, root, func(rec *syntax.Recorder) {
		h = vp9.DecodeFrame(rec, &s.vp9)
	})
	if h == nil {
		return tree, err
	}
	res.Kind = vp9FrameKind(h)
	if err == nil && !h.ShowExistingFrame && h.FrameIsIntra() {
		s.describe(vp9.Describe(h), res)
	}
	return tree, err
}

func (s *Session) describe(vm codec.VideoMeta, res *Result) {
	s.meta = &vm
	res.Meta = &vm
}

func vp9FrameKind(h *vp9.FrameHeader) string {
	switch {
	case h.ShowExistingFrame:
		return "show_existing_frame"
	case h.FrameType == vp9.KeyFrame:
		return "key_frame"
	case h.IntraOnly:
		return "intra_only_frame"
	default:
		return "inter_frame"
	}
}
