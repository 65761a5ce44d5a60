// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sdp

import (
	"encoding/base64"
	"strings"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/utils"
	"github.com/cnotch/bitprobe/utils/scan"
	"github.com/pixelbender/go-sdp/sdp"
	"github.com/pkg/errors"
)

// ErrNoParameterSets is returned when no video format carries sprop parameters.
var ErrNoParameterSets = errors.New("sdp: no parameter sets")

// ParameterSets are the out-of-band parameter set NAL units of one video
// format, in the order the fmtp line lists them.
type ParameterSets struct {
	Codec       codec.Type `json:"codec"`
	PayloadType int        `json:"payload_type"`
	ClockRate   int        `json:"clock_rate"`
	Units       [][]byte   `json:"units"`
}

// Parse extracts the H.264 sprop-parameter-sets and H.265
// sprop-vps/sps/pps of every video format in a session description.
func Parse(rawsdp string) ([]ParameterSets, error) {
	sess, err := sdp.ParseString(rawsdp)
	if err != nil {
		return nil, errors.Wrap(err, "sdp")
	}

	var sets []ParameterSets
	for _, media := range sess.Media {
		if media.Type != "video" {
			continue
		}
		for _, f := range media.Format {
			ps := ParameterSets{PayloadType: int(f.Payload), ClockRate: f.ClockRate}
			switch strings.ToLower(f.Name) {
			case "h264":
				ps.Codec = codec.H264
				err = parseH264Sprop(f.Params, &ps)
			case "h265", "hevc":
				ps.Codec = codec.HEVC
				err = parseH265Sprop(f.Params, &ps)
			default:
				continue
			}
			if err != nil {
				return sets, errors.WithMessagef(err, "payload type %d", ps.PayloadType)
			}
			if len(ps.Units) > 0 {
				sets = append(sets, ps)
			}
		}
	}

	if len(sets) == 0 {
		return nil, ErrNoParameterSets
	}
	return sets, nil
}

// fmtpValue finds name=value in the fmtp parameters.
func fmtpValue(params []string, name string) (string, bool) {
	for _, p := range params {
		if v, ok := scan.EqualPair.Lookup(p, scan.Semicolon, name); ok {
			return v, true
		}
	}
	return "", false
}

func decodeUnit(b64 string) ([]byte, error) {
	ps, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %q", b64)
	}
	return utils.RemoveNaluSeparator(ps), nil
}

func parseH264Sprop(params []string, ps *ParameterSets) error {
	value, ok := fmtpValue(params, "sprop-parameter-sets")
	if !ok {
		return nil
	}

	for _, token := range scan.Comma.Tokens(value) {
		unit, err := decodeUnit(token)
		if err != nil {
			return err
		}
		ps.Units = append(ps.Units, unit)
	}
	return nil
}

func parseH265Sprop(params []string, ps *ParameterSets) error {
	for _, name := range []string{"sprop-vps", "sprop-sps", "sprop-pps"} {
		value, ok := fmtpValue(params, name)
		if !ok {
			continue
		}
		unit, err := decodeUnit(value)
		if err != nil {
			return err
		}
		ps.Units = append(ps.Units, unit)
	}
	return nil
}
