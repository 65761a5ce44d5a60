// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/cnotch/bitprobe/av/format/rtp"
	"github.com/cnotch/bitprobe/stats"
	"github.com/pkg/errors"
)

// ParseRTP parses the NAL units carried by an interleaved RTP capture, the
// '$' framing RTSP uses over TCP. Only packets of channel are read. A
// packet that cannot be depacketized yields a failed Result of its own;
// a framing error ends the parse and is returned with the results so far.
func (s *Session) ParseRTP(data []byte, channel byte) ([]*Result, error) {
	dp, err := rtp.NewDepacketizer(s.codec)
	if err != nil {
		return nil, err
	}

	var results []*Result
	r := bufio.NewReader(bytes.NewReader(data))
	offset := 0
	for {
		p, err := rtp.ReadPacket(r)
		if err == io.EOF {
			return results, nil
		}
		if err != nil {
			return results, errors.WithMessagef(err, "interleaved frame at byte %d", offset)
		}
		pktOffset := offset
		offset += p.Size()
		if p.Channel != channel {
			continue
		}

		units, err := dp.Depacketize(p)
		for _, unit := range units {
			results = append(results, s.Parse(Unit{
				Codec:  s.codec,
				Index:  s.next,
				Offset: pktOffset,
				Data:   unit,
			}))
		}
		if err != nil {
			results = append(results, s.packetFailure(pktOffset, p, err))
		}
	}
}

// packetFailure reports a packet that yielded no unit.
func (s *Session) packetFailure(offset int, p *rtp.Packet, err error) *Result {
	index := s.next
	s.next++
	stats.Units.Add(len(p.Payload()), 0, true)
	return &Result{
		ID:     fmt.Sprintf("%s.%d", s.id, index),
		Codec:  s.codec,
		Index:  index,
		Offset: offset,
		Size:   len(p.Payload()),
		Kind:   "rtp_packet",
		Error: &ErrorInfo{
			Code:  CodeInvalidData,
			Cause: fmt.Sprintf("sequence %d: %v", p.SequenceNumber, err),
		},
	}
}
