// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/pkg/errors"
)

// H.264 RTP 载荷类型
const (
	h264StapA = 24
	h264FuA   = 28
)

type h264Depacketizer struct {
	fu fragments // FU-A 分片
}

func (dp *h264Depacketizer) Depacketize(packet *Packet) ([][]byte, error) {
	payload := packet.Payload()
	if len(payload) < 1 {
		return nil, errors.Wrap(ErrInvalidPacket, "empty payload")
	}

	// +---------------+
	// |0|1|2|3|4|5|6|7|
	// +-+-+-+-+-+-+-+-+
	// |F|NRI|  Type   |
	// +---------------+
	naluType := payload[0] & 0x1f

	switch {
	case naluType > 0 && naluType < h264StapA:
		// 原生 nal 包
		unit := make([]byte, len(payload))
		copy(unit, payload)
		return [][]byte{unit}, nil
	case naluType == h264StapA:
		return splitAggregate(payload[1:])
	case naluType == h264FuA:
		return dp.depacketizeFuA(packet, payload)
	default:
		return nil, errors.Wrapf(ErrInvalidPacket, "payload type %d is not handled", naluType)
	}
}

func (dp *h264Depacketizer) depacketizeFuA(packet *Packet, payload []byte) ([][]byte, error) {
	if len(payload) < 2 {
		return nil, errors.Wrap(ErrInvalidPacket, "FU-A without a header")
	}

	// +---------------+
	// |0|1|2|3|4|5|6|7|
	// +-+-+-+-+-+-+-+-+
	// |S|E|R|  Type   |
	// +---------------+
	indicator, fuHeader := payload[0], payload[1]
	if fuHeader&0x80 != 0 { // 第一个分片包
		dp.fu.start([]byte{indicator&0xe0 | fuHeader&0x1f}, packet.SequenceNumber-1)
	}
	if !dp.fu.add(payload[2:], packet.SequenceNumber) {
		return nil, errors.Wrapf(ErrFragmentLost, "FU-A at sequence %d", packet.SequenceNumber)
	}

	if fuHeader&0x40 != 0 { // 最后一个片段
		return [][]byte{dp.fu.finish()}, nil
	}
	return nil, nil
}
