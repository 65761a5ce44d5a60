// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"github.com/pkg/errors"
)

// HEVC RTP 载荷类型
const (
	h265Ap = 48 // 聚合包
	h265Fu = 49 // 分片包
)

type h265Depacketizer struct {
	fu fragments
}

/*
 * payload header
 *
 *    0                   1
 *    0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5
 *   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
 *   |F|   Type    |  LayerId  | TID |
 *   +-------------+-----------------+
 *
 * FU header
 *
 *     0 1 2 3 4 5 6 7
 *    +-+-+-+-+-+-+-+-+
 *    |S|E|  FuType   |
 *    +---------------+
 */
func (dp *h265Depacketizer) Depacketize(packet *Packet) ([][]byte, error) {
	payload := packet.Payload()
	if len(payload) < 3 {
		return nil, errors.Wrapf(ErrInvalidPacket, "payload of %d bytes", len(payload))
	}

	naluType := (payload[0] >> 1) & 0x3f
	switch {
	case naluType < h265Ap:
		unit := make([]byte, len(payload))
		copy(unit, payload)
		return [][]byte{unit}, nil
	case naluType == h265Ap:
		return splitAggregate(payload[2:])
	case naluType == h265Fu:
		return dp.depacketizeFu(packet, payload)
	default:
		return nil, errors.Wrapf(ErrInvalidPacket, "payload type %d is not handled", naluType)
	}
}

func (dp *h265Depacketizer) depacketizeFu(packet *Packet, payload []byte) ([][]byte, error) {
	fuHeader := payload[2]
	if fuHeader&0x80 != 0 { // 第一个分片包
		header := []byte{payload[0]&0x81 | (fuHeader&0x3f)<<1, payload[1]}
		dp.fu.start(header, packet.SequenceNumber-1)
	}
	if !dp.fu.add(payload[3:], packet.SequenceNumber) {
		return nil, errors.Wrapf(ErrFragmentLost, "FU at sequence %d", packet.SequenceNumber)
	}

	if fuHeader&0x40 != 0 { // 最后一个片段
		return [][]byte{dp.fu.finish()}, nil
	}
	return nil, nil
}
