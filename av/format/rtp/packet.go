// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pion/rtp"
	"github.com/pkg/errors"
)

const (
	// TransferPrefix RTP 包网络传输时的前缀
	TransferPrefix = byte(0x24) // $
)

var (
	// ErrInvalidPacket is returned for framing or header errors.
	ErrInvalidPacket = errors.New("rtp: invalid packet")
	// ErrFragmentLost is returned when a fragmented unit misses a packet.
	ErrFragmentLost = errors.New("rtp: fragment lost")
)

// Packet RTP 数据包
type Packet struct {
	Channel    byte   // 通道
	Data       []byte // 数据
	rtp.Header        // 偶数通道的 RTP 头
}

// IsControl reports whether the packet was sent on an RTCP channel.
// RTSP interleaves RTP on even channels and RTCP on the next odd one.
func (p *Packet) IsControl() bool {
	return p.Channel&1 == 1
}

// ReadPacket 从 r 中读取一个 '$' 前缀的交织包.
// Packets on RTCP channels are returned without a parsed header.
func ReadPacket(r *bufio.Reader) (*Packet, error) {
	var prefix [4]byte
	// 读前缀4字节
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	if prefix[0] != TransferPrefix {
		return nil, errors.Wrapf(ErrInvalidPacket, "interleaved frame starts with 0x%02x, not '$'", prefix[0])
	}

	p := &Packet{Channel: prefix[1]}
	rtpLen := int(binary.BigEndian.Uint16(prefix[2:]))

	// 读取包数据
	p.Data = make([]byte, rtpLen)
	if _, err := io.ReadFull(r, p.Data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if !p.IsControl() {
		if err := p.Header.Unmarshal(p.Data); err != nil {
			return nil, errors.Wrapf(ErrInvalidPacket, "channel %d: %v", p.Channel, err)
		}
	}
	return p, nil
}

// Write 将包按交织格式输出到 w
func (p *Packet) Write(w io.Writer) error {
	if len(p.Data) > 0xffff {
		return errors.Wrapf(ErrInvalidPacket, "%d bytes do not fit an interleaved frame", len(p.Data))
	}

	var prefix [4]byte
	prefix[0] = TransferPrefix // 起始字节
	prefix[1] = p.Channel
	binary.BigEndian.PutUint16(prefix[2:], uint16(len(p.Data)))

	// 写前4个字节
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}

	// 写包数据部分
	_, err := w.Write(p.Data)
	return err
}

// Size 包在交织传输中的总大小
func (p *Packet) Size() int {
	return len(p.Data) + 4
}

// Payload 数据包中实际的载荷，不含填充
// 如果是控制通道，返回nil
func (p *Packet) Payload() []byte {
	if p.IsControl() || p.PayloadOffset > len(p.Data) {
		return nil
	}
	payload := p.Data[p.PayloadOffset:]
	if p.Padding && len(payload) > 0 {
		pad := int(payload[len(payload)-1])
		if pad > len(payload) {
			return nil
		}
		payload = payload[:len(payload)-pad]
	}
	return payload
}
