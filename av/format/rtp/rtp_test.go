// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/cnotch/bitprobe/av/codec"
	pionrtp "github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPacket(t *testing.T, channel byte, seq uint16, payload []byte) *Packet {
	raw := pionrtp.Packet{
		Header: pionrtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      3000,
			SSRC:           0x1234,
		},
		Payload: payload,
	}
	data, err := raw.Marshal()
	require.NoError(t, err)
	p := &Packet{Channel: channel, Data: data}
	require.NoError(t, p.Header.Unmarshal(data))
	return p
}

func TestReadPacket(t *testing.T) {
	var buf bytes.Buffer
	video := newPacket(t, 0, 7, []byte{0x09, 0xf0})
	require.NoError(t, video.Write(&buf))
	rtcp := &Packet{Channel: 1, Data: []byte{0x80, 0xc8, 0x00, 0x00}}
	require.NoError(t, rtcp.Write(&buf))

	r := bufio.NewReader(&buf)
	p, err := ReadPacket(r)
	require.NoError(t, err)
	assert.Equal(t, byte(0), p.Channel)
	assert.Equal(t, uint16(7), p.SequenceNumber)
	assert.Equal(t, []byte{0x09, 0xf0}, p.Payload())
	assert.Equal(t, video.Size(), p.Size())

	p, err = ReadPacket(r)
	require.NoError(t, err)
	assert.True(t, p.IsControl())
	assert.Nil(t, p.Payload())

	_, err = ReadPacket(r)
	assert.Equal(t, io.EOF, err)
}

func TestReadPacket_Invalid(t *testing.T) {
	_, err := ReadPacket(bufio.NewReader(bytes.NewReader([]byte{'#', 0, 0, 1, 0})))
	assert.True(t, errors.Is(err, ErrInvalidPacket))

	_, err = ReadPacket(bufio.NewReader(bytes.NewReader([]byte{'$', 0, 0, 8, 0x80})))
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	// too short for an RTP header
	_, err = ReadPacket(bufio.NewReader(bytes.NewReader([]byte{'$', 0, 0, 2, 0x80, 0x60})))
	assert.True(t, errors.Is(err, ErrInvalidPacket))
}

func TestPacket_Padding(t *testing.T) {
	p := newPacket(t, 0, 1, []byte{0x09, 0xf0, 0, 0, 3})
	p.Padding = true
	assert.Equal(t, []byte{0x09, 0xf0}, p.Payload())
}

func TestH264Depacketizer(t *testing.T) {
	dp, err := NewDepacketizer(codec.H264)
	require.NoError(t, err)

	t.Run("single", func(t *testing.T) {
		units, err := dp.Depacketize(newPacket(t, 0, 1, []byte{0x09, 0xf0}))
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x09, 0xf0}}, units)
	})

	t.Run("stap-a", func(t *testing.T) {
		payload := []byte{0x78, 0, 2, 0x09, 0xf0, 0, 3, 0x68, 0xef, 0xbc}
		units, err := dp.Depacketize(newPacket(t, 0, 2, payload))
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x09, 0xf0}, {0x68, 0xef, 0xbc}}, units)

		units, err = dp.Depacketize(newPacket(t, 0, 3, []byte{0x78, 0, 9, 0x09}))
		assert.True(t, errors.Is(err, ErrInvalidPacket))
		assert.Empty(t, units)
	})

	t.Run("fu-a", func(t *testing.T) {
		// idr slice, nri 3
		units, err := dp.Depacketize(newPacket(t, 0, 10, []byte{0x7c, 0x85, 0xaa}))
		require.NoError(t, err)
		assert.Empty(t, units)
		units, err = dp.Depacketize(newPacket(t, 0, 11, []byte{0x7c, 0x05, 0xbb}))
		require.NoError(t, err)
		assert.Empty(t, units)
		units, err = dp.Depacketize(newPacket(t, 0, 12, []byte{0x7c, 0x45, 0xcc}))
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x65, 0xaa, 0xbb, 0xcc}}, units)
	})

	t.Run("fu-a loss", func(t *testing.T) {
		_, err := dp.Depacketize(newPacket(t, 0, 20, []byte{0x7c, 0x85, 0xaa}))
		require.NoError(t, err)
		_, err = dp.Depacketize(newPacket(t, 0, 22, []byte{0x7c, 0x45, 0xcc}))
		assert.True(t, errors.Is(err, ErrFragmentLost))

		// a new start recovers
		_, err = dp.Depacketize(newPacket(t, 0, 23, []byte{0x7c, 0x85, 0xaa}))
		require.NoError(t, err)
		units, err := dp.Depacketize(newPacket(t, 0, 24, []byte{0x7c, 0x45, 0xcc}))
		require.NoError(t, err)
		assert.Equal(t, [][]byte{{0x65, 0xaa, 0xcc}}, units)
	})
}

func TestH265Depacketizer(t *testing.T) {
	dp, err := NewDepacketizer(codec.HEVC)
	require.NoError(t, err)

	// AUD: type 35
	units, err := dp.Depacketize(newPacket(t, 0, 1, []byte{0x46, 0x01, 0x50}))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x46, 0x01, 0x50}}, units)

	// AP with two AUDs
	units, err = dp.Depacketize(newPacket(t, 0, 2, []byte{0x60, 0x01, 0, 3, 0x46, 0x01, 0x50, 0, 3, 0x46, 0x01, 0x10}))
	require.NoError(t, err)
	assert.Len(t, units, 2)

	// FU of an IDR_W_RADL (19)
	_, err = dp.Depacketize(newPacket(t, 0, 3, []byte{0x62, 0x01, 0x93, 0xaa}))
	require.NoError(t, err)
	units, err = dp.Depacketize(newPacket(t, 0, 4, []byte{0x62, 0x01, 0x53, 0xbb}))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x26, 0x01, 0xaa, 0xbb}}, units)
}

func TestNewDepacketizer_Unsupported(t *testing.T) {
	_, err := NewDepacketizer(codec.AV1)
	assert.True(t, errors.Is(err, ErrUnsupportedCodec))
}
