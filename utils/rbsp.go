// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package utils

import (
	"bytes"
	"sort"
)

// EmulationMap 记录被移除的 emulation_prevention_three_byte 的位置。
// Each entry is the RBSP byte index in front of which one 0x03 byte was dropped.
type EmulationMap []int

// RawByte maps an RBSP byte index back to the escaped NAL unit.
func (m EmulationMap) RawByte(idx int) int {
	return idx + sort.SearchInts(m, idx+1)
}

// RawBit maps an RBSP bit position back to the escaped NAL unit.
func (m EmulationMap) RawBit(bit int) int {
	if len(m) == 0 || bit < 0 {
		return bit
	}
	return bit + sort.SearchInts(m, bit>>3+1)<<3
}

// RemoveH264or5EmulationBytes makes a copy of a (H.264 or H.265) NAL unit,
// removing 'emulation' bytes from the copy. The returned map locates every
// removed byte so that RBSP bit positions can be reported against the raw unit.
func RemoveH264or5EmulationBytes(from []byte) ([]byte, EmulationMap) {
	from = RemoveNaluSeparator(from)
	to := make([]byte, 0, len(from))
	var removed EmulationMap
	zeros := 0
	for _, b := range from {
		if zeros >= 2 && b == 3 {
			removed = append(removed, len(to))
			zeros = 0
			continue
		}

		to = append(to, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return to, removed
}

// RemoveNaluSeparator 移除 NALU 分隔符 0x00000001 或 0x000001
func RemoveNaluSeparator(nalu []byte) []byte {
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x0, 0x1}) {
		return nalu[4:]
	}
	if bytes.HasPrefix(nalu, []byte{0x0, 0x0, 0x1}) {
		return nalu[3:]
	}
	return nalu
}

// SplitAnnexB splits a byte stream on 0x000001 start codes.
// Trailing zero bytes of each unit (long start codes, trailing_zero_8bits) are dropped.
// Input without any start code is returned as a single unit.
func SplitAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := -1
	for i := 0; i+2 < len(data); {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			if start >= 0 {
				nalus = appendNalu(nalus, data[start:i])
			}
			i += 3
			start = i
			continue
		}
		i++
	}

	if start < 0 {
		if len(data) == 0 {
			return nil
		}
		return [][]byte{data}
	}
	return appendNalu(nalus, data[start:])
}

func appendNalu(nalus [][]byte, nalu []byte) [][]byte {
	for len(nalu) > 0 && nalu[len(nalu)-1] == 0 {
		nalu = nalu[:len(nalu)-1]
	}
	if len(nalu) == 0 {
		return nalus
	}
	return append(nalus, nalu)
}
