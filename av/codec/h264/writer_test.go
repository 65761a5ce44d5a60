// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package h264

import "strings"

// bitWriter assembles test RBSPs bit by bit.
type bitWriter struct {
	strings.Builder
}

func (w *bitWriter) u(v uint64, n int) *bitWriter {
	for i := n - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			w.WriteByte('1')
		} else {
			w.WriteByte('0')
		}
	}
	return w
}

func (w *bitWriter) ue(v uint64) *bitWriter {
	v++
	n := 0
	for x := v; x > 1; x >>= 1 {
		n++
	}
	w.u(0, n)
	return w.u(v, n+1)
}

func (w *bitWriter) se(v int64) *bitWriter {
	if v > 0 {
		return w.ue(uint64(2*v - 1))
	}
	return w.ue(uint64(-2 * v))
}

// trailing appends rbsp_trailing_bits().
func (w *bitWriter) trailing() *bitWriter {
	w.u(1, 1)
	for w.Len()%8 != 0 {
		w.WriteByte('0')
	}
	return w
}

func (w *bitWriter) bytes() []byte {
	s := w.String()
	buf := make([]byte, (len(s)+7)/8)
	for i, c := range s {
		if c == '1' {
			buf[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	return buf
}
