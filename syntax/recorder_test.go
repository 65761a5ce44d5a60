// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"errors"
	"testing"

	"github.com/cnotch/bitprobe/utils/bits"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a small grammar: header with a count-driven array and a dynamic-width field
func sampleGrammar(rec *Recorder) {
	rec.Container("header", func() {
		rec.U("version", 3)
		if rec.Flag("extended") {
			rec.U("extension", 4)
		}
	})
	count := rec.U("count_minus_1", 2) + 1
	for i := 0; i < int(count); i++ {
		rec.Container(Index("entries", i), func() {
			width := rec.U("width_minus_1", 3) + 1
			rec.U("value", int(width))
		})
	}
	rec.UE("tail")
	rec.Skip("reserved", 2)
	rec.U("empty", 0)
}

var sampleBits = "101" + "1" + "0110" + // header
	"01" +          // count_minus_1
	"010" + "011" + // entries[0]
	"000" + "0" +   // entries[1]
	"011" + "11"    // tail, reserved

func bitsOf(s string) []byte {
	buf := make([]byte, (len(s)+7)/8)
	for i, c := range s {
		if c == '1' {
			buf[i>>3] |= 0x80 >> uint(i&7)
		}
	}
	return buf
}

func TestParse(t *testing.T) {
	tree, err := Parse(bitsOf(sampleBits), "unit[0]", sampleGrammar)
	require.NoError(t, err)

	tests := []struct {
		path  string
		rg    bits.Range
		value string
	}{
		{"unit[0].header.version", bits.Range{Start: 0, End: 3}, "5"},
		{"unit[0].header.extended", bits.Range{Start: 3, End: 4}, "1"},
		{"unit[0].header.extension", bits.Range{Start: 4, End: 8}, "6"},
		{"unit[0].count_minus_1", bits.Range{Start: 8, End: 10}, "1"},
		{"unit[0].entries[0].width_minus_1", bits.Range{Start: 10, End: 13}, "2"},
		{"unit[0].entries[0].value", bits.Range{Start: 13, End: 16}, "3"},
		{"unit[0].entries[1].width_minus_1", bits.Range{Start: 16, End: 19}, "0"},
		{"unit[0].entries[1].value", bits.Range{Start: 19, End: 20}, "0"},
		{"unit[0].tail", bits.Range{Start: 20, End: 23}, "2"},
		{"unit[0].reserved", bits.Range{Start: 23, End: 25}, "skipped(2)"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			n := tree.Get(tt.path)
			require.NotNil(t, n)
			assert.Equal(t, tt.rg, n.Range)
			assert.Equal(t, tt.value, n.Value)
		})
	}

	assert.Nil(t, tree.Get("unit[0].empty"), "zero-width reads are not recorded")
	assert.Equal(t, bits.Range{Start: 0, End: 25}, tree.Root.Range)
	assertClosed(t, tree)
}

// Every container spans exactly the union of its children.
func assertClosed(t *testing.T, tree *Tree) {
	t.Helper()
	tree.Walk(func(n *Node, _ int) bool {
		if !n.IsContainer() || len(n.Children) == 0 {
			return true
		}
		union := n.Children[0].Range
		for _, c := range n.Children[1:] {
			union = union.Union(c.Range)
		}
		assert.Equal(t, union, n.Range, "container %s", n.Name)
		return true
	})
}

func TestParse_Truncated(t *testing.T) {
	// stops in the middle of entries[1].value
	data := bitsOf(sampleBits[:16] + "1")
	_, err := Parse(data[:2], "unit[3]", sampleGrammar)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "unit[3]", perr.Unit)
	assert.Equal(t, "width_minus_1", perr.Field)
	assert.Equal(t, 16, perr.BitOffset)
	assert.Equal(t, 2, perr.ByteOffset())
	assert.True(t, errors.Is(err, bits.ErrUnexpectedEnd))
	assert.Equal(t, bits.ErrUnexpectedEnd, pkgerrors.Cause(err))

	p := perr.Partial
	require.NotNil(t, p)
	assert.NotNil(t, p.Get("unit[3].entries[0].value"))
	assert.Nil(t, p.Get("unit[3].entries[1].width_minus_1"), "failed fields are never recorded")
	assert.Nil(t, p.Get("unit[3].tail"))
	assert.Equal(t, bits.Range{Start: 0, End: 16}, p.Root.Range)
	assertClosed(t, p)
}

func TestParse_InsufficientBuffer(t *testing.T) {
	r, err := bits.NewReaderAt([]byte{0xf0}, 4)
	require.NoError(t, err)
	_, err = ParseReader(r, "unit[0]", func(rec *Recorder) {
		v := rec.U("wide", 32)
		assert.Zero(t, v)
	})
	assert.True(t, errors.Is(err, bits.ErrUnexpectedEnd))
	assert.Equal(t, 4, r.Offset())
}

func TestRecorder_StickyFailure(t *testing.T) {
	calls := 0
	_, err := Parse([]byte{0xff}, "root", func(rec *Recorder) {
		rec.U("a", 4)
		rec.Failf("a", "value %d not supported", 15)
		rec.U("b", 4)
		rec.Container("never", func() { calls++ })
		assert.False(t, rec.MoreRBSPData())
	})
	assert.True(t, errors.Is(err, bits.ErrInvalidData))
	assert.Zero(t, calls)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Nil(t, perr.Partial.Get("root.b"))
	assert.Nil(t, perr.Partial.Get("root.never"))
}

func TestRecorder_UEMax(t *testing.T) {
	_, err := Parse(bitsOf("00111"), "root", func(rec *Recorder) {
		rec.UEMax("num", 5)
	})
	assert.True(t, errors.Is(err, bits.ErrInvalidData))

	tree, err := Parse(bitsOf("00111"), "root", func(rec *Recorder) {
		assert.Equal(t, uint32(6), rec.UEMax("num", 6))
	})
	require.NoError(t, err)
	assert.Equal(t, "6", tree.Get("root.num").Value)
}

func TestRecorder_Signed(t *testing.T) {
	tree, err := Parse(bitsOf("00101"+"1110"+"0101"), "root", func(rec *Recorder) {
		assert.Equal(t, int32(-2), rec.SE("delta"))
		assert.Equal(t, int32(-2), rec.Su("su", 4))
		assert.Equal(t, int32(-2), rec.SignMag("delta_q", 3))
	})
	require.NoError(t, err)
	assert.Equal(t, "-2", tree.Get("root.delta").Value)
	assert.Equal(t, "-2", tree.Get("root.su").Value)
	assert.Equal(t, bits.Range{Start: 9, End: 13}, tree.Get("root.delta_q").Range)
}

func TestRecorder_Align(t *testing.T) {
	tree, err := Parse([]byte{0xa0, 0xff}, "root", func(rec *Recorder) {
		rec.U("x", 3)
		rec.Align("byte_alignment")
		rec.Align("noop")
		rec.U("y", 8)
	})
	require.NoError(t, err)
	assert.Equal(t, bits.Range{Start: 3, End: 8}, tree.Get("root.byte_alignment").Range)
	assert.Nil(t, tree.Get("root.noop"))
	assertClosed(t, tree)
}

func BenchmarkParse(b *testing.B) {
	data := bitsOf(sampleBits)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Parse(data, "unit[0]", sampleGrammar)
	}
}
