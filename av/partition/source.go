// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// SymbolSource decodes partition symbols from coded tile data.
// sizeClass is SizeClass of the block; hasRows and hasCols report whether
// the block's lower and right halves lie inside the frame.
type SymbolSource interface {
	ReadPartition(sizeClass int, hasRows, hasCols bool) (uint8, error)
}

// SourceFunc adapts a function to SymbolSource.
type SourceFunc func(sizeClass int, hasRows, hasCols bool) (uint8, error)

// ReadPartition calls f.
func (f SourceFunc) ReadPartition(sizeClass int, hasRows, hasCols bool) (uint8, error) {
	return f(sizeClass, hasRows, hasCols)
}

// MaxSizeClass is the largest context SizeClass returns.
const MaxSizeClass = 4

// SizeClass returns the partition context of a block: log2(width) - 3
// clamped to [0, MaxSizeClass].
func SizeClass(bs BlockSize) int {
	if !bs.Valid() {
		return 0
	}
	c := int(widthLog2[bs]) - 3
	if c < 0 {
		return 0
	}
	if c > MaxSizeClass {
		return MaxSizeClass
	}
	return c
}

// Context is the context of one ReadPartition call.
type Context struct {
	SizeClass int  `json:"size_class"`
	HasRows   bool `json:"has_rows"`
	HasCols   bool `json:"has_cols"`
}

// ScriptedSource replays recorded symbols and keeps the context of every
// call. It is not safe for concurrent use.
type ScriptedSource struct {
	symbols []uint8
	pos     int
	Trace   []Context
}

// NewScriptedSource returns a source replaying symbols in order.
func NewScriptedSource(symbols ...uint8) *ScriptedSource {
	return &ScriptedSource{symbols: symbols}
}

// ReadPartition returns the next recorded symbol.
func (s *ScriptedSource) ReadPartition(sizeClass int, hasRows, hasCols bool) (uint8, error) {
	if s.pos >= len(s.symbols) {
		return 0, errors.Wrapf(bits.ErrUnexpectedEnd, "script exhausted after %d symbols", len(s.symbols))
	}
	s.Trace = append(s.Trace, Context{sizeClass, hasRows, hasCols})
	sym := s.symbols[s.pos]
	s.pos++
	return sym, nil
}

// Remaining returns the number of symbols not yet read.
func (s *ScriptedSource) Remaining() int {
	return len(s.symbols) - s.pos
}
