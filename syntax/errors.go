// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"fmt"
)

// ParseError reports the first failing read of a grammar.
type ParseError struct {
	Unit      string // root container name
	Field     string // syntax element whose read failed
	BitOffset int    // position where the failing element starts
	Err       error
	Partial   *Tree // what was recorded before the failure
}

// ByteOffset returns the byte holding BitOffset.
func (e *ParseError) ByteOffset() int {
	return e.BitOffset >> 3
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s at bit %d (byte %d): %v", e.Unit, e.Field, e.BitOffset, e.ByteOffset(), e.Err)
}

// Unwrap supports errors.Is / errors.As.
func (e *ParseError) Unwrap() error { return e.Err }

// Cause supports errors.Cause.
func (e *ParseError) Cause() error { return e.Err }

// Remap translates the error position and the partial tree with fn.
func (e *ParseError) Remap(fn func(bit int) int) {
	e.BitOffset = fn(e.BitOffset)
	e.Partial = e.Partial.Remap(fn)
}
