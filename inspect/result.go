// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/syntax"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// Result is the outcome of parsing one unit. Exactly one of Tree and Error
// is set.
type Result struct {
	ID     string           `json:"id"`
	Codec  codec.Type       `json:"codec"`
	Index  int              `json:"index"`
	Offset int              `json:"offset"` // byte offset of the unit in its buffer
	Size   int              `json:"size"`
	Kind   string           `json:"kind,omitempty"` // NAL/OBU/frame type name
	Tree   *syntax.Tree     `json:"tree,omitempty"`
	Error  *ErrorInfo       `json:"error,omitempty"`
	Meta   *codec.VideoMeta `json:"meta,omitempty"` // set by sequence-level units
}

// Failed reports whether the unit could not be parsed.
func (r *Result) Failed() bool {
	return r.Error != nil
}

// Bits returns the number of bits the parse accounted for.
func (r *Result) Bits() int {
	if r.Tree != nil && r.Tree.Root != nil {
		return r.Tree.Root.Range.Len()
	}
	if r.Error != nil {
		return r.Error.BitOffset
	}
	return 0
}

// 错误类别
const (
	CodeUnexpectedEnd   = "unexpected_end"
	CodeInvalidData     = "invalid_data"
	CodeInvalidArgument = "invalid_argument"
	CodeTooLarge        = "too_large"
	CodeInternal        = "internal"
)

// ErrorInfo describes where and why a unit failed. Offsets are relative to
// the unit.
type ErrorInfo struct {
	Code       string       `json:"code"`
	Field      string       `json:"field,omitempty"`
	BitOffset  int          `json:"bit_offset"`
	ByteOffset int          `json:"byte_offset"`
	Cause      string       `json:"cause"`
	Partial    *syntax.Tree `json:"partial,omitempty"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, bits.ErrUnexpectedEnd):
		return CodeUnexpectedEnd
	case errors.Is(err, bits.ErrInvalidData):
		return CodeInvalidData
	case errors.Is(err, bits.ErrInvalidArgument):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

// newErrorInfo converts a parse failure. Errors other than *syntax.ParseError
// are reported at offset 0.
func newErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{
		Code:  errorCode(err),
		Cause: err.Error(),
	}
	var perr *syntax.ParseError
	if errors.As(err, &perr) {
		info.Field = perr.Field
		info.BitOffset = perr.BitOffset
		info.ByteOffset = perr.ByteOffset()
		info.Cause = perr.Err.Error()
		info.Partial = perr.Partial
	}
	return info
}
