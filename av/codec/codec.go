// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"fmt"
	"strings"
)

// Type 视频编码类型
type Type int

// 编码类型常量
const (
	Unknown Type = iota
	AV1
	H264
	HEVC
	VP9
)

// Types lists the codecs that have a grammar.
var Types = []Type{AV1, H264, HEVC, VP9}

// String returns a lower-case ASCII representation of the codec.
func (t Type) String() string {
	switch t {
	case AV1:
		return "av1"
	case H264:
		return "h264"
	case HEVC:
		return "hevc"
	case VP9:
		return "vp9"
	default:
		return ""
	}
}

// MarshalText marshals the Type to text.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText unmarshals text to a Type.
func (t *Type) UnmarshalText(text []byte) error {
	if !t.unmarshalText(string(text)) {
		return fmt.Errorf("unrecognized codec: %q", text)
	}
	return nil
}

func (t *Type) unmarshalText(text string) bool {
	switch strings.ToLower(text) {
	case "av1", "av01":
		*t = AV1
	case "h264", "avc", "avc1":
		*t = H264
	case "hevc", "h265", "hvc1", "hev1":
		*t = HEVC
	case "vp9", "vp09":
		*t = VP9
	default:
		return false
	}
	return true
}

// ParseType parses a codec name such as "h264", "avc" or "hevc".
func ParseType(name string) (Type, error) {
	var t Type
	err := t.UnmarshalText([]byte(name))
	return t, err
}
