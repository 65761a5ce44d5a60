// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package av1

// OBU types
const (
	OBUSequenceHeader       = 1
	OBUTemporalDelimiter    = 2
	OBUFrameHeader          = 3
	OBUTileGroup            = 4
	OBUMetadata             = 5
	OBUFrame                = 6
	OBURedundantFrameHeader = 7
	OBUTileList             = 8
	OBUPadding              = 15
)

// color_config constants
const (
	cpBT709       = 1
	cpUnspecified = 2
	tcUnspecified = 2
	tcSRGB        = 13
	mcIdentity    = 0
	mcUnspecified = 2

	cspUnknown = 0

	selectScreenContentTools = 2
	selectIntegerMV          = 2
)

// MaxOperatingPoints is the size of the operating point table.
const MaxOperatingPoints = 32

var obuTypeNames = map[uint8]string{
	OBUSequenceHeader:       "sequence_header",
	OBUTemporalDelimiter:    "temporal_delimiter",
	OBUFrameHeader:          "frame_header",
	OBUTileGroup:            "tile_group",
	OBUMetadata:             "metadata",
	OBUFrame:                "frame",
	OBURedundantFrameHeader: "redundant_frame_header",
	OBUTileList:             "tile_list",
	OBUPadding:              "padding",
}

// OBUTypeName returns the syntax name of an OBU type.
func OBUTypeName(t uint8) string {
	if name, ok := obuTypeNames[t]; ok {
		return name
	}
	return "reserved"
}
