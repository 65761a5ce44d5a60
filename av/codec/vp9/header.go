// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vp9

import (
	"github.com/cnotch/bitprobe/syntax"
)

// ColorConfig color_config()
type ColorConfig struct {
	BitDepth     int
	ColorSpace   uint8
	ColorRange   bool
	SubsamplingX bool
	SubsamplingY bool
}

func (cc *ColorConfig) decode(rec *syntax.Recorder, profile uint8) {
	cc.BitDepth = 8
	if profile >= 2 {
		if rec.Flag("ten_or_twelve_bit") {
			cc.BitDepth = 12
		} else {
			cc.BitDepth = 10
		}
	}

	cc.ColorSpace = uint8(rec.U("color_space", 3))
	if cc.ColorSpace != CSRGB {
		cc.ColorRange = rec.Flag("color_range")
		if profile == 1 || profile == 3 {
			cc.SubsamplingX = rec.Flag("subsampling_x")
			cc.SubsamplingY = rec.Flag("subsampling_y")
			if rec.U("reserved_zero", 1) != 0 {
				rec.Failf("reserved_zero", "reserved bit is set")
			}
		} else {
			cc.SubsamplingX, cc.SubsamplingY = true, true
		}
		return
	}

	cc.ColorRange = true
	if profile == 1 || profile == 3 {
		if rec.U("reserved_zero", 1) != 0 {
			rec.Failf("reserved_zero", "reserved bit is set")
		}
		return
	}
	rec.Failf("color_space", "rgb is not allowed in profile %d", profile)
}

// defaultColorConfig is implied by intra-only frames of profile 0.
var defaultColorConfig = ColorConfig{
	BitDepth:     8,
	ColorSpace:   CSBT601,
	SubsamplingX: true,
	SubsamplingY: true,
}

// LoopFilter loop_filter_params()
type LoopFilter struct {
	Level        uint8
	Sharpness    uint8
	DeltaEnabled bool
	DeltaUpdate  bool
	RefDeltas    [4]int8
	ModeDeltas   [2]int8
}

var (
	defaultRefDeltas  = [4]int8{1, 0, -1, -1}
	defaultModeDeltas = [2]int8{0, 0}
)

func (lf *LoopFilter) decode(rec *syntax.Recorder) {
	lf.Level = uint8(rec.U("loop_filter_level", 6))
	lf.Sharpness = uint8(rec.U("loop_filter_sharpness", 3))
	lf.DeltaEnabled = rec.Flag("loop_filter_delta_enabled")
	if !lf.DeltaEnabled {
		return
	}

	lf.DeltaUpdate = rec.Flag("loop_filter_delta_update")
	if !lf.DeltaUpdate {
		return
	}
	for i := range lf.RefDeltas {
		if rec.Flag(syntax.Index("update_ref_delta", i)) {
			lf.RefDeltas[i] = int8(rec.SignMag(syntax.Index("loop_filter_ref_deltas", i), 6))
		}
	}
	for i := range lf.ModeDeltas {
		if rec.Flag(syntax.Index("update_mode_delta", i)) {
			lf.ModeDeltas[i] = int8(rec.SignMag(syntax.Index("loop_filter_mode_deltas", i), 6))
		}
	}
}

// Quantization quantization_params()
type Quantization struct {
	BaseQIdx   uint8
	DeltaQYDc  int8
	DeltaQUVDc int8
	DeltaQUVAc int8
}

// Lossless reports whether the frame is coded losslessly.
func (q *Quantization) Lossless() bool {
	return q.BaseQIdx == 0 && q.DeltaQYDc == 0 && q.DeltaQUVDc == 0 && q.DeltaQUVAc == 0
}

func (q *Quantization) decode(rec *syntax.Recorder) {
	q.BaseQIdx = uint8(rec.U("base_q_idx", 8))
	q.DeltaQYDc = readDeltaQ(rec, "delta_q_y_dc")
	q.DeltaQUVDc = readDeltaQ(rec, "delta_q_uv_dc")
	q.DeltaQUVAc = readDeltaQ(rec, "delta_q_uv_ac")
}

func readDeltaQ(rec *syntax.Recorder, name string) (delta int8) {
	rec.Container(name, func() {
		if rec.Flag("delta_coded") {
			delta = int8(rec.SignMag("delta_q", 4))
		}
	})
	return
}

// Segmentation segmentation_params()
type Segmentation struct {
	Enabled          bool
	UpdateMap        bool
	TreeProbs        [MaxSegments - 1]uint8
	TemporalUpdate   bool
	PredProbs        [3]uint8
	UpdateData       bool
	AbsOrDeltaUpdate bool
	FeatureEnabled   [MaxSegments][SegLvlMax]bool
	FeatureData      [MaxSegments][SegLvlMax]int16
}

func (seg *Segmentation) decode(rec *syntax.Recorder) {
	seg.Enabled = rec.Flag("segmentation_enabled")
	if !seg.Enabled {
		return
	}

	seg.UpdateMap = rec.Flag("segmentation_update_map")
	if seg.UpdateMap {
		for i := range seg.TreeProbs {
			seg.TreeProbs[i] = readProb(rec, syntax.Index("segmentation_tree_probs", i))
		}
		seg.TemporalUpdate = rec.Flag("segmentation_temporal_update")
		for i := range seg.PredProbs {
			seg.PredProbs[i] = MaxProb
			if seg.TemporalUpdate {
				seg.PredProbs[i] = readProb(rec, syntax.Index("segmentation_pred_prob", i))
			}
		}
	}

	seg.UpdateData = rec.Flag("segmentation_update_data")
	if !seg.UpdateData {
		return
	}
	seg.AbsOrDeltaUpdate = rec.Flag("segmentation_abs_or_delta_update")
	for i := 0; i < MaxSegments; i++ {
		rec.Container(syntax.Index("segment", i), func() {
			for j := 0; j < SegLvlMax; j++ {
				var v int16
				seg.FeatureEnabled[i][j] = rec.Flag(syntax.Index("feature_enabled", j))
				if seg.FeatureEnabled[i][j] {
					v = int16(rec.U(syntax.Index("feature_value", j), segmentationFeatureBits[j]))
					if segmentationFeatureSigned[j] && rec.Flag(syntax.Index("feature_sign", j)) {
						v = -v
					}
				}
				seg.FeatureData[i][j] = v
			}
		})
	}
}

func readProb(rec *syntax.Recorder, name string) (prob uint8) {
	prob = MaxProb
	rec.Container(name, func() {
		if rec.Flag("prob_coded") {
			prob = uint8(rec.U("prob", 8))
		}
	})
	return
}

// TileInfo tile_info()
type TileInfo struct {
	ColsLog2 int
	RowsLog2 int
}

// tileColsLog2Range returns calc_min_log2_tile_cols and calc_max_log2_tile_cols.
func tileColsLog2Range(sb64Cols int) (minLog2, maxLog2 int) {
	for MaxTileWidthB64<<uint(minLog2) < sb64Cols {
		minLog2++
	}
	maxLog2 = 1
	for sb64Cols>>uint(maxLog2) >= MinTileWidthB64 {
		maxLog2++
	}
	return minLog2, maxLog2 - 1
}

func (ti *TileInfo) decode(rec *syntax.Recorder, sb64Cols int) {
	minLog2, maxLog2 := tileColsLog2Range(sb64Cols)
	ti.ColsLog2 = minLog2
	for ti.ColsLog2 < maxLog2 {
		if !rec.Flag(syntax.Index("increment_tile_cols_log2", ti.ColsLog2-minLog2)) {
			break
		}
		ti.ColsLog2++
	}

	ti.RowsLog2 = int(rec.U("tile_rows_log2", 1))
	if ti.RowsLog2 == 1 {
		ti.RowsLog2 += int(rec.U("increment_tile_rows_log2", 1))
	}
}

// FrameHeader uncompressed_header()
type FrameHeader struct {
	Profile           uint8
	ShowExistingFrame bool
	FrameToShowMapIdx uint8

	FrameType          uint8
	ShowFrame          bool
	ErrorResilientMode bool
	IntraOnly          bool
	ResetFrameContext  uint8
	ColorConfig        ColorConfig

	RefreshFrameFlags uint8
	RefFrameIdx       [RefsPerFrame]uint8
	RefFrameSignBias  [RefsPerFrame]bool

	Width        int
	Height       int
	RenderWidth  int
	RenderHeight int

	AllowHighPrecisionMv bool
	InterpolationFilter  uint8

	RefreshFrameContext       bool
	FrameParallelDecodingMode bool
	FrameContextIdx           uint8

	LoopFilter   LoopFilter
	Quantization Quantization
	Segmentation Segmentation
	TileInfo     TileInfo

	HeaderSizeInBytes uint16
}

// FrameIsIntra reports whether the frame only uses intra prediction.
func (h *FrameHeader) FrameIsIntra() bool {
	return h.FrameType == KeyFrame || h.IntraOnly
}

// MiCols returns the width in 8x8 mode info units.
func (h *FrameHeader) MiCols() int { return (h.Width + 7) >> 3 }

// MiRows returns the height in 8x8 mode info units.
func (h *FrameHeader) MiRows() int { return (h.Height + 7) >> 3 }

// Sb64Cols returns the width in 64x64 superblocks.
func (h *FrameHeader) Sb64Cols() int { return (h.MiCols() + 7) >> 3 }

// Sb64Rows returns the height in 64x64 superblocks.
func (h *FrameHeader) Sb64Rows() int { return (h.MiRows() + 7) >> 3 }

// Decode records uncompressed_header(). Reference frame sizes and the
// persistent loop filter deltas come from st.
func (h *FrameHeader) Decode(rec *syntax.Recorder, st *State) {
	if m := rec.U("frame_marker", 2); !rec.Failed() && m != FrameMarker {
		rec.Failf("frame_marker", "frame_marker = %d, want %d", m, FrameMarker)
		return
	}
	low := rec.U("profile_low_bit", 1)
	high := rec.U("profile_high_bit", 1)
	h.Profile = uint8(high<<1 | low)
	if h.Profile == 3 && rec.U("reserved_zero", 1) != 0 {
		rec.Failf("reserved_zero", "reserved bit is set")
		return
	}

	h.ShowExistingFrame = rec.Flag("show_existing_frame")
	if h.ShowExistingFrame {
		h.FrameToShowMapIdx = uint8(rec.U("frame_to_show_map_idx", 3))
		ref := st.Refs[h.FrameToShowMapIdx]
		h.Width, h.Height = ref.Width, ref.Height
		h.ColorConfig = st.ColorConfig
		return
	}

	h.FrameType = uint8(rec.U("frame_type", 1))
	h.ShowFrame = rec.Flag("show_frame")
	h.ErrorResilientMode = rec.Flag("error_resilient_mode")

	if h.FrameType == KeyFrame {
		frameSyncCode(rec)
		rec.Container("color_config", func() { h.ColorConfig.decode(rec, h.Profile) })
		rec.Container("frame_size", func() { h.frameSize(rec) })
		rec.Container("render_size", func() { h.renderSize(rec) })
		h.RefreshFrameFlags = 0xff
	} else {
		if !h.ShowFrame {
			h.IntraOnly = rec.Flag("intra_only")
		}
		if !h.ErrorResilientMode {
			h.ResetFrameContext = uint8(rec.U("reset_frame_context", 2))
		}

		if h.IntraOnly {
			frameSyncCode(rec)
			if h.Profile > 0 {
				rec.Container("color_config", func() { h.ColorConfig.decode(rec, h.Profile) })
			} else {
				h.ColorConfig = defaultColorConfig
			}
			h.RefreshFrameFlags = uint8(rec.U("refresh_frame_flags", 8))
			rec.Container("frame_size", func() { h.frameSize(rec) })
			rec.Container("render_size", func() { h.renderSize(rec) })
		} else {
			h.ColorConfig = st.ColorConfig
			h.RefreshFrameFlags = uint8(rec.U("refresh_frame_flags", 8))
			for i := 0; i < RefsPerFrame; i++ {
				h.RefFrameIdx[i] = uint8(rec.U(syntax.Index("ref_frame_idx", i), 3))
				h.RefFrameSignBias[i] = rec.Flag(syntax.Index("ref_frame_sign_bias", i))
			}
			rec.Container("frame_size_with_refs", func() { h.frameSizeWithRefs(rec, st) })
			h.AllowHighPrecisionMv = rec.Flag("allow_high_precision_mv")
			h.readInterpolationFilter(rec)
		}
	}

	if !h.ErrorResilientMode {
		h.RefreshFrameContext = rec.Flag("refresh_frame_context")
		h.FrameParallelDecodingMode = rec.Flag("frame_parallel_decoding_mode")
	} else {
		h.FrameParallelDecodingMode = true
	}
	h.FrameContextIdx = uint8(rec.U("frame_context_idx", 2))

	// setup_past_independence
	if h.FrameIsIntra() || h.ErrorResilientMode {
		h.LoopFilter.RefDeltas = defaultRefDeltas
		h.LoopFilter.ModeDeltas = defaultModeDeltas
	} else {
		h.LoopFilter.RefDeltas = st.RefDeltas
		h.LoopFilter.ModeDeltas = st.ModeDeltas
	}

	rec.Container("loop_filter_params", func() { h.LoopFilter.decode(rec) })
	rec.Container("quantization_params", func() { h.Quantization.decode(rec) })
	rec.Container("segmentation_params", func() { h.Segmentation.decode(rec) })
	rec.Container("tile_info", func() { h.TileInfo.decode(rec, h.Sb64Cols()) })

	h.HeaderSizeInBytes = uint16(rec.U("header_size_in_bytes", 16))
	if !rec.Failed() && h.HeaderSizeInBytes == 0 {
		rec.Failf("header_size_in_bytes", "header_size_in_bytes is 0")
	}
}

func frameSyncCode(rec *syntax.Recorder) {
	rec.Container("frame_sync_code", func() {
		b0 := rec.U("frame_sync_byte_0", 8)
		b1 := rec.U("frame_sync_byte_1", 8)
		b2 := rec.U("frame_sync_byte_2", 8)
		if code := b0<<16 | b1<<8 | b2; !rec.Failed() && code != SyncCode {
			rec.Failf("frame_sync_code", "frame_sync_code = %#06x, want %#06x", code, SyncCode)
		}
	})
}

func (h *FrameHeader) frameSize(rec *syntax.Recorder) {
	h.Width = int(rec.U("frame_width_minus_1", 16)) + 1
	h.Height = int(rec.U("frame_height_minus_1", 16)) + 1
}

func (h *FrameHeader) renderSize(rec *syntax.Recorder) {
	h.RenderWidth, h.RenderHeight = h.Width, h.Height
	if rec.Flag("render_and_frame_size_different") {
		h.RenderWidth = int(rec.U("render_width_minus_1", 16)) + 1
		h.RenderHeight = int(rec.U("render_height_minus_1", 16)) + 1
	}
}

func (h *FrameHeader) frameSizeWithRefs(rec *syntax.Recorder, st *State) {
	found := false
	for i := 0; i < RefsPerFrame && !found; i++ {
		name := syntax.Index("found_ref", i)
		if found = rec.Flag(name); found {
			ref := st.Refs[h.RefFrameIdx[i]]
			if ref.Width == 0 {
				rec.Failf(name, "reference slot %d holds no frame", h.RefFrameIdx[i])
				return
			}
			h.Width, h.Height = ref.Width, ref.Height
		}
	}
	if rec.Failed() {
		return
	}

	if !found {
		rec.Container("frame_size", func() { h.frameSize(rec) })
	}
	rec.Container("render_size", func() { h.renderSize(rec) })
}

func (h *FrameHeader) readInterpolationFilter(rec *syntax.Recorder) {
	if rec.Flag("is_filter_switchable") {
		h.InterpolationFilter = FilterSwitchable
		return
	}
	h.InterpolationFilter = literalToType[rec.U("raw_interpolation_filter", 2)]
}
