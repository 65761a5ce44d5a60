// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/av/format/sdp"
	"github.com/cnotch/bitprobe/av/partition"
	"github.com/cnotch/bitprobe/config"
	"github.com/cnotch/bitprobe/inspect"
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

func codecParam(w http.ResponseWriter, pathParams apirouter.Params) (codec.Type, bool) {
	ct, err := codec.ParseType(pathParams.ByName("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return codec.Unknown, false
	}
	return ct, true
}

// 同步解析：提交任务并等待结果
func (s *Service) onParseSyntax(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ct, ok := codecParam(w, pathParams)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	id, err := s.pool.Submit(ct, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	info, err := s.pool.Wait(r.Context(), id)
	if err != nil {
		// 客户端已断开
		s.logger.Warnf("syntax job %s abandoned; %v", id, err)
		return
	}

	if err := jsonTo(w, info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 异步解析：提交任务
func (s *Service) onSubmitJob(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ct, ok := codecParam(w, pathParams)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	id, err := s.pool.Submit(ct, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	if err := jsonTo(w, map[string]string{"id": id}); err != nil {
		s.logger.Errorf("write job id; %v", err)
	}
}

// 查询任务
func (s *Service) onGetJob(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	info, err := s.pool.Get(pathParams.ByName("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err := jsonTo(w, info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PartitionRequest 分区树解析请求
type PartitionRequest struct {
	FrameWidth  int                  `json:"frame_width"`
	FrameHeight int                  `json:"frame_height"`
	Superblock  *partition.BlockSize `json:"superblock,omitempty"` // 64x64 when absent
	MaxDepth    int                  `json:"max_depth,omitempty"`
	Symbols     []int                `json:"symbols"`
}

// PartitionReply 分区树解析结果
type PartitionReply struct {
	Trees     []*partition.Node   `json:"trees"`
	Blocks    []partition.Block   `json:"blocks"`
	Remaining int                 `json:"remaining"` // symbols left unread
	Trace     []partition.Context `json:"trace,omitempty"`
}

// RunPartitions parses the partition trees of one frame from a scripted
// symbol sequence.
func RunPartitions(req *PartitionRequest) (*PartitionReply, error) {
	sb := partition.Block64x64
	if req.Superblock != nil {
		sb = *req.Superblock
	}
	symbols := make([]uint8, len(req.Symbols))
	for i, v := range req.Symbols {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(bits.ErrInvalidArgument, "symbols[%d] = %d", i, v)
		}
		symbols[i] = uint8(v)
	}
	src := partition.NewScriptedSource(symbols...)
	p := partition.Parser{Source: src, MaxDepth: req.MaxDepth}
	trees, err := p.ParseFrame(req.FrameWidth, req.FrameHeight, sb)
	if err != nil {
		return nil, err
	}

	return &PartitionReply{
		Trees:     trees,
		Blocks:    partition.FlattenAll(trees),
		Remaining: src.Remaining(),
		Trace:     src.Trace,
	}, nil
}

func (s *Service) onParsePartitions(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req PartitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := RunPartitions(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := jsonTo(w, reply); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SdpResult 一组参数集的解析结果
type SdpResult struct {
	sdp.ParameterSets
	Results []*inspect.Result `json:"results"`
}

// 解析 SDP 中的参数集
func (s *Service) onParseSdp(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	sets, err := sdp.Parse(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	out := make([]SdpResult, 0, len(sets))
	for _, ps := range sets {
		sess, err := inspect.NewSession(ps.Codec)
		if err != nil {
			continue
		}
		sess.MaxUnitSize = config.MaxUnitSize()

		sr := SdpResult{ParameterSets: ps}
		for i, data := range ps.Units {
			sr.Results = append(sr.Results, sess.Parse(inspect.Unit{Codec: ps.Codec, Index: i, Data: data}))
		}
		out = append(out, sr)
	}

	if err := jsonTo(w, out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 解析 RTSP 交织格式的 RTP 数据
func (s *Service) onParseRtp(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ct, ok := codecParam(w, pathParams)
	if !ok {
		return
	}
	if ct != codec.H264 && ct != codec.HEVC {
		http.Error(w, "rtp payloads are read for h264 and hevc only", http.StatusBadRequest)
		return
	}
	channel := 0
	if v := r.URL.Query().Get("channel"); v != "" {
		var err error
		if channel, err = strconv.Atoi(v); err != nil || channel < 0 || channel > 255 {
			http.Error(w, "invalid channel "+v, http.StatusBadRequest)
			return
		}
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	sess, err := inspect.NewSession(ct)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess.MaxUnitSize = config.MaxUnitSize()

	type rtpReply struct {
		Results []*inspect.Result `json:"results"`
		Error   string            `json:"error,omitempty"` // framing error that ended the parse
	}
	results, err := sess.ParseRTP(body, byte(channel))
	if err != nil && len(results) == 0 {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	reply := rtpReply{Results: results}
	if err != nil {
		reply.Error = err.Error()
	}

	if err := jsonTo(w, &reply); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
