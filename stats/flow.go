// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// FlowSample 消息流量采样
type FlowSample struct {
	InMessages  int64 `json:"inmessages"`
	InBytes     int64 `json:"inbytes"`
	OutMessages int64 `json:"outmessages"`
	OutBytes    int64 `json:"outbytes"`
}

// Flow counts the messages and bytes of a connection or a group of them.
type Flow interface {
	AddIn(size int64)      // 收到一条消息
	AddOut(size int64)     // 发出一条消息
	GetSample() FlowSample // 获取当前时点采样
}

// flow 流量计数; a non-nil parent receives every count too.
type flow struct {
	sample FlowSample
	parent Flow
}

// NewFlow 创建流量统计
func NewFlow() Flow {
	return &flow{}
}

// NewChildFlow 创建子流量计数，它会把自己的计数累加到 parent 上
func NewChildFlow(parent Flow) Flow {
	return &flow{parent: parent}
}

func (f *flow) AddIn(size int64) {
	atomic.AddInt64(&f.sample.InMessages, 1)
	atomic.AddInt64(&f.sample.InBytes, size)
	if f.parent != nil {
		f.parent.AddIn(size)
	}
}

func (f *flow) AddOut(size int64) {
	atomic.AddInt64(&f.sample.OutMessages, 1)
	atomic.AddInt64(&f.sample.OutBytes, size)
	if f.parent != nil {
		f.parent.AddOut(size)
	}
}

func (f *flow) GetSample() FlowSample {
	return FlowSample{
		InMessages:  atomic.LoadInt64(&f.sample.InMessages),
		InBytes:     atomic.LoadInt64(&f.sample.InBytes),
		OutMessages: atomic.LoadInt64(&f.sample.OutMessages),
		OutBytes:    atomic.LoadInt64(&f.sample.OutBytes),
	}
}
