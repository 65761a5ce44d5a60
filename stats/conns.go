// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// 全局变量
var (
	WsConns = NewConns() // websocket 检查连接统计
	WsFlow  = NewFlow()  // websocket 收发消息
)

// ConnsSample 连接计数采样
type ConnsSample struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Peak   int64 `json:"peak"` // 最大并发
}

// Conns 连接统计
type Conns interface {
	Add() int64
	Release() int64
	GetSample() ConnsSample
}

type conns struct {
	total, active, peak int64
}

// NewConns 新建连接计数
func NewConns() Conns {
	return &conns{}
}

func (c *conns) Add() int64 {
	atomic.AddInt64(&c.total, 1)
	active := atomic.AddInt64(&c.active, 1)
	for {
		peak := atomic.LoadInt64(&c.peak)
		if active <= peak || atomic.CompareAndSwapInt64(&c.peak, peak, active) {
			return active
		}
	}
}

func (c *conns) Release() int64 {
	return atomic.AddInt64(&c.active, -1)
}

func (c *conns) GetSample() ConnsSample {
	return ConnsSample{
		Total:  atomic.LoadInt64(&c.total),
		Active: atomic.LoadInt64(&c.active),
		Peak:   atomic.LoadInt64(&c.peak),
	}
}
