// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"runtime"
)

// config 服务配置
type config struct {
	ListenAddr  string     `json:"listen"`        // 服务侦听地址和端口
	Workers     int        `json:"workers"`       // 解析任务的工作协程数
	MaxUnitSize int        `json:"max_unit_size"` // 单个单元的最大字节数，超过不解析
	MaxBodySize int        `json:"max_body_size"` // 请求体的最大字节数
	CacheTTL    int        `json:"cache_ttl"`     // 解析结果缓存秒数，0 不缓存
	RateLimit   int        `json:"rate_limit"`    // 每秒最大请求数，0 不限制
	Profile     bool       `json:"profile"`       // 是否启动Profile
	TLS         *TLSConfig `json:"tls,omitempty"` // https安全端口交互
	Log         LogConfig  `json:"log"`           // 日志配置
}

func (c *config) initFlags() {
	// 服务的端口
	flag.StringVar(&c.ListenAddr, "listen", ":8090", "Set server listen address")
	flag.IntVar(&c.Workers, "workers", runtime.NumCPU(),
		"Set the number of parse workers")
	flag.IntVar(&c.MaxUnitSize, "max-unit-size", defaultMaxUnitSize,
		"Set the largest unit in bytes that is parsed")
	flag.IntVar(&c.MaxBodySize, "max-body-size", defaultMaxBodySize,
		"Set the largest request body in bytes")
	flag.IntVar(&c.CacheTTL, "cache-ttl", 300,
		"Set the seconds parse results stay cached, 0 disables the cache")
	flag.IntVar(&c.RateLimit, "rate-limit", 0,
		"Set the maximum API requests per second, 0 disables the limit")
	flag.BoolVar(&c.Profile, "pprof", false,
		"Determines if profile enabled")

	// 初始化日志配置
	c.Log.initFlags()
}
