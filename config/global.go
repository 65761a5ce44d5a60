// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "bitprobe"
	Version = "V1.0.0"
)

const (
	defaultMaxUnitSize = 4 << 20
	defaultMaxBodySize = 64 << 20
)

var (
	globalC       *config
	consoleAppDir string
)

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")
	consoleAppDir = filepath.Join(filepath.Dir(exe), "console")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// Addr Listen addr
func Addr() string {
	if globalC == nil {
		return ":8090"
	}
	return globalC.ListenAddr
}

// Workers 解析工作协程数
func Workers() int {
	if globalC == nil || globalC.Workers <= 0 {
		return runtime.NumCPU()
	}
	return globalC.Workers
}

// MaxUnitSize 单元最大字节数
func MaxUnitSize() int {
	if globalC == nil || globalC.MaxUnitSize <= 0 {
		return defaultMaxUnitSize
	}
	return globalC.MaxUnitSize
}

// MaxBodySize 请求体最大字节数
func MaxBodySize() int64 {
	if globalC == nil || globalC.MaxBodySize <= 0 {
		return defaultMaxBodySize
	}
	return int64(globalC.MaxBodySize)
}

// CacheTTL 解析结果缓存时长，0 表示不缓存
func CacheTTL() time.Duration {
	if globalC == nil {
		return 5 * time.Minute
	}
	if globalC.CacheTTL <= 0 {
		return 0
	}
	return time.Duration(globalC.CacheTTL) * time.Second
}

// RateLimit 每秒最大请求数，0 表示不限制
func RateLimit() int {
	if globalC == nil || globalC.RateLimit < 0 {
		return 0
	}
	return globalC.RateLimit
}

// Profile 是否启动 Http Profile
func Profile() bool {
	if globalC == nil {
		return false
	}
	return globalC.Profile
}

// GetTLSConfig 获取TLSConfig
func GetTLSConfig() *TLSConfig {
	if globalC == nil {
		return nil
	}
	return globalC.TLS
}

// ConsoleAppDir 管理员控制台应用的目录
func ConsoleAppDir() (string, bool) {
	if consoleAppDir == "" {
		return "", false
	}
	finfo, err := os.Stat(consoleAppDir)
	if err != nil || !finfo.IsDir() {
		return "", false
	}
	return consoleAppDir, true
}

// NetTimeout 返回网络超时设置
func NetTimeout() time.Duration {
	return time.Second * 45
}

// JobRetention 已完成任务的保留时长
func JobRetention() time.Duration {
	return time.Minute * 10
}
