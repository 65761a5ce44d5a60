// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别
	Level xlog.Level `json:"level"`

	// JSON 控制台也输出 JSON 格式，便于容器中采集
	JSON bool `json:"json"`

	// ToFile 是否将日志记录到文件
	ToFile bool `json:"tofile"`

	// Filename 日志文件名称
	Filename string `json:"filename"`

	// MaxSize 日志文件的最大尺寸，以兆为单位
	MaxSize int `json:"maxsize"`

	// MaxDays 旧日志最多保存多少天
	MaxDays int `json:"maxdays"`

	// MaxBackups 旧日志最多保持数量。
	MaxBackups int `json:"maxbackups"`

	// Compress 是否用 gzip 压缩
	Compress bool `json:"compress"`
}

func (c *LogConfig) initFlags() {
	flag.Var(&c.Level, "log-level",
		"Set the log level to output")
	flag.BoolVar(&c.JSON, "log-json", false,
		"Write console logs as JSON lines")
	flag.BoolVar(&c.ToFile, "log-tofile", false,
		"Determines if logs should be saved to file")
	flag.StringVar(&c.Filename, "log-filename",
		"./logs/"+Name+".log", "Set the file to write logs to")
	flag.IntVar(&c.MaxSize, "log-maxsize", 20,
		"Set the maximum size in megabytes of the log file before it gets rotated")
	flag.IntVar(&c.MaxDays, "log-maxdays", 7,
		"Set the maximum days of old log files to retain")
	flag.IntVar(&c.MaxBackups, "log-maxbackups", 14,
		"Set the maximum number of old log files to retain")
	flag.BoolVar(&c.Compress, "log-compress", false,
		"Determines if the log files should be compressed")
}

// newLogger builds the logger the configuration describes.
func (c *LogConfig) newLogger() *xlog.Logger {
	console := xlog.NewCore(xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds|xlog.Llongfile), xlog.Lock(os.Stderr), c.Level)
	if c.JSON {
		console = xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), xlog.Lock(os.Stderr), c.Level)
	}
	if !c.ToFile {
		return xlog.New(console, xlog.AddCaller())
	}

	// 文件输出，按尺寸滚动
	fileWriter := &lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxDays,
		LocalTime:  true,
		Compress:   c.Compress,
	}
	return xlog.New(xlog.NewTee(console, xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), fileWriter, c.Level)),
		xlog.AddCaller())
}

// 初始化根日志
func (c *LogConfig) initLogger() {
	xlog.ReplaceGlobal(c.newLogger())
}
