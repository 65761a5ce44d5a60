// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/cnotch/bitprobe/config"
	"github.com/cnotch/bitprobe/service"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

func main() {
	// 初始化配置
	config.InitConfig()
	// 计划任务的异常只记录，不退出
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	svc, err := service.NewService(context.Background(), xlog.L())
	if err != nil {
		xlog.L().Panic(err.Error())
	}
	xlog.Infof("%s %s: %d workers, units up to %d bytes, requests up to %d bytes",
		config.Name, config.Version, config.Workers(), config.MaxUnitSize(), config.MaxBodySize())

	// 阻塞直到收到退出信号
	if err := svc.Listen(); err != nil {
		xlog.L().Panic(err.Error())
	}
}
