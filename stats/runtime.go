// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"runtime"
	"time"

	"github.com/kelindar/process"
)

// 创建时间
var (
	StartingTime = time.Now()
)

// Proc 进程信息统计
type Proc struct {
	CPU    float64 `json:"cpu"`    // cpu使用情况
	Priv   int32   `json:"priv"`   // 私有内存 KB
	Virt   int32   `json:"virt"`   // 虚拟内存 KB
	Uptime int32   `json:"uptime"` // 运行时间 S
}

// Memory Go 运行时内存，单位 KB
type Memory struct {
	HeapInuse   int32   `json:"heap_inuse"`
	HeapAlloc   int32   `json:"heap_alloc"`
	HeapObjects int32   `json:"heap_objects"`
	StackInuse  int32   `json:"stack_inuse"`
	Sys         int32   `json:"sys"`
	TotalAlloc  int32   `json:"total_alloc"`
	NumGC       uint32  `json:"num_gc"`
	GCCPU       float64 `json:"gc_cpu"`
	Goroutines  int32   `json:"goroutines"`
}

// Snapshot 服务统计快照
type Snapshot struct {
	On     string      `json:"on"`
	Proc   Proc        `json:"proc"`
	Units  UnitsSample `json:"units"`
	WsConn ConnsSample `json:"ws_conns"`
	WsFlow FlowSample  `json:"ws_flow"`
	Memory *Memory     `json:"memory,omitempty"`
}

// MeasureRuntime 获取进程信息。
func MeasureRuntime() Proc {
	defer recover()
	var memoryPriv, memoryVirtual int64
	var cpu float64
	process.ProcUsage(&cpu, &memoryPriv, &memoryVirtual)
	return Proc{
		CPU:    cpu,
		Priv:   toKB(uint64(memoryPriv)),
		Virt:   toKB(uint64(memoryVirtual)),
		Uptime: int32(time.Now().Sub(StartingTime).Seconds()),
	}
}

// MeasureMemory 获取 Go 运行时内存信息，会短暂停止所有协程。
func MeasureMemory() *Memory {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &Memory{
		HeapInuse:   toKB(m.HeapInuse),
		HeapAlloc:   toKB(m.HeapAlloc),
		HeapObjects: int32(m.HeapObjects),
		StackInuse:  toKB(m.StackInuse),
		Sys:         toKB(m.Sys),
		TotalAlloc:  toKB(m.TotalAlloc),
		NumGC:       m.NumGC,
		GCCPU:       m.GCCPUFraction,
		Goroutines:  int32(runtime.NumGoroutine()),
	}
}

// Measure 获取服务统计快照；full 时包含内存信息。
func Measure(full bool) Snapshot {
	s := Snapshot{
		On:     time.Now().Format(time.RFC3339Nano),
		Proc:   MeasureRuntime(),
		Units:  Units.GetSample(),
		WsConn: WsConns.GetSample(),
		WsFlow: WsFlow.GetSample(),
	}
	if full {
		s.Memory = MeasureMemory()
	}
	return s
}

// Converts the memory in bytes to KBs, otherwise it would overflow our int32
func toKB(v uint64) int32 {
	return int32(v / 1024)
}
