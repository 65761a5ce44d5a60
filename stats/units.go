// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// Units 全局单元解析统计
var Units = NewUnits()

// UnitsSample 单元解析计数采样
type UnitsSample struct {
	Parsed int64 `json:"parsed"` // 成功解析的单元
	Failed int64 `json:"failed"` // 解析失败的单元
	Bits   int64 `json:"bits"`   // 已记录的位数
	Bytes  int64 `json:"bytes"`  // 输入字节
}

// UnitCounter 单元解析统计接口
type UnitCounter interface {
	Add(bytes, bits int, failed bool)
	GetSample() UnitsSample
}

func (s *UnitsSample) clone() UnitsSample {
	return UnitsSample{
		Parsed: atomic.LoadInt64(&s.Parsed),
		Failed: atomic.LoadInt64(&s.Failed),
		Bits:   atomic.LoadInt64(&s.Bits),
		Bytes:  atomic.LoadInt64(&s.Bytes),
	}
}

type units struct {
	sample UnitsSample
}

// NewUnits 新建单元解析统计
func NewUnits() UnitCounter {
	return &units{}
}

func (u *units) Add(bytes, bits int, failed bool) {
	if failed {
		atomic.AddInt64(&u.sample.Failed, 1)
	} else {
		atomic.AddInt64(&u.sample.Parsed, 1)
	}
	atomic.AddInt64(&u.sample.Bits, int64(bits))
	atomic.AddInt64(&u.sample.Bytes, int64(bytes))
}

func (u *units) GetSample() UnitsSample {
	return u.sample.clone()
}
