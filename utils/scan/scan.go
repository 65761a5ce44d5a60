// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scan splits the small delimited strings found in SDP attributes
// and command line values.
package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 预定义扫描器
var (
	// 逗号分割
	Comma = NewScanner(',', unicode.IsSpace)
	// 分号分割
	Semicolon = NewScanner(';', unicode.IsSpace)

	// EqualPair 扫描 K=V 这类形式的Pair字串
	EqualPair = NewPair('=', func(r rune) bool {
		return unicode.IsSpace(r) || r == '"'
	})
	// DimensionPair 扫描 WxH 这类形式的尺寸
	DimensionPair = NewPair('x', unicode.IsSpace)
)

func noTrim(rune) bool { return false }

// Scanner 按分隔符逐个提取 token
type Scanner struct {
	delim    rune
	delimLen int
	trimFunc func(r rune) bool
}

// NewScanner 创建扫描器; a nil trimFunc trims nothing.
func NewScanner(delim rune, trimFunc func(r rune) bool) Scanner {
	if trimFunc == nil {
		trimFunc = noTrim
	}
	return Scanner{
		delim:    delim,
		delimLen: utf8.RuneLen(delim),
		trimFunc: trimFunc,
	}
}

// Scan returns the first token of str and the rest after the delimiter.
// continueScan is false once str holds no more delimiter.
func (s Scanner) Scan(str string) (advance, token string, continueScan bool) {
	i := strings.IndexRune(str, s.delim)
	if i < 0 {
		return "", strings.TrimFunc(str, s.trimFunc), false
	}

	return strings.TrimFunc(str[i+s.delimLen:], s.trimFunc), strings.TrimFunc(str[:i], s.trimFunc), true
}

// Each calls fn with every non-empty token until fn returns false.
func (s Scanner) Each(str string, fn func(token string) bool) {
	advance := str
	for continueScan := true; continueScan; {
		var token string
		advance, token, continueScan = s.Scan(advance)
		if token != "" && !fn(token) {
			return
		}
	}
}

// Tokens returns the non-empty tokens of str.
func (s Scanner) Tokens(str string) []string {
	var tokens []string
	s.Each(str, func(token string) bool {
		tokens = append(tokens, token)
		return true
	})
	return tokens
}

// Pair 从字串扫描 Key Value 值
type Pair struct {
	delim    rune
	delimLen int
	trimFunc func(r rune) bool
}

// NewPair 新建 Pair 扫描器
func NewPair(delim rune, trimFunc func(r rune) bool) Pair {
	if trimFunc == nil {
		trimFunc = noTrim
	}
	return Pair{
		delim:    delim,
		delimLen: utf8.RuneLen(delim),
		trimFunc: trimFunc,
	}
}

// Scan splits s at the first delimiter.
func (p Pair) Scan(s string) (key, value string, found bool) {
	i := strings.IndexRune(s, p.delim)
	if i < 0 {
		return s, "", false
	}

	return strings.TrimFunc(s[:i], p.trimFunc),
		strings.TrimFunc(s[i+p.delimLen:], p.trimFunc), true
}

// Lookup finds the value of key, case-insensitively, among the pairs of
// a list split by list.
func (p Pair) Lookup(s string, list Scanner, key string) (value string, found bool) {
	list.Each(s, func(token string) bool {
		k, v, ok := p.Scan(token)
		if ok && strings.EqualFold(k, key) {
			value, found = v, true
			return false
		}
		return true
	})
	return
}
