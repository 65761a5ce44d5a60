// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/scheduler"
	"github.com/dchest/siphash"
)

// Cache keeps the results of whole-stream parses, keyed by a keyed hash of
// the codec and the payload. Cached results are shared and must not be
// modified.
type Cache struct {
	key [16]byte
	ttl time.Duration

	l       sync.Mutex
	entries map[uint64]*cacheEntry
}

type cacheEntry struct {
	codec   codec.Type
	size    int
	results []*Result
	expires time.Time
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		ttl:     ttl,
		entries: make(map[uint64]*cacheEntry),
	}
	// 随机密钥，避免外部构造冲突
	if _, err := rand.Read(c.key[:]); err != nil {
		panic(err)
	}
	return c
}

func (c *Cache) sum(ct codec.Type, data []byte) uint64 {
	h := siphash.New(c.key[:])
	h.Write([]byte{byte(ct)})
	h.Write(data)
	return h.Sum64()
}

// Get returns the cached results for data, if still fresh.
func (c *Cache) Get(ct codec.Type, data []byte) ([]*Result, bool) {
	k := c.sum(ct, data)

	c.l.Lock()
	defer c.l.Unlock()
	e, ok := c.entries[k]
	if !ok || e.codec != ct || e.size != len(data) {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, k)
		return nil, false
	}
	return e.results, true
}

// Put stores the results for data.
func (c *Cache) Put(ct codec.Type, data []byte, results []*Result) {
	k := c.sum(ct, data)

	c.l.Lock()
	c.entries[k] = &cacheEntry{
		codec:   ct,
		size:    len(data),
		results: results,
		expires: time.Now().Add(c.ttl),
	}
	c.l.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.l.Lock()
	defer c.l.Unlock()
	return len(c.entries)
}

// Purge removes the expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	now := time.Now()
	removed := 0

	c.l.Lock()
	defer c.l.Unlock()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// StartPurge schedules Purge every period. The job ends with the other
// scheduler jobs when the service closes.
func (c *Cache) StartPurge(period time.Duration) {
	scheduler.PeriodFunc(period, period, func() {
		c.Purge()
	}, "The task of purging expired inspection results")
}
