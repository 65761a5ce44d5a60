// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
)

// Pool errors
var (
	ErrPoolClosed  = errors.New("inspect: pool closed")
	ErrJobNotFound = errors.New("inspect: job not found")
)

// JobStatus 任务状态
type JobStatus int32

// 任务状态常量
const (
	JobPending JobStatus = iota
	JobRunning
	JobDone
	JobFailed // the worker panicked; Error holds the cause
)

var jobStatusNames = [...]string{"pending", "running", "done", "failed"}

func (s JobStatus) String() string {
	if int(s) < len(jobStatusNames) {
		return jobStatusNames[s]
	}
	return "unknown"
}

// MarshalText marshals the status to text.
func (s JobStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// JobInfo is a snapshot of a job.
type JobInfo struct {
	ID         string     `json:"id"`
	Codec      codec.Type `json:"codec"`
	Status     JobStatus  `json:"status"`
	Size       int        `json:"size"`
	Units      int        `json:"units"`
	Failed     int        `json:"failed"` // units with an error
	Cached     bool       `json:"cached,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedOn  string     `json:"created_on"`
	FinishedOn string     `json:"finished_on,omitempty"`
	Results    []*Result  `json:"results,omitempty"`
}

// job is one stream; its units are parsed in order by a single worker.
type job struct {
	id       string
	codec    codec.Type
	data     []byte
	size     int
	created  time.Time
	finished time.Time
	status   JobStatus
	cached   bool
	err      string
	results  []*Result
	done     chan struct{}
}

// Pool runs whole-stream parses on a fixed number of workers. Independent
// streams are parsed concurrently; the units of one stream stay in order.
type Pool struct {
	// MaxUnitSize is handed to every Session; set before the first Submit.
	MaxUnitSize int
	// Cache, when set, short-cuts streams parsed before.
	Cache *Cache

	workers int
	closed  bool // guarded by l
	queue   *queue.SyncQueue
	wg      sync.WaitGroup
	logger  *xlog.Logger

	l    sync.RWMutex
	jobs map[string]*job
}

// NewPool starts a pool with n workers.
func NewPool(n int, logger *xlog.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	if logger == nil {
		logger = xlog.L()
	}
	p := &Pool{
		workers: n,
		queue:   queue.NewSyncQueue(),
		logger:  logger,
		jobs:    make(map[string]*job),
	}

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.work(i)
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Submit queues one stream and returns the job id.
func (p *Pool) Submit(ct codec.Type, data []byte) (string, error) {
	if _, err := NewSession(ct); err != nil {
		return "", err
	}

	j := &job{
		id:      jobKey(NewID(), uint64(ct)),
		codec:   ct,
		data:    data,
		size:    len(data),
		created: time.Now(),
		done:    make(chan struct{}),
	}

	// the job must reach the queue before Close's stop markers
	p.l.Lock()
	defer p.l.Unlock()
	if p.closed {
		return "", ErrPoolClosed
	}
	p.jobs[j.id] = j
	p.queue.Push(j)
	return j.id, nil
}

// Get returns a snapshot of the job.
func (p *Pool) Get(id string) (*JobInfo, error) {
	p.l.RLock()
	defer p.l.RUnlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, errors.Wrapf(ErrJobNotFound, "%q", id)
	}
	return j.info(), nil
}

// Wait blocks until the job has finished or ctx is done.
func (p *Pool) Wait(ctx context.Context, id string) (*JobInfo, error) {
	p.l.RLock()
	j, ok := p.jobs[id]
	p.l.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrJobNotFound, "%q", id)
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.Get(id)
}

// Purge forgets finished jobs older than age and returns how many were removed.
func (p *Pool) Purge(age time.Duration) int {
	deadline := time.Now().Add(-age)
	removed := 0

	p.l.Lock()
	defer p.l.Unlock()
	for id, j := range p.jobs {
		if j.status >= JobDone && j.finished.Before(deadline) {
			delete(p.jobs, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of known jobs.
func (p *Pool) Count() int {
	p.l.RLock()
	defer p.l.RUnlock()
	return len(p.jobs)
}

// Close stops the workers once the queued jobs are done.
func (p *Pool) Close() error {
	p.l.Lock()
	if p.closed {
		p.l.Unlock()
		return nil
	}
	p.closed = true
	p.l.Unlock()

	// one stop marker per worker
	for i := 0; i < p.workers; i++ {
		p.queue.Push((*job)(nil))
	}
	p.wg.Wait()
	p.queue.Reset()
	return nil
}

func (p *Pool) work(n int) {
	defer p.wg.Done()
	logger := p.logger.With(xlog.Fields(xlog.F("worker", n)))

	for {
		x := p.queue.Pop()
		if x == nil {
			continue
		}

		j := x.(*job)
		if j == nil {
			return
		}
		p.run(j, logger)
	}
}

func (p *Pool) run(j *job, logger *xlog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("inspect job panic；r = %v \n %s", r, debug.Stack())
			p.finish(j, nil, JobFailed, fmt.Sprint(r))
		}
	}()

	p.setStatus(j, JobRunning)
	if p.Cache != nil {
		if results, ok := p.Cache.Get(j.codec, j.data); ok {
			p.l.Lock()
			j.cached = true
			p.l.Unlock()
			p.finish(j, results, JobDone, "")
			return
		}
	}

	s, err := NewSession(j.codec)
	if err != nil {
		p.finish(j, nil, JobFailed, err.Error())
		return
	}
	s.MaxUnitSize = p.MaxUnitSize

	start := time.Now()
	results := s.ParseAll(j.data)
	if logger.LevelEnabled(xlog.DebugLevel) {
		logger.Debugf("job %s: %d units of %s in %v", j.id, len(results), j.codec, time.Since(start))
	}
	if p.Cache != nil {
		p.Cache.Put(j.codec, j.data, results)
	}
	p.finish(j, results, JobDone, "")
}

func (p *Pool) setStatus(j *job, status JobStatus) {
	p.l.Lock()
	j.status = status
	p.l.Unlock()
}

func (p *Pool) finish(j *job, results []*Result, status JobStatus, cause string) {
	p.l.Lock()
	j.results = results
	j.status = status
	j.err = cause
	j.finished = time.Now()
	j.data = nil // 尽早释放
	p.l.Unlock()
	close(j.done)
}

func (j *job) info() *JobInfo {
	info := &JobInfo{
		ID:        j.id,
		Codec:     j.codec,
		Status:    j.status,
		Size:      j.size,
		Units:     len(j.results),
		Cached:    j.cached,
		Error:     j.err,
		CreatedOn: j.created.Format(time.RFC3339Nano),
		Results:   j.results,
	}
	for _, r := range j.results {
		if r.Failed() {
			info.Failed++
		}
	}
	if !j.finished.IsZero() {
		info.FinishedOn = j.finished.Format(time.RFC3339Nano)
	}
	return info
}
