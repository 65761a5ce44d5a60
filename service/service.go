// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cnotch/bitprobe/config"
	"github.com/cnotch/bitprobe/inspect"
	"github.com/cnotch/bitprobe/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
	"github.com/kelindar/rate"
	"github.com/pkg/errors"
)

// Service 网络服务对象(服务的入口)
type Service struct {
	context  context.Context
	cancel   context.CancelFunc
	logger   *xlog.Logger
	tlsusing bool
	http     *http.Server
	pool     *inspect.Pool
	cache    *inspect.Cache

	limitl  sync.Mutex
	limiter *rate.Limiter // nil: unlimited
}

// NewService 创建服务
func NewService(ctx context.Context, l *xlog.Logger) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context: ctx,
		cancel:  cancel,
		logger:  l,
		http:    new(http.Server),
		pool:    inspect.NewPool(config.Workers(), l),
	}
	s.pool.MaxUnitSize = config.MaxUnitSize()

	if ttl := config.CacheTTL(); ttl > 0 {
		s.cache = inspect.NewCache(ttl)
		s.pool.Cache = s.cache
		s.cache.StartPurge(ttl)
	}
	if n := config.RateLimit(); n > 0 {
		s.limiter = rate.New(n, time.Second)
	}

	// 设置 http 的Handler
	mux := http.NewServeMux()

	// 管理员控制台
	if consoleAppDir, ok := config.ConsoleAppDir(); ok {
		mux.Handle("/", http.FileServer(http.Dir(consoleAppDir)))
	}

	if config.Profile() {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.initApis(mux)
	s.initWebsocket(mux)
	s.http.Handler = mux

	// 定时清理已完成的任务，并记录解析统计
	scheduler.PeriodFunc(time.Minute, time.Minute, func() {
		if n := s.pool.Purge(config.JobRetention()); n > 0 {
			s.logger.Debugf("purged %d finished jobs", n)
		}
		units := stats.Units.GetSample()
		s.logger.Infof("units parsed %d, failed %d, bits %d", units.Parsed, units.Failed, units.Bits)
	}, "The task of purging finished jobs and logging unit counters(1minute)")

	s.logger.Info("service configured")
	return s, nil
}

// Handler returns the HTTP handler of the service.
func (s *Service) Handler() http.Handler {
	return s.http.Handler
}

// Listen starts the http (and optional https) listeners and blocks until
// the service is closed.
func (s *Service) Listen() error {
	defer s.Close()
	s.hookSignals()

	addr, err := address.Parse(config.Addr(), 8090)
	if err != nil {
		return errors.Wrapf(err, "listen address %q", config.Addr())
	}
	if err = s.listen(addr, nil); err != nil {
		return err
	}

	if tlsconf := config.GetTLSConfig(); tlsconf.Enabled() {
		if err = s.listenTLS(tlsconf); err != nil {
			// https 失败不影响 http 服务
			s.logger.Warnf("tls disabled: %v", err)
		}
	}

	s.logger.Infof("service started(%s).", config.Version)
	<-s.context.Done()
	return nil
}

func (s *Service) listenTLS(tlsconf *config.TLSConfig) error {
	conf, err := tlsconf.Load()
	if err != nil {
		return err
	}
	addr, err := address.Parse(tlsconf.ListenAddr, 443)
	if err != nil {
		return errors.Wrapf(err, "tls listen address %q", tlsconf.ListenAddr)
	}
	if err = s.listen(addr, conf); err != nil {
		return err
	}
	s.tlsusing = true
	return nil
}

// listen serves http on addr; conf enables tls.
func (s *Service) listen(addr *net.TCPAddr, conf *tls.Config) error {
	s.logger.Infof("starting the listener, addr = %s.", addr.String())

	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr.String())
	}
	if conf != nil {
		l = tls.NewListener(l, conf)
	}

	go func() {
		if err := s.http.Serve(l); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("listener %s stopped; %v", addr.String(), err)
		}
	}()
	return nil
}

// Close stops the listeners, cancels scheduled jobs and drains the pool.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	// 停止计划任务
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.http.Shutdown(ctx)

	// 等待排队的解析任务完成
	s.pool.Close()
}

// hookSignals closes the service on SIGINT or SIGTERM.
func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		s.logger.Warnf("received signal %s, exiting...", sig.String())
		s.Close()
		os.Exit(0)
	}
}
