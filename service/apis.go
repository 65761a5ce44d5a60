// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/bitprobe/config"
	"github.com/cnotch/bitprobe/network"
	"github.com/cnotch/bitprobe/stats"
)

var (
	buffers = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 1024*2))
		},
	}
	noLimitRequired = map[string]bool{
		"/api/v1/server":  true,
		"/api/v1/runtime": true,
		"/api/v1/stats":   true,
	}
)

var crossdomainxml = []byte(
	`<?xml version="1.0" ?><cross-domain-policy>
			<allow-access-from domain="*" />
			<allow-http-request-headers-from domain="*" headers="*"/>
		</cross-domain-policy>`)

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		// 系统信息类API
		apirouter.GET("/api/v1/server", s.onGetServerInfo),
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),
		apirouter.GET("/api/v1/stats", s.onGetStats),

		// 语法解析API
		apirouter.POST("/api/v1/syntax/{codec=*}", s.onParseSyntax),
		apirouter.POST("/api/v1/jobs/{codec=*}", s.onSubmitJob),
		apirouter.GET("/api/v1/jobs/{id=*}", s.onGetJob),
		apirouter.POST("/api/v1/partitions", s.onParsePartitions),
		apirouter.POST("/api/v1/sdp", s.onParseSdp),
		apirouter.POST("/api/v1/rtp/{codec=*}", s.onParseRtp),
	)

	iterc := apirouter.ChainInterceptor(apirouter.PreInterceptor(s.rateInterceptor))

	// api add to mux
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == "crossdomain.xml" {
			w.Header().Set("Content-Type", "application/xml")
			w.Write(crossdomainxml)
			return
		}

		path := strings.ToLower(r.URL.Path)
		if _, ok := noLimitRequired[path]; ok || iterc.PreHandle(w, r) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			api.ServeHTTP(w, r)
		}
	})
}

// 获取服务信息
func (s *Service) onGetServerInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type server struct {
		Vendor   string   `json:"vendor"`
		Name     string   `json:"name"`
		Version  string   `json:"version"`
		OS       string   `json:"os"`
		Arch     string   `json:"arch"`
		Addrs    []string `json:"addrs"`
		Workers  int      `json:"workers"`
		TLS      bool     `json:"tls"`
		StartOn  string   `json:"start_on"`
		Duration string   `json:"duration"`
	}
	srv := server{
		Vendor:   config.Vendor,
		Name:     config.Name,
		Version:  config.Version,
		OS:       strings.Title(runtime.GOOS),
		Arch:     strings.ToUpper(runtime.GOARCH),
		Addrs:    network.GetLocalIP(),
		Workers:  s.pool.Workers(),
		TLS:      s.tlsusing,
		StartOn:  stats.StartingTime.Format(time.RFC3339Nano),
		Duration: time.Now().Sub(stats.StartingTime).String(),
	}

	if err := jsonTo(w, &srv); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 获取运行时信息
func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	const extraKey = "extra"

	params := r.URL.Query()
	snapshot := stats.Measure(strings.TrimSpace(params.Get(extraKey)) == "1")

	if err := jsonTo(w, &snapshot); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 获取解析统计
func (s *Service) onGetStats(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type cacheStats struct {
		Enabled bool `json:"enabled"`
		Entries int  `json:"entries"`
	}
	type inspectStats struct {
		Units stats.UnitsSample `json:"units"`
		Jobs  int               `json:"jobs"`
		Cache cacheStats        `json:"cache"`
		Ws    stats.ConnsSample `json:"ws"`
		Flow  stats.FlowSample  `json:"ws_flow"`
	}

	st := inspectStats{
		Units: stats.Units.GetSample(),
		Jobs:  s.pool.Count(),
		Ws:    stats.WsConns.GetSample(),
		Flow:  stats.WsFlow.GetSample(),
	}
	if s.cache != nil {
		st.Cache = cacheStats{true, s.cache.Len()}
	}

	if err := jsonTo(w, &st); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func jsonTo(w io.Writer, o interface{}) error {
	formatted := buffers.Get().(*bytes.Buffer)
	formatted.Reset()
	defer buffers.Put(formatted)

	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	if err := json.Indent(formatted, body, "", "\t"); err != nil {
		return err
	}

	if rw, ok := w.(http.ResponseWriter); ok {
		rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	if _, err := w.Write(formatted.Bytes()); err != nil {
		return err
	}
	return nil
}

// readBody reads the request body up to the configured limit.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, config.MaxBodySize()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if len(body) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// 请求频率限制，本机访问不受限
func (s *Service) rateInterceptor(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter == nil || network.IsLocalhostIP(network.RemoteIP(r)) {
		return true
	}

	s.limitl.Lock()
	over := s.limiter.Limit()
	s.limitl.Unlock()
	if over {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return false
	}
	return true
}
