// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"encoding/json"
	"net/http"
	"path"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/config"
	"github.com/cnotch/bitprobe/inspect"
	"github.com/cnotch/bitprobe/network/websocket"
	"github.com/cnotch/bitprobe/stats"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
)

const (
	wsInspectPrefix = "/ws/inspect/"
	wsPingPeriod    = 15 * time.Second
)

// wsControl is a text message from the client.
type wsControl struct {
	Op string `json:"op"` // reset
}

// wsError is sent when a message cannot be inspected at all.
type wsError struct {
	Error string `json:"error"`
}

func (s *Service) initWebsocket(mux *http.ServeMux) {
	mux.HandleFunc(wsInspectPrefix, s.onWebsocketInspect)
}

// 通过 websocket 持续解析码流，每个二进制消息是一段码流
func (s *Service) onWebsocketInspect(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(path.Base(r.URL.Path))
	ct, err := codec.ParseType(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, err := inspect.NewSession(ct)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.limiter != nil && !s.rateInterceptor(w, r) {
		return
	}

	conn, ok := websocket.TryUpgrade(w, r, r.URL.Path)
	if !ok {
		return
	}

	go s.serveInspectConn(conn, ct, sess)
}

func (s *Service) serveInspectConn(conn *websocket.Conn, ct codec.Type, sess *inspect.Session) {
	logger := s.logger.With(xlog.Fields(
		xlog.F("conn", conn.ID()),
		xlog.F("codec", ct.String()),
		xlog.F("addr", conn.RemoteAddr().String())))

	stats.WsConns.Add()
	flow := stats.NewChildFlow(stats.WsFlow)
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("websocket inspect panic; %v \n %s", r, debug.Stack())
			conn.CloseWithReason(websocket.CloseInternalError, "internal error")
		}
		conn.Close()
		stats.WsConns.Release()
		sample := flow.GetSample()
		logger.Infof("websocket closed, in %d messages (%d bytes), out %d results (%d bytes)",
			sample.InMessages, sample.InBytes, sample.OutMessages, sample.OutBytes)
	}()

	logger.Info("websocket opened")
	timeout := config.NetTimeout()
	conn.KeepAlive(wsPingPeriod, timeout)
	sess.MaxUnitSize = config.MaxUnitSize()

	for {
		conn.SetReadDeadline(time.Now().Add(timeout))
		opCode, data, err := conn.ReadMessage(config.MaxBodySize())
		if err != nil {
			if errors.Is(err, websocket.ErrMessageTooLarge) {
				if err := s.wsReply(conn, flow, wsError{err.Error()}); err != nil {
					return
				}
				continue
			}
			if !websocket.IsClosed(err) {
				logger.Warnf("websocket read failed; %v", err)
			}
			return
		}
		flow.AddIn(int64(len(data)))

		if opCode == websocket.TextMessage {
			var ctl wsControl
			if err := json.Unmarshal(data, &ctl); err != nil || ctl.Op != "reset" {
				conn.CloseWithReason(websocket.CloseUnsupportedData, "unknown control message")
				return
			}
			// 新码流，丢弃之前的参数集
			sess, _ = inspect.NewSession(ct)
			sess.MaxUnitSize = config.MaxUnitSize()
			if logger.LevelEnabled(xlog.DebugLevel) {
				logger.Debugf("session reset, new session %s", sess.ID())
			}
			continue
		}

		for _, result := range sess.ParseAll(data) {
			if err := s.wsReply(conn, flow, result); err != nil {
				if !websocket.IsClosed(err) {
					logger.Warnf("websocket write failed; %v", err)
				}
				return
			}
		}
	}
}

func (s *Service) wsReply(conn *websocket.Conn, flow stats.Flow, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	flow.AddOut(int64(len(body)))
	return conn.WriteText(body)
}
