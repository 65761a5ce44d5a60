/**********************************************************************************
* Copyright (c) 2009-2017 Misakai Ltd.
* This program is free software: you can redistribute it and/or modify it under the
* terms of the GNU Affero General Public License as published by the  Free Software
* Foundation, either version 3 of the License, or(at your option) any later version.
*
* This program is distributed  in the hope that it  will be useful, but WITHOUT ANY
* WARRANTY;  without even  the implied warranty of MERCHANTABILITY or FITNESS FOR A
* PARTICULAR PURPOSE.  See the GNU Affero General Public License  for  more details.
*
* You should have  received a copy  of the  GNU Affero General Public License along
* with this program. If not, see<http://www.gnu.org/licenses/>.
************************************************************************************/
//
// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package websocket

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// 消息类型
const (
	TextMessage   = websocket.TextMessage
	BinaryMessage = websocket.BinaryMessage
)

// 关闭代码
const (
	CloseNormalClosure   = websocket.CloseNormalClosure
	CloseUnsupportedData = websocket.CloseUnsupportedData
	CloseInternalError   = websocket.CloseInternalServerErr
)

// ErrMessageTooLarge is returned by ReadMessage for a message above the limit.
var ErrMessageTooLarge = errors.New("websocket: message too large")

// Subprotocol is offered to clients; replies are JSON text messages.
const Subprotocol = "bitprobe.json"

const (
	writeWait = 10 * time.Second // Time allowed to write a message to the peer.
)

type websocketConn interface {
	NextReader() (messageType int, r io.Reader, err error)
	NextWriter(messageType int) (io.WriteCloser, error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Subprotocol() string
}

// The default upgrader to use
var upgrader = &websocket.Upgrader{
	Subprotocols: []string{Subprotocol},
	CheckOrigin:  func(r *http.Request) bool { return true },
}

// Conn is a message oriented websocket connection. Reads must come from one
// goroutine; writes may come from several.
type Conn struct {
	wl        sync.Mutex
	socket    websocketConn
	id        string
	path      string
	closing   chan bool
	closeOnce sync.Once
}

// TryUpgrade attempts to upgrade an HTTP request to a websocket connection.
func TryUpgrade(w http.ResponseWriter, r *http.Request, path string) (*Conn, bool) {
	if w == nil || r == nil {
		return nil, false
	}

	if ws, err := upgrader.Upgrade(w, r, nil); err == nil {
		return newConn(ws, path), true
	}

	return nil, false
}

// newConn wraps an upgraded socket.
func newConn(ws websocketConn, path string) *Conn {
	return &Conn{
		socket:  ws,
		id:      uuid.New().String(),
		path:    path,
		closing: make(chan bool),
	}
}

// ID returns the connection id.
func (c *Conn) ID() string { return c.id }

// Path returns the request path the connection was opened on.
func (c *Conn) Path() string { return c.path }

// Subprotocol returns the negotiated subprotocol.
func (c *Conn) Subprotocol() string { return c.socket.Subprotocol() }

// ReadMessage returns the next text or binary message. With limit > 0 a
// longer message is drained and reported as ErrMessageTooLarge; the
// connection stays usable.
func (c *Conn) ReadMessage(limit int64) (int, []byte, error) {
	for {
		opCode, r, err := c.socket.NextReader()
		if err != nil {
			return 0, nil, err
		}
		if opCode != BinaryMessage && opCode != TextMessage {
			continue
		}

		if limit <= 0 {
			data, err := ioutil.ReadAll(r)
			return opCode, data, err
		}

		data, err := ioutil.ReadAll(io.LimitReader(r, limit+1))
		if err != nil {
			return opCode, nil, err
		}
		if int64(len(data)) > limit {
			n, _ := io.Copy(ioutil.Discard, r)
			return opCode, nil, errors.Wrapf(ErrMessageTooLarge, "%d bytes, limit %d", int64(len(data))+n, limit)
		}
		return opCode, data, nil
	}
}

// WriteText sends one text message.
func (c *Conn) WriteText(b []byte) error {
	return c.write(TextMessage, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}

// WriteJSON encodes v as one text message.
func (c *Conn) WriteJSON(v interface{}) error {
	return c.write(TextMessage, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	})
}

func (c *Conn) write(messageType int, fn func(w io.Writer) error) (err error) {
	// Serialize write to avoid concurrent write
	c.wl.Lock()
	defer c.wl.Unlock()

	c.socket.SetWriteDeadline(time.Now().Add(writeWait))
	var w io.WriteCloser
	if w, err = c.socket.NextWriter(messageType); err != nil {
		return
	}
	if err = fn(w); err != nil {
		w.Close()
		return
	}
	return w.Close()
}

// KeepAlive pings the peer every period until the connection closes. Each
// pong pushes the read deadline idle further out.
func (c *Conn) KeepAlive(period, idle time.Duration) {
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(idle))
	})

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-c.closing:
				return
			case <-ticker.C:
				if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()
}

// CloseWithReason sends a close frame before closing the connection.
func (c *Conn) CloseWithReason(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	c.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return c.Close()
}

// Close terminates the connection.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.closing)
		err = c.socket.Close()
	})
	return
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.socket.RemoteAddr()
}

// SetReadDeadline sets the deadline for the next ReadMessage.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.socket.SetReadDeadline(t)
}

// IsClosed reports whether err means the peer went away.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Cause(err) == io.EOF
}
