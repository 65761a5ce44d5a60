// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package network

import (
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteIP(t *testing.T) {
	tests := []struct {
		remote string
		want   net.IP
	}{
		{"127.0.0.1:5000", net.ParseIP("127.0.0.1")},
		{"[::1]:80", net.ParseIP("::1")},
		{"10.1.2.3", net.ParseIP("10.1.2.3")},
		{"pipe", nil},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			got := RemoteIP(&http.Request{RemoteAddr: tt.remote})
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestIsLocalhostIP(t *testing.T) {
	assert.True(t, IsLocalhostIP(net.ParseIP("127.0.0.1")))
	assert.True(t, IsLocalhostIP(net.ParseIP("::1")))
	assert.False(t, IsLocalhostIP(net.ParseIP("8.8.8.8")))
	assert.False(t, IsLocalhostIP(nil))
}
