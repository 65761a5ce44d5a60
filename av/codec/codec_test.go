// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		want    Type
		wantErr bool
	}{
		{"av1", AV1, false},
		{"H264", H264, false},
		{"avc", H264, false},
		{"h265", HEVC, false},
		{"hevc", HEVC, false},
		{"vp9", VP9, false},
		{"vvc", Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.name)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestType_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Codec Type `json:"codec"`
	}{HEVC})
	require.NoError(t, err)
	assert.Equal(t, `{"codec":"hevc"}`, string(data))

	var v struct {
		Codec Type `json:"codec"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"codec":"av1"}`), &v))
	assert.Equal(t, AV1, v.Codec)
}
