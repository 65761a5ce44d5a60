// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

const testSps = "Z2QAH6zZQFAFuhAAAAMAEAAAAwPI8YMZYA=="

// sps, a broken sps, aud
func annexB(t testing.TB) []byte {
	sps, err := base64.StdEncoding.DecodeString(testSps)
	require.NoError(t, err)
	var out []byte
	out = append(out, 0, 0, 0, 1)
	out = append(out, sps...)
	out = append(out, 0, 0, 1, 0x67, 0x64)
	out = append(out, 0, 0, 1, 0x09, 0xf0)
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCodecOf(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		want     codec.Type
		wantErr  bool
	}{
		{"a.h264", "", codec.H264, false},
		{"a.265.zst", "", codec.HEVC, false},
		{"a.OBU", "", codec.AV1, false},
		{"a.bin", "vp9", codec.VP9, false},
		{"a.bin", "", codec.Unknown, true},
		{"a.h264", "mpeg2", codec.Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.explicit, func(t *testing.T) {
			got, err := codecOf(tt.name, tt.explicit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyntax_Text(t *testing.T) {
	path := writeFile(t, "stream.h264", annexB(t))

	out, err := execute(t, "syntax", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#0 h264 offset=4")
	assert.Contains(t, out, "meta: h264 profile=100 level=31 1280x720")
	assert.Contains(t, out, "    level_idc = 31 [24,32)")
	assert.Contains(t, out, "error: unexpected_end at bit 16 (byte 2) in constraint_set_flag[0]")
	assert.Contains(t, out, "primary_pic_type = 7")
}

func TestSyntax_ZstdJSON(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	path := writeFile(t, "stream.h264.zst", enc.EncodeAll(annexB(t), nil))
	enc.Close()

	out, err := execute(t, "syntax", "--format", "json", "--failed", path)
	require.NoError(t, err)

	var results []struct {
		Index int `json:"index"`
		Error struct {
			Field string `json:"field"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, "constraint_set_flag[0]", results[0].Error.Field)
}

func TestSyntax_PathYAML(t *testing.T) {
	path := writeFile(t, "stream.bin", annexB(t))

	out, err := execute(t, "syntax", "-c", "h264", "-f", "yaml", "-p", "seq_parameter_set_data.level_idc", path)
	require.NoError(t, err)

	var results []struct {
		Tree *struct {
			Root struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"root"`
		} `json:"tree"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	require.NotNil(t, results[0].Tree)
	assert.Equal(t, "level_idc", results[0].Tree.Root.Name)
	assert.Equal(t, "31", results[0].Tree.Root.Value)
	assert.Nil(t, results[2].Tree)
}

func TestSyntax_Errors(t *testing.T) {
	_, err := execute(t, "syntax", filepath.Join(t.TempDir(), "missing.h264"))
	assert.Error(t, err)

	path := writeFile(t, "stream.h264", annexB(t))
	_, err = execute(t, "syntax", "--format", "xml", path)
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	out, err := execute(t, "partition", "--frame", "64x64", "--symbols", "3, 0,0,0,0")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "  (32,32) 32x32 none", lines[3])
	assert.Equal(t, "4 blocks, 0 symbols left", lines[4])

	out, err = execute(t, "partition", "--frame", "64x64", "--symbols", "0", "-f", "json")
	require.NoError(t, err)
	var res struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Blocks, 1)
}

func TestPartition_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing frame", []string{"partition", "--symbols", "0"}},
		{"bad frame", []string{"partition", "--frame", "64", "--symbols", "0"}},
		{"bad symbol", []string{"partition", "--frame", "64x64", "--symbols", "0,x"}},
		{"bad superblock", []string{"partition", "--frame", "64x64", "--sb", "32x32", "--symbols", "0"}},
		{"exhausted", []string{"partition", "--frame", "64x64", "--symbols", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSyntax_RTP(t *testing.T) {
	// aud in one interleaved rtp packet, then a truncated frame
	capture := []byte{'$', 2, 0, 14, 0x80, 0x60, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0x09, 0xf0, '$', 2, 0}
	path := writeFile(t, "capture.rtp", capture)

	out, err := execute(t, "syntax", "--rtp", "--channel", "2", "-c", "h264", path)
	assert.Error(t, err)
	assert.Contains(t, out, "#0 h264 offset=0 size=2 kind=")
	assert.Contains(t, out, "primary_pic_type = 7")

	_, err = execute(t, "syntax", "--rtp", "-c", "vp9", path)
	assert.Error(t, err)
}
