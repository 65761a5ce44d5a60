// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/cnotch/bitprobe/av/codec"
	"github.com/cnotch/bitprobe/inspect"
	"github.com/cnotch/bitprobe/syntax"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type syntaxOptions struct {
	codec       string
	path        string
	format      string
	maxUnitSize int
	failedOnly  bool
	rtp         bool
	channel     uint8
}

// 扩展名到编码的映射
var codecExts = map[string]codec.Type{
	".h264": codec.H264,
	".264":  codec.H264,
	".avc":  codec.H264,
	".h265": codec.HEVC,
	".265":  codec.HEVC,
	".hevc": codec.HEVC,
	".obu":  codec.AV1,
	".av1":  codec.AV1,
	".vp9":  codec.VP9,
}

func newSyntaxCommand() *cobra.Command {
	opts := syntaxOptions{}
	cmd := &cobra.Command{
		Use:   "syntax FILE",
		Short: "Decode the syntax of every unit in a file",
		Long: `Decode every unit of an elementary stream file. Annex B byte streams
are read for H.264 and HEVC, low overhead OBU streams for AV1 and raw
frames or superframes for VP9. With --rtp the file is an RTSP interleaved
capture of H.264 or HEVC RTP packets. A .zst suffix is decompressed first.
Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyntax(cmd.OutOrStdout(), args[0], &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.codec, "codec", "c", "", "codec: h264, hevc, av1, vp9 (default: from the file extension)")
	flags.StringVarP(&opts.path, "path", "p", "", "print only the node at this dot path, e.g. seq_parameter_set_data.level_idc")
	flags.StringVarP(&opts.format, "format", "f", "text", "output format: text, json, yaml")
	flags.IntVar(&opts.maxUnitSize, "max-unit-size", 0, "largest unit decoded, in bytes (0: unlimited)")
	flags.BoolVar(&opts.failedOnly, "failed", false, "print only units that failed to decode")
	flags.BoolVar(&opts.rtp, "rtp", false, "input is an RTSP interleaved RTP capture (h264, hevc)")
	flags.Uint8Var(&opts.channel, "channel", 0, "interleaved channel of the video RTP packets")
	return cmd
}

func runSyntax(w io.Writer, name string, opts *syntaxOptions) error {
	ct, err := codecOf(name, opts.codec)
	if err != nil {
		return err
	}
	data, err := readInput(name)
	if err != nil {
		return err
	}

	sess, err := inspect.NewSession(ct)
	if err != nil {
		return err
	}
	sess.MaxUnitSize = opts.maxUnitSize

	var results []*inspect.Result
	if opts.rtp {
		// a framing error keeps the units read before it
		results, err = sess.ParseRTP(data, opts.channel)
		if err != nil && len(results) == 0 {
			return err
		}
	} else {
		results = sess.ParseAll(data)
	}

	var out []*inspect.Result
	for _, res := range results {
		if opts.failedOnly && !res.Failed() {
			continue
		}
		if opts.path != "" {
			res = selectPath(res, opts.path)
		}
		out = append(out, res)
	}

	enc, encErr := newEncoder(opts.format)
	if encErr != nil {
		return encErr
	}
	if encErr = enc(w, resultList(out)); encErr != nil {
		return encErr
	}
	return err
}

// codecOf uses the explicit codec name or the extension of the file name.
func codecOf(name, explicit string) (codec.Type, error) {
	if explicit != "" {
		return codec.ParseType(explicit)
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(name, ".zst")))
	if ct, ok := codecExts[ext]; ok {
		return ct, nil
	}
	return codec.Unknown, errors.Errorf("cannot tell the codec of %q, use --codec", name)
}

// readInput reads a file, or standard input for "-", decompressing a
// zstd file.
func readInput(name string) ([]byte, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "zstd")
		}
		defer dec.Close()
		r = dec
	}

	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return data, nil
}

// selectPath replaces the tree of res by the subtree at path. The root
// segment may be left out.
func selectPath(res *inspect.Result, path string) *inspect.Result {
	tree := res.Tree
	if tree == nil && res.Error != nil {
		tree = res.Error.Partial
	}
	if tree == nil || tree.Root == nil {
		return res
	}

	if !strings.HasPrefix(path, tree.Root.Name+".") && path != tree.Root.Name {
		path = tree.Root.Name + "." + path
	}
	sel := *res
	sel.Tree = nil
	if n := tree.Get(path); n != nil {
		sel.Tree = &syntax.Tree{Root: n}
	}
	if sel.Error != nil {
		e := *sel.Error
		e.Partial = nil
		sel.Error = &e
	}
	return &sel
}
