// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cnotch/bitprobe/av/partition"
	"github.com/cnotch/bitprobe/utils/scan"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type partitionOptions struct {
	frame    string
	sb       string
	symbols  string
	maxDepth int
	format   string
}

func newPartitionCommand() *cobra.Command {
	opts := partitionOptions{}
	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Rebuild AV1 partition trees from a symbol sequence",
		Long: `Rebuild the partition trees of one frame from recorded partition
symbols, superblocks in raster order and children in index order.`,
		Example: `  bitprobe partition --frame 64x64 --symbols 3,0,0,0,0`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPartition(cmd.OutOrStdout(), &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.frame, "frame", "", "frame size WxH in pixels")
	flags.StringVar(&opts.sb, "sb", "64x64", "superblock size: 64x64 or 128x128")
	flags.StringVar(&opts.symbols, "symbols", "", "comma separated partition symbols")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "recursion ceiling (0: default)")
	flags.StringVarP(&opts.format, "format", "f", "text", "output format: text, json, yaml")
	_ = cmd.MarkFlagRequired("frame")
	return cmd
}

// partitionResult is the output of the partition command.
type partitionResult struct {
	Trees     []*partition.Node `json:"trees"`
	Blocks    []partition.Block `json:"blocks"`
	Remaining int               `json:"remaining"`
}

func runPartition(w io.Writer, opts *partitionOptions) error {
	width, height, err := parseFrameSize(opts.frame)
	if err != nil {
		return err
	}
	sb, err := partition.ParseBlockSize(opts.sb)
	if err != nil {
		return err
	}
	symbols, err := parseSymbols(opts.symbols)
	if err != nil {
		return err
	}

	src := partition.NewScriptedSource(symbols...)
	p := partition.Parser{Source: src, MaxDepth: opts.maxDepth}
	trees, err := p.ParseFrame(width, height, sb)
	if err != nil {
		return err
	}

	enc, err := newEncoder(opts.format)
	if err != nil {
		return err
	}
	return enc(w, &partitionResult{
		Trees:     trees,
		Blocks:    partition.FlattenAll(trees),
		Remaining: src.Remaining(),
	})
}

func (r *partitionResult) writeText(w *bufio.Writer) {
	for _, b := range r.Blocks {
		fmt.Fprintf(w, "%s(%d,%d) %dx%d %s\n", strings.Repeat("  ", b.Depth), b.X, b.Y, b.Width, b.Height, b.Partition)
	}
	fmt.Fprintf(w, "%d blocks, %d symbols left\n", len(r.Blocks), r.Remaining)
}

func parseFrameSize(s string) (int, int, error) {
	ws, hs, ok := scan.DimensionPair.Scan(strings.ToLower(s))
	if !ok {
		return 0, 0, errors.Errorf("frame size %q, want WxH", s)
	}
	width, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "frame width %q", ws)
	}
	height, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "frame height %q", hs)
	}
	return width, height, nil
}

func parseSymbols(s string) ([]uint8, error) {
	var symbols []uint8
	for _, token := range scan.Comma.Tokens(s) {
		v, err := strconv.ParseUint(token, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %q", token)
		}
		symbols = append(symbols, uint8(v))
	}
	return symbols, nil
}
