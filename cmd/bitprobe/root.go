// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cnotch/bitprobe/config"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bitprobe",
		Short: "Inspect video bitstream syntax offline",
		Long: `bitprobe decodes the header syntax of H.264, HEVC, AV1 and VP9 units
into annotated trees, and rebuilds AV1 partition trees from symbol sequences.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSyntaxCommand())
	root.AddCommand(newPartitionCommand())
	return root
}
