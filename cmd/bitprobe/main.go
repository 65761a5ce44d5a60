// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command bitprobe inspects bitstream files offline.
package main

import (
	"os"

	"github.com/cnotch/xlog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		xlog.Errorf("%v", err)
		os.Exit(1)
	}
}
