// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cnotch/bitprobe/inspect"
	"github.com/cnotch/bitprobe/syntax"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

type encoder func(w io.Writer, v interface{}) error

func newEncoder(format string) (encoder, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return writeText, nil
	case "json":
		return writeJSON, nil
	case "yaml", "yml":
		return writeYAML, nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	body, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// textWriter is implemented by values with a text rendition.
type textWriter interface {
	writeText(w *bufio.Writer)
}

func writeText(w io.Writer, v interface{}) error {
	bw := bufio.NewWriter(w)
	if tw, ok := v.(textWriter); ok {
		tw.writeText(bw)
	} else {
		fmt.Fprintf(bw, "%v\n", v)
	}
	return bw.Flush()
}

// writeTree prints one node per line, indented by depth.
func writeTree(w *bufio.Writer, t *syntax.Tree, indent string) {
	t.Walk(func(n *syntax.Node, depth int) bool {
		w.WriteString(indent)
		w.WriteString(strings.Repeat("  ", depth))
		if n.IsContainer() {
			fmt.Fprintf(w, "%s [%d,%d)\n", n.Name, n.Range.Start, n.Range.End)
			return true
		}
		fmt.Fprintf(w, "%s = %s [%d,%d)\n", n.Name, n.Value, n.Range.Start, n.Range.End)
		return true
	})
}

type resultList []*inspect.Result

func (l resultList) writeText(w *bufio.Writer) {
	for _, res := range l {
		fmt.Fprintf(w, "#%d %s offset=%d size=%d", res.Index, res.Codec, res.Offset, res.Size)
		if res.Kind != "" {
			fmt.Fprintf(w, " kind=%s", res.Kind)
		}
		if !res.Failed() {
			fmt.Fprintf(w, " bits=%d", res.Bits())
		}
		w.WriteByte('\n')

		if res.Meta != nil {
			fmt.Fprintf(w, "  meta: %s profile=%d level=%d %dx%d\n", res.Meta.Codec,
				res.Meta.Profile, res.Meta.Level, res.Meta.Width, res.Meta.Height)
		}
		if e := res.Error; e != nil {
			fmt.Fprintf(w, "  error: %s at bit %d (byte %d)", e.Code, e.BitOffset, e.ByteOffset)
			if e.Field != "" {
				fmt.Fprintf(w, " in %s", e.Field)
			}
			fmt.Fprintf(w, ": %s\n", e.Cause)
			if e.Partial != nil {
				writeTree(w, e.Partial, "  ")
			}
			continue
		}
		if res.Tree != nil {
			writeTree(w, res.Tree, "  ")
		}
	}
}
