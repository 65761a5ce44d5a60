// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"strings"

	"github.com/cnotch/bitprobe/utils/bits"
)

// Tree is a finished syntax tree rooted at one container.
// It is read-only once built and may be shared between goroutines.
type Tree struct {
	Root *Node `json:"root"`
}

// Get looks a node up by its dot-joined path, starting with the root name,
// e.g. "unit[0].sequence_header.seq_profile". It returns nil when any
// segment is missing.
func (t *Tree) Get(path string) *Node {
	if t == nil || t.Root == nil || path == "" {
		return nil
	}

	segs := strings.Split(path, ".")
	if segs[0] != t.Root.Name {
		return nil
	}
	n := t.Root
	for _, seg := range segs[1:] {
		if n = n.Child(seg); n == nil {
			return nil
		}
	}
	return n
}

// Walk visits nodes in stream order. Returning false from fn skips the
// node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(n *Node, depth int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Fields returns the leaves in stream order.
func (t *Tree) Fields() []*Node {
	var fields []*Node
	t.Walk(func(n *Node, _ int) bool {
		if !n.IsContainer() {
			fields = append(fields, n)
		}
		return true
	})
	return fields
}

// At returns the deepest node whose range contains bit, or nil.
func (t *Tree) At(bit int) *Node {
	if t == nil || t.Root == nil || !t.Root.Range.Contains(bit) {
		return nil
	}

	n := t.Root
	for {
		var next *Node
		for _, c := range n.Children {
			if c.Range.Contains(bit) {
				next = c
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// Remap returns a copy of the tree whose bit positions are translated by fn.
// It is used to report RBSP positions against the escaped NAL unit.
func (t *Tree) Remap(fn func(bit int) int) *Tree {
	if t == nil || t.Root == nil {
		return t
	}
	return &Tree{Root: remap(t.Root, fn)}
}

func remap(n *Node, fn func(int) int) *Node {
	c := &Node{
		Name:  n.Name,
		Range: remapRange(n.Range, fn),
		Value: n.Value,
		kind:  n.kind,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = remap(child, fn)
		}
	}
	return c
}

func remapRange(r bits.Range, fn func(int) int) bits.Range {
	start := fn(r.Start)
	if r.Len() <= 0 {
		return bits.Range{Start: start, End: start}
	}
	return bits.Range{Start: start, End: fn(r.End-1) + 1}
}
