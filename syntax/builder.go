// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// ErrBuilderMisuse is returned when containers are pushed and popped out of balance.
var ErrBuilderMisuse = errors.New("syntax: builder misuse")

// Builder accumulates a syntax tree with an explicit stack of open containers.
type Builder struct {
	stack []*Node
	roots []*Node
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Depth returns the number of open containers.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Push opens a container starting at the given bit position.
func (b *Builder) Push(name string, start int) {
	b.stack = append(b.stack, &Node{
		Name:  name,
		Range: bits.Range{Start: start, End: start},
		kind:  KindContainer,
	})
}

// AddField appends a field to the innermost open container.
func (b *Builder) AddField(name string, r bits.Range, value string) error {
	if len(b.stack) == 0 {
		return errors.Wrapf(ErrBuilderMisuse, "field %s outside any container", name)
	}
	top := b.stack[len(b.stack)-1]
	top.Children = append(top.Children, &Node{
		Name:  name,
		Range: r,
		Value: value,
		kind:  KindField,
	})
	return nil
}

// Pop closes the innermost container at end and attaches it to its parent,
// or makes it a root when no container remains open.
func (b *Builder) Pop(end int) error {
	if len(b.stack) == 0 {
		return errors.Wrap(ErrBuilderMisuse, "pop on empty container stack")
	}
	top := b.stack[len(b.stack)-1]
	if end < top.Range.Start {
		return errors.Wrapf(ErrBuilderMisuse, "container %s closed at %d before its start %d", top.Name, end, top.Range.Start)
	}
	b.stack = b.stack[:len(b.stack)-1]
	top.Range.End = end

	if len(b.stack) == 0 {
		b.roots = append(b.roots, top)
		return nil
	}
	parent := b.stack[len(b.stack)-1]
	parent.Children = append(parent.Children, top)
	return nil
}

// Build returns the finished tree. Every container must be closed and
// exactly one root must exist.
func (b *Builder) Build() (*Tree, error) {
	if len(b.stack) != 0 {
		return nil, errors.Wrapf(ErrBuilderMisuse, "%d containers still open, innermost %s", len(b.stack), b.stack[len(b.stack)-1].Name)
	}
	switch len(b.roots) {
	case 0:
		return nil, errors.Wrap(ErrBuilderMisuse, "nothing was built")
	case 1:
		return &Tree{Root: b.roots[0]}, nil
	default:
		return nil, errors.Wrapf(ErrBuilderMisuse, "%d roots", len(b.roots))
	}
}

// Partial returns a snapshot for diagnostics: every open container is copied
// and closed at the end of its last child. The builder is left unchanged.
func (b *Builder) Partial() *Tree {
	if len(b.stack) == 0 {
		if len(b.roots) == 0 {
			return nil
		}
		return &Tree{Root: b.roots[0]}
	}

	var cur *Node
	for i := len(b.stack) - 1; i >= 0; i-- {
		open := b.stack[i]
		n := &Node{
			Name:     open.Name,
			Range:    open.Range,
			Children: append([]*Node(nil), open.Children...),
			kind:     KindContainer,
		}
		if cur != nil {
			n.Children = append(n.Children, cur)
		}
		if len(n.Children) > 0 {
			n.Range.End = n.Children[len(n.Children)-1].Range.End
		}
		cur = n
	}
	return &Tree{Root: cur}
}
