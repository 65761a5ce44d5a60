// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

import (
	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/pkg/errors"
)

// DefaultMaxDepth bounds the partition tree depth when Parser.MaxDepth is 0.
// A 128x128 superblock reaches 4x4 blocks at depth 5.
const DefaultMaxDepth = 12

// Node is one block of a partition tree. A node without children is a
// coded block.
type Node struct {
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Size      BlockSize     `json:"size"`
	Partition PartitionType `json:"partition"`
	Children  []*Node       `json:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Boundary supplies the frame-edge context of blocks below the root.
type Boundary interface {
	// Flags returns has_rows and has_cols for a block.
	Flags(x, y int, size BlockSize) (hasRows, hasCols bool)
	// Contains reports whether a block origin lies inside the frame.
	// Blocks outside are neither decoded nor added to the tree.
	Contains(x, y int) bool
}

// FrameBoundary is the Boundary of a frame of the given luma size.
type FrameBoundary struct {
	Width  int
	Height int
}

// Flags implements Boundary.
func (fb FrameBoundary) Flags(x, y int, size BlockSize) (hasRows, hasCols bool) {
	return y+size.Height()/2 < fb.Height, x+size.Width()/2 < fb.Width
}

// Contains implements Boundary.
func (fb FrameBoundary) Contains(x, y int) bool {
	return x < fb.Width && y < fb.Height
}

// Parser rebuilds partition trees from a SymbolSource.
type Parser struct {
	Source   SymbolSource
	MaxDepth int      // 0 means DefaultMaxDepth
	Boundary Boundary // nil: children inherit the root flags
}

type workItem struct {
	node             *Node
	depth            int
	hasRows, hasCols bool
}

func (p *Parser) maxDepth() int {
	if p.MaxDepth > 0 {
		return p.MaxDepth
	}
	return DefaultMaxDepth
}

// Parse decodes the partition tree of one block, children in index order.
// It returns no tree on error.
func (p *Parser) Parse(x, y int, size BlockSize, hasRows, hasCols bool) (*Node, error) {
	if p.Source == nil {
		return nil, errors.Wrap(bits.ErrInvalidArgument, "partition parser without a symbol source")
	}
	if !size.Valid() {
		return nil, errors.Wrapf(bits.ErrInvalidArgument, "block size %d", uint8(size))
	}

	root := &Node{X: x, Y: y, Size: size}
	stack := []workItem{{node: root, hasRows: hasRows, hasCols: hasCols}}
	maxDepth := p.maxDepth()

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := item.node

		if item.depth > maxDepth {
			return nil, errors.Wrapf(bits.ErrInvalidData, "partition depth %d exceeds %d at %s (%d,%d)", item.depth, maxDepth, n.Size, n.X, n.Y)
		}

		sym, err := p.Source.ReadPartition(SizeClass(n.Size), item.hasRows, item.hasCols)
		if err != nil {
			return nil, errors.Wrapf(err, "partition of %s at (%d,%d)", n.Size, n.X, n.Y)
		}
		pt, err := TypeOf(sym)
		if err != nil {
			return nil, errors.Wrapf(err, "%s at (%d,%d)", n.Size, n.X, n.Y)
		}
		if !pt.IsAllowed(n.Size) {
			return nil, errors.Wrapf(bits.ErrInvalidData, "partition %s not allowed for %s at (%d,%d)", pt, n.Size, n.X, n.Y)
		}
		n.Partition = pt
		if pt == None {
			continue
		}

		sizes, ok := pt.SubBlockSizes(n.Size)
		if !ok {
			return nil, errors.Wrapf(bits.ErrInvalidData, "partition %s of %s has no sub-block size", pt, n.Size)
		}
		for i, sub := range sizes {
			cx, cy := pt.ChildPosition(n.X, n.Y, i, n.Size)
			if p.Boundary != nil && !p.Boundary.Contains(cx, cy) {
				continue
			}
			n.Children = append(n.Children, &Node{X: cx, Y: cy, Size: sub})
		}

		// reversed so that child 0 is decoded first
		for i := len(n.Children) - 1; i >= 0; i-- {
			c := n.Children[i]
			child := workItem{node: c, depth: item.depth + 1, hasRows: item.hasRows, hasCols: item.hasCols}
			if p.Boundary != nil {
				child.hasRows, child.hasCols = p.Boundary.Flags(c.X, c.Y, c.Size)
			}
			stack = append(stack, child)
		}
	}
	return root, nil
}
