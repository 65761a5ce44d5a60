// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package partition

// Block is one coded block of a flattened partition tree.
type Block struct {
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Partition PartitionType `json:"partition"`
	Depth     int           `json:"depth"`
}

// Flatten lists the leaves of a tree depth-first with their nesting depth.
// The tree is not modified.
func Flatten(root *Node) []Block {
	var blocks []Block
	return appendLeaves(blocks, root, 0)
}

// FlattenAll flattens several trees, e.g. the superblocks of a frame.
func FlattenAll(roots []*Node) []Block {
	var blocks []Block
	for _, root := range roots {
		blocks = appendLeaves(blocks, root, 0)
	}
	return blocks
}

func appendLeaves(blocks []Block, n *Node, depth int) []Block {
	if n == nil {
		return blocks
	}
	if n.IsLeaf() {
		return append(blocks, Block{
			X:         n.X,
			Y:         n.Y,
			Width:     n.Size.Width(),
			Height:    n.Size.Height(),
			Partition: n.Partition,
			Depth:     depth,
		})
	}
	for _, c := range n.Children {
		blocks = appendLeaves(blocks, c, depth+1)
	}
	return blocks
}
