// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cnotch/bitprobe/utils/bits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder()
	b.Push("unit[0]", 0)
	require.NoError(t, b.AddField("a", bits.Range{Start: 0, End: 3}, "5"))
	b.Push("inner", 3)
	require.NoError(t, b.AddField("b", bits.Range{Start: 3, End: 4}, "1"))
	assert.Equal(t, 2, b.Depth())
	require.NoError(t, b.Pop(4))
	require.NoError(t, b.Pop(4))

	tree, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "unit[0]", tree.Root.Name)
	assert.Equal(t, KindContainer, tree.Root.Kind())
	assert.Equal(t, bits.Range{Start: 0, End: 4}, tree.Root.Range)

	b2 := tree.Get("unit[0].inner.b")
	require.NotNil(t, b2)
	assert.Equal(t, KindField, b2.Kind())
	assert.Equal(t, "1", b2.Value)
}

func TestBuilder_Misuse(t *testing.T) {
	t.Run("pop_empty", func(t *testing.T) {
		err := NewBuilder().Pop(0)
		assert.True(t, errors.Is(err, ErrBuilderMisuse))
	})
	t.Run("field_outside", func(t *testing.T) {
		err := NewBuilder().AddField("x", bits.Range{Start: 0, End: 1}, "0")
		assert.True(t, errors.Is(err, ErrBuilderMisuse))
	})
	t.Run("build_open", func(t *testing.T) {
		b := NewBuilder()
		b.Push("root", 0)
		_, err := b.Build()
		assert.True(t, errors.Is(err, ErrBuilderMisuse))
	})
	t.Run("build_empty", func(t *testing.T) {
		_, err := NewBuilder().Build()
		assert.True(t, errors.Is(err, ErrBuilderMisuse))
	})
	t.Run("two_roots", func(t *testing.T) {
		b := NewBuilder()
		b.Push("a", 0)
		require.NoError(t, b.Pop(0))
		b.Push("b", 0)
		require.NoError(t, b.Pop(0))
		_, err := b.Build()
		assert.True(t, errors.Is(err, ErrBuilderMisuse))
	})
	t.Run("close_before_start", func(t *testing.T) {
		b := NewBuilder()
		b.Push("a", 8)
		assert.True(t, errors.Is(b.Pop(7), ErrBuilderMisuse))
	})
}

func TestBuilder_Partial(t *testing.T) {
	b := NewBuilder()
	b.Push("root", 0)
	require.NoError(t, b.AddField("a", bits.Range{Start: 0, End: 4}, "1"))
	b.Push("inner", 4)
	require.NoError(t, b.AddField("b", bits.Range{Start: 4, End: 6}, "2"))

	p := b.Partial()
	require.NotNil(t, p)
	assert.Equal(t, bits.Range{Start: 0, End: 6}, p.Root.Range)
	assert.Equal(t, bits.Range{Start: 4, End: 6}, p.Get("root.inner").Range)
	assert.Equal(t, 2, b.Depth(), "partial must not change the builder")
	assert.Len(t, b.stack[0].Children, 1)
}

func TestTree_GetMissing(t *testing.T) {
	tree := sampleTree(t)
	assert.Nil(t, tree.Get(""))
	assert.Nil(t, tree.Get("other"))
	assert.Nil(t, tree.Get("unit[0].nope"))
	assert.Nil(t, tree.Get("unit[0].header.seq_profile.deeper"))
	assert.Nil(t, (*Tree)(nil).Get("unit[0]"))
	assert.NotNil(t, tree.Get("unit[0]"))
}

func TestTree_FieldsAndAt(t *testing.T) {
	tree := sampleTree(t)
	fields := tree.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"seq_profile", "still_picture", "tail"}, names)

	assert.Equal(t, "still_picture", tree.At(3).Name)
	assert.Equal(t, "seq_profile", tree.At(0).Name)
	assert.Equal(t, "tail", tree.At(9).Name)
	assert.Nil(t, tree.At(12))
}

func TestTree_Remap(t *testing.T) {
	tree := sampleTree(t)
	shifted := tree.Remap(func(bit int) int {
		if bit >= 8 {
			return bit + 8
		}
		return bit
	})
	assert.Equal(t, bits.Range{Start: 4, End: 20}, shifted.Get("unit[0].tail").Range)
	assert.Equal(t, bits.Range{Start: 0, End: 20}, shifted.Root.Range)
	assert.Equal(t, bits.Range{Start: 4, End: 12}, tree.Get("unit[0].tail").Range, "original untouched")
}

func TestNode_JSON(t *testing.T) {
	tree := sampleTree(t)
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"container"`)
	assert.Contains(t, string(data), `"name":"seq_profile","kind":"field","range":{"start":0,"end":3},"value":"0"`)

	var back Tree
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tree, &back)
}

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	b := NewBuilder()
	b.Push("unit[0]", 0)
	b.Push("header", 0)
	require.NoError(t, b.AddField("seq_profile", bits.Range{Start: 0, End: 3}, "0"))
	require.NoError(t, b.AddField("still_picture", bits.Range{Start: 3, End: 4}, "1"))
	require.NoError(t, b.Pop(4))
	require.NoError(t, b.AddField("tail", bits.Range{Start: 4, End: 12}, "skipped(8)"))
	require.NoError(t, b.Pop(12))
	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}
