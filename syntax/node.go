// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package syntax

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cnotch/bitprobe/utils/bits"
)

// Kind 节点类型
type Kind int

// 节点类型常量
const (
	KindField Kind = iota
	KindContainer
)

// String returns a lower-case ASCII representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindContainer:
		return "container"
	default:
		return ""
	}
}

// MarshalText marshals the Kind to text.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText unmarshals text to a Kind.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "field":
		*k = KindField
	case "container":
		*k = KindContainer
	default:
		return fmt.Errorf("unrecognized node kind: %q", text)
	}
	return nil
}

// Node is one field or container of a syntax tree.
// A field carries a display value and no children; a container carries
// children and its range spans them once closed.
type Node struct {
	Name     string     `json:"name"`
	Range    bits.Range `json:"range"`
	Value    string     `json:"value,omitempty"`
	Children []*Node    `json:"children,omitempty"`
	kind     Kind
}

// Kind returns whether the node is a field or a container.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsContainer reports whether the node is a container.
func (n *Node) IsContainer() bool {
	return n.kind == KindContainer
}

// Child returns the first direct child with the given name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type jsonNode struct {
	Name     string     `json:"name"`
	Kind     Kind       `json:"kind"`
	Range    bits.Range `json:"range"`
	Value    string     `json:"value,omitempty"`
	Children []*Node    `json:"children,omitempty"`
}

// MarshalJSON marshals the node including its kind.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonNode{
		Name:     n.Name,
		Kind:     n.kind,
		Range:    n.Range,
		Value:    n.Value,
		Children: n.Children,
	})
}

// UnmarshalJSON unmarshals a node produced by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return err
	}
	*n = Node{
		Name:     jn.Name,
		Range:    jn.Range,
		Value:    jn.Value,
		Children: jn.Children,
		kind:     jn.Kind,
	}
	return nil
}

// Index formats an indexed syntax element name, e.g. operating_points[2].
func Index(name string, i int) string {
	return fmt.Sprintf("%s[%d]", name, i)
}
