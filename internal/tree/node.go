// Package tree models schema-less configuration data as a tagged variant.
//
// A Node is one of three kinds: a scalar (string, bool, number, null), an
// ordered sequence of nodes, or a mapping from string keys to nodes. Mappings
// remember key insertion order so that serialized fragments keep their
// document order across a read-modify-write cycle.
//
// Key operations:
//   - YAML (de)serialization via yaml.v3 Marshaler/Unmarshaler
//   - Equal: deep structural equality
//   - Clone: deep copy, so the store can hold the only mutable reference
package tree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	// KindScalar is a leaf value: string, bool, int, float, or null.
	KindScalar Kind = iota + 1

	// KindSequence is an ordered list of nodes.
	KindSequence

	// KindMapping is a map of string keys to nodes with remembered key order.
	KindMapping
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Node is one node of a configuration tree.
// The zero value is invalid; use Scalar, Seq, or Map to construct nodes.
type Node struct {
	kind     Kind
	value    any
	items    []*Node
	keys     []string
	children map[string]*Node
}

// Scalar creates a scalar node holding v. A nil v represents YAML null.
func Scalar(v any) *Node {
	return &Node{kind: KindScalar, value: v}
}

// Seq creates a sequence node from the given items.
func Seq(items ...*Node) *Node {
	n := &Node{kind: KindSequence}
	n.items = append(n.items, items...)
	return n
}

// Map creates an empty mapping node.
func Map() *Node {
	return &Node{kind: KindMapping, children: make(map[string]*Node)}
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsMapping reports whether the node is a non-nil mapping.
func (n *Node) IsMapping() bool {
	return n != nil && n.kind == KindMapping
}

// Value returns the scalar value. It is nil for non-scalar nodes and for
// YAML null.
func (n *Node) Value() any {
	if n.kind != KindScalar {
		return nil
	}
	return n.value
}

// Items returns the sequence elements. The returned slice is the node's own
// backing storage; callers must not modify it.
func (n *Node) Items() []*Node {
	return n.items
}

// Append adds items to a sequence node.
func (n *Node) Append(items ...*Node) {
	n.items = append(n.items, items...)
}

// Keys returns the mapping keys in insertion order.
// The returned slice must not be modified.
func (n *Node) Keys() []string {
	return n.keys
}

// Len returns the number of sequence elements or mapping entries.
func (n *Node) Len() int {
	switch n.kind {
	case KindSequence:
		return len(n.items)
	case KindMapping:
		return len(n.keys)
	default:
		return 0
	}
}

// Get returns the child at key. It reports false if the node is not a
// mapping or the key is absent.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != KindMapping {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// Set stores child under key, appending the key to the order if it is new.
func (n *Node) Set(key string, child *Node) {
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
}

// Equal reports deep structural equality of two nodes. Mapping key order is
// not significant; sequence order is. A nil node equals only another nil.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindScalar:
		return a.value == b.value
	case KindSequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.children) != len(b.children) {
			return false
		}
		for key, av := range a.children {
			bv, ok := b.children[key]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindScalar:
		return Scalar(n.value)
	case KindSequence:
		clone := &Node{kind: KindSequence, items: make([]*Node, len(n.items))}
		for i, item := range n.items {
			clone.items[i] = item.Clone()
		}
		return clone
	case KindMapping:
		clone := Map()
		for _, key := range n.keys {
			clone.Set(key, n.children[key].Clone())
		}
		return clone
	default:
		return &Node{kind: n.kind}
	}
}

// Interface converts the tree to plain Go values: scalars as themselves,
// sequences as []any, mappings as map[string]any. Used for JSON output;
// mapping key order is lost.
func (n *Node) Interface() any {
	switch n.kind {
	case KindScalar:
		return n.value
	case KindSequence:
		items := make([]any, len(n.items))
		for i, item := range n.items {
			items[i] = item.Interface()
		}
		return items
	case KindMapping:
		m := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			m[key] = n.children[key].Interface()
		}
		return m
	default:
		return nil
	}
}

// UnmarshalYAML decodes a yaml.v3 node into the tree variant.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := fromYAML(value)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

// MarshalYAML encodes the tree back into a yaml.v3 node, preserving mapping
// key order.
func (n *Node) MarshalYAML() (interface{}, error) {
	return n.toYAML()
}

func fromYAML(value *yaml.Node) (*Node, error) {
	switch value.Kind {
	case yaml.DocumentNode:
		if len(value.Content) == 0 {
			return Map(), nil
		}
		return fromYAML(value.Content[0])
	case yaml.AliasNode:
		return fromYAML(value.Alias)
	case yaml.ScalarNode:
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode scalar at line %d: %w", value.Line, err)
		}
		return Scalar(v), nil
	case yaml.SequenceNode:
		seq := Seq()
		for _, item := range value.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			seq.Append(child)
		}
		return seq, nil
	case yaml.MappingNode:
		m := Map()
		for i := 0; i+1 < len(value.Content); i += 2 {
			var key string
			if err := value.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("failed to decode mapping key at line %d: %w", value.Content[i].Line, err)
			}
			child, err := fromYAML(value.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, child)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", value.Kind, value.Line)
	}
}

func (n *Node) toYAML() (*yaml.Node, error) {
	switch n.kind {
	case KindScalar:
		var yn yaml.Node
		if err := yn.Encode(n.value); err != nil {
			return nil, fmt.Errorf("failed to encode scalar: %w", err)
		}
		return &yn, nil
	case KindSequence:
		yn := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range n.items {
			child, err := item.toYAML()
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, child)
		}
		return yn, nil
	case KindMapping:
		yn := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range n.keys {
			var keyNode yaml.Node
			if err := keyNode.Encode(key); err != nil {
				return nil, fmt.Errorf("failed to encode mapping key %q: %w", key, err)
			}
			child, err := n.children[key].toYAML()
			if err != nil {
				return nil, err
			}
			yn.Content = append(yn.Content, &keyNode, child)
		}
		return yn, nil
	default:
		return nil, fmt.Errorf("cannot encode node of kind %d", n.kind)
	}
}
