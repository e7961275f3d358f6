package fragio

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/netfold/netfold/internal/tree"
)

// Parse decodes one fragment's raw bytes into a tree. Empty input (including
// comment-only documents) yields an empty mapping.
func Parse(data []byte) (*tree.Node, error) {
	var n tree.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	if n.Kind() == 0 {
		// yaml.v3 never invokes the unmarshaler for an empty document.
		return tree.Map(), nil
	}
	return &n, nil
}

// Serialize encodes a tree as YAML with two-space indentation. Serialize and
// Parse round-trip for every tree the merge combinator can produce.
func Serialize(node *tree.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to serialize fragment: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize fragment: %w", err)
	}
	return buf.Bytes(), nil
}
