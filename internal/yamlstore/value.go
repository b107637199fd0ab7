package yamlstore

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind classifies a node's shape, independent of its scalar tag.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindSequence
	KindMapping
	KindUnset
)

// Get resolves a dotted key path against mapping m (typically Document.Body()).
// Returns (nil, KindUnset) if any segment is missing.
func Get(m *yaml.Node, dottedKey string) (*yaml.Node, ValueKind) {
	segs := strings.Split(dottedKey, ".")
	cur := m
	for _, seg := range segs {
		if cur == nil || cur.Kind != yaml.MappingNode {
			return nil, KindUnset
		}
		val := mapLookup(cur, seg)
		if val == nil {
			return nil, KindUnset
		}
		cur = val
	}
	return cur, kindOf(cur)
}

func kindOf(n *yaml.Node) ValueKind {
	switch n.Kind {
	case yaml.MappingNode:
		return KindMapping
	case yaml.SequenceNode:
		return KindSequence
	default:
		return KindScalar
	}
}

// mapLookup returns the value node for key in mapping node m, or nil.
func mapLookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mapSet sets key=val in mapping node m, in place, preserving existing key
// order (updates) or appending (new keys).
func mapSet(m *yaml.Node, key string, val *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = val
			return
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	m.Content = append(m.Content, keyNode, val)
}

// mapUnset removes key from mapping node m, if present. No-op if missing.
func mapUnset(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}

// ScalarString renders a scalar node's value as a plain Go string, for
// query output and the body-field binding checks. Returns ("", false) for
// non-scalar nodes.
func ScalarString(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// NewScalar builds a plain (unquoted unless necessary) string scalar node.
func NewScalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// NewScalarAuto builds a scalar node, inferring int/float/bool/string tags
// the way a hand-typed YAML value would, for values supplied on the CLI
// via -k key=value.
func NewScalarAuto(s string) *yaml.Node {
	if s == "true" || s == "false" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: s}
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
	}
	return NewScalar(s)
}
