package yamlstore

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Patch describes a set of key/value mutations to apply to a document body.
// Set and Unset are applied in the order: all Unset first, then all Set,
// matching the teacher's convention of removals before additions within a
// single batch.
type Patch struct {
	Set   map[string]*yaml.Node
	Unset []string

	// CreateIntermediate controls whether a dotted Set key creates missing
	// intermediate mappings. When false (the default), a Set against an
	// absent parent mapping fails.
	CreateIntermediate bool
}

// ApplyPatch applies p to doc, returning a new Document (doc is untouched).
// Unsetting a missing key is a no-op. Setting a scalar where a mapping
// already exists is an error unless CreateIntermediate is set, matching
// §4.2: "setting a scalar where a mapping exists is an error unless the
// caller specified replacement."
func ApplyPatch(doc *Document, p Patch) (*Document, error) {
	out := doc.Clone()
	body := out.Body()

	for _, key := range p.Unset {
		if err := unsetDotted(body, key); err != nil {
			return nil, err
		}
	}
	for key, val := range p.Set {
		if err := setDotted(body, key, val, p.CreateIntermediate); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func unsetDotted(m *yaml.Node, dottedKey string) error {
	segs := strings.Split(dottedKey, ".")
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next := mapLookup(cur, seg)
		if next == nil {
			return nil // missing intermediate: no-op
		}
		if next.Kind != yaml.MappingNode {
			return nil // path runs through a scalar: treat as missing, no-op
		}
		cur = next
	}
	mapUnset(cur, segs[len(segs)-1])
	return nil
}

func setDotted(m *yaml.Node, dottedKey string, val *yaml.Node, createIntermediate bool) error {
	segs := strings.Split(dottedKey, ".")
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next := mapLookup(cur, seg)
		switch {
		case next == nil:
			if !createIntermediate {
				return fmt.Errorf("key %q: intermediate mapping %q does not exist", dottedKey, seg)
			}
			newMap := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			mapSet(cur, seg, newMap)
			cur = newMap
		case next.Kind == yaml.MappingNode:
			cur = next
		default:
			if !createIntermediate {
				return fmt.Errorf("key %q: %q is a scalar, not a mapping", dottedKey, seg)
			}
			newMap := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			mapSet(cur, seg, newMap)
			cur = newMap
		}
	}
	leaf := segs[len(segs)-1]
	if existing := mapLookup(cur, leaf); existing != nil && existing.Kind == yaml.MappingNode && val.Kind == yaml.ScalarNode && !createIntermediate {
		return fmt.Errorf("key %q: %q is a mapping; replacing it with a scalar requires CreateIntermediate", dottedKey, leaf)
	}
	mapSet(cur, leaf, val)
	return nil
}
