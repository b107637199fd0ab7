// Package yamlstore is onyo's round-trip YAML reader/writer. It preserves
// key insertion order, scalar quoting style, and comments across a
// load-then-dump cycle, and exposes a pure apply-patch operation for
// key/value mutation on an in-memory document.
package yamlstore

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/ierr"
)

// Document wraps a parsed YAML document, keeping its underlying node tree
// so comments, ordering, and scalar style survive a dump.
type Document struct {
	root *yaml.Node // DocumentNode
}

// Empty returns a new Document with an empty top-level mapping.
func Empty() *Document {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}
	return &Document{root: doc}
}

// Load parses path's content, preserving insertion order, comments, and
// scalar style. Returns MalformedDocumentError if the content is not
// parseable, or if the top-level node is not a mapping.
func Load(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ierr.MalformedDocumentError{Path: path, Cause: err}
	}
	if len(root.Content) == 0 {
		// "---" alone (e.g. the empty template): synthesize an empty mapping.
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = []*yaml.Node{mapping}
	}
	body := root.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &ierr.MalformedDocumentError{Path: path, Cause: fmt.Errorf("top-level YAML node must be a mapping, got kind %d", body.Kind)}
	}
	return &Document{root: &root}, nil
}

// Dump renders the document with a leading "---" marker. dump(load(x)) is
// the identity on well-formed input apart from trailing whitespace.
func (d *Document) Dump() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("---")) {
		out = append([]byte("---\n"), out...)
	}
	return out, nil
}

// Body returns the top-level mapping node.
func (d *Document) Body() *yaml.Node {
	return d.root.Content[0]
}

// Clone returns a deep copy of the document, used by the transaction
// engine's copy-on-write overlay so staged mutations never touch the
// Repository View's cached state.
func (d *Document) Clone() *Document {
	return &Document{root: deepCopy(d.root)}
}

func deepCopy(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		cp.Content[i] = deepCopy(c)
	}
	return &cp
}
