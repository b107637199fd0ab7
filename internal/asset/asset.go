package asset

import (
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// BodyFileName is the reserved name of the content file inside an asset
// directory. Dot-prefixed so it can never collide with a template-derived
// basename (Compile rejects a name template that starts with '.').
const BodyFileName = ".onyo-asset.yaml"

// AnchorFileName is the reserved empty marker placed in every tracked
// directory (including asset directories) so git records otherwise-empty
// directories.
const AnchorFileName = ".anchor"

// Asset is a single inventory item: a path inside the tree plus its YAML
// document, known against the Template that governs its name shape.
type Asset struct {
	Path            string // full path relative to the inventory root
	Doc             *yamlstore.Document
	IsAssetDirectory bool
}

// Dir returns the parent directory of the asset's path.
func (a *Asset) Dir() string { return path.Dir(a.Path) }

// Name returns the asset's basename.
func (a *Asset) Name() string { return path.Base(a.Path) }

// BoundValues extracts the values currently stored in the document body for
// each of t's fields.
func BoundValues(t *Template, doc *yamlstore.Document) map[string]string {
	result := make(map[string]string, len(t.fields))
	for _, f := range t.fields {
		if val, kind := yamlstore.Get(doc.Body(), f); kind == yamlstore.KindScalar {
			if s, ok := yamlstore.ScalarString(val); ok {
				result[f] = s
			}
		}
	}
	return result
}

// Bind writes name-bound field values into the document body, in place on a
// clone of doc, as required on create and rename (spec §4.3: "on create and
// on rename, the engine writes the bound-field values into the document
// body and the path simultaneously").
func Bind(t *Template, doc *yamlstore.Document, values map[string]string) (*yamlstore.Document, error) {
	set := make(map[string]*yaml.Node, len(t.fields))
	for _, f := range t.fields {
		if v, ok := values[f]; ok {
			set[f] = yamlstore.NewScalar(v)
		}
	}
	return yamlstore.ApplyPatch(doc, yamlstore.Patch{Set: set})
}

// ValidateNoBoundKeyMutation checks that patch does not touch any of t's
// bound fields, as required for modify-asset (spec §4.5: "patch does not
// touch bound fields").
func ValidateNoBoundKeyMutation(t *Template, path string, setKeys, unsetKeys []string) error {
	bound := make(map[string]bool, len(t.fields))
	for _, f := range t.fields {
		bound[f] = true
	}
	for _, k := range setKeys {
		if bound[k] {
			return &ierr.BoundKeyMutationError{Path: path, Key: k}
		}
	}
	for _, k := range unsetKeys {
		if bound[k] {
			return &ierr.BoundKeyMutationError{Path: path, Key: k}
		}
	}
	return nil
}

// SortedTemplateFields returns t's fields sorted for stable display.
func SortedTemplateFields(t *Template) []string {
	fields := t.Fields()
	sort.Strings(fields)
	return fields
}
