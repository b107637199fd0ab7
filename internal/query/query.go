// Package query implements onyo's read-only matcher over assets: path
// inclusion/exclusion, depth bounds, key=regex predicates, dotted-key
// projection, and stable multi-key natural-order sorting (spec §4.7).
package query

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/onyo-cli/onyo/internal/inventory"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// Predicate is a single key=regex match clause (spec §4.7: "AND-combined").
type Predicate struct {
	Key   string
	Regex *regexp.Regexp
}

// SortKey carries a projection key and its sort direction.
type SortKey struct {
	Key        string
	Descending bool
}

// Params bundles a Get call's parameters.
type Params struct {
	Include []string
	Exclude []string
	Depth   int // 0 = unbounded
	Match   []Predicate
	Keys    []string // projection; empty means "path only"
	Sort    []SortKey
}

// Row is one matched asset's projected values, keyed by the requested
// dotted keys, plus its path and underlying document (sort keys may probe
// the document for fields outside the requested projection).
type Row struct {
	Path   string
	Values map[string]string // key -> rendered value ("[unset]", "[dict]", "[list]", or scalar text)
	Doc    *yamlstore.Document
}

// Source is the narrow read surface Get needs from a Repository View.
type Source interface {
	AssetPaths(ctx context.Context, subtree string, depth int) ([]string, error)
	Document(ctx context.Context, p string) (*yamlstore.Document, error)
}

var _ Source = (*inventory.View)(nil)

// Get runs the query described by p against src and returns matching rows,
// deterministically ordered per p.Sort (spec §4.7, invariant: "get rows are
// deterministic under fixed include/exclude/sort inputs").
func Get(ctx context.Context, src Source, p Params) ([]Row, error) {
	includes := p.Include
	if len(includes) == 0 {
		includes = []string{"."}
	}

	candidateSet := map[string]bool{}
	for _, inc := range includes {
		paths, err := src.AssetPaths(ctx, path.Clean(inc), p.Depth)
		if err != nil {
			return nil, err
		}
		for _, ap := range paths {
			candidateSet[ap] = true
		}
	}

	for _, exc := range p.Exclude {
		exc = path.Clean(exc)
		for ap := range candidateSet {
			if ap == exc || strings.HasPrefix(ap, exc+"/") {
				delete(candidateSet, ap)
			}
		}
	}

	var rows []Row
	for ap := range candidateSet {
		doc, err := src.Document(ctx, ap)
		if err != nil {
			return nil, err
		}
		if !matches(doc, p.Match) {
			continue
		}
		values := make(map[string]string, len(p.Keys))
		for _, k := range p.Keys {
			values[k] = render(doc, k)
		}
		rows = append(rows, Row{Path: ap, Values: values, Doc: doc})
	}

	sortRows(rows, p.Sort)
	return rows, nil
}

func matches(doc *yamlstore.Document, preds []Predicate) bool {
	for _, pr := range preds {
		val, kind := yamlstore.Get(doc.Body(), pr.Key)
		var text string
		switch kind {
		case yamlstore.KindUnset:
			text = "[unset]"
		case yamlstore.KindMapping:
			text = "[dict]"
		case yamlstore.KindSequence:
			text = "[list]"
		default:
			text, _ = yamlstore.ScalarString(val)
		}
		if !pr.Regex.MatchString(text) {
			return false
		}
	}
	return true
}

// render projects a dotted key to its display string, per spec §4.7:
// "missing yields [unset]; composite values render as [dict]/[list]".
func render(doc *yamlstore.Document, key string) string {
	val, kind := yamlstore.Get(doc.Body(), key)
	switch kind {
	case yamlstore.KindUnset:
		return "[unset]"
	case yamlstore.KindMapping:
		return "[dict]"
	case yamlstore.KindSequence:
		return "[list]"
	default:
		s, _ := yamlstore.ScalarString(val)
		return s
	}
}

// CompilePredicates parses "key=pattern" clauses into AND-combined
// Predicates. The regex is never anchored (spec: "unanchored, matches if
// any substring matches").
func CompilePredicates(clauses []string) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(clauses))
	for _, c := range clauses {
		idx := strings.Index(c, "=")
		if idx < 0 {
			return nil, &MalformedMatchError{Clause: c}
		}
		key, pattern := c[:idx], c[idx+1:]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &MalformedMatchError{Clause: c}
		}
		preds = append(preds, Predicate{Key: key, Regex: re})
	}
	return preds, nil
}

// MalformedMatchError indicates a -M/--match clause was not "key=regex".
type MalformedMatchError struct {
	Clause string
}

func (e *MalformedMatchError) Error() string {
	return "Error: malformed match clause '" + e.Clause + "'\n  Context: expected 'key=regex'\n  Fix: quote the clause and include exactly one '='"
}
