package onyotui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/onyo-cli/onyo/internal/inventory"
)

// RenderBodyDiff produces a unified diff of a single asset's body content,
// per spec §4.6 render_diff: "per asset, unified-diff hunks of body
// changes."
func RenderBodyDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	unified := gotextdiff.ToUnified(path, path, before, edits)
	return fmt.Sprint(unified)
}

// RenderOperationsSummary renders the "Inventory Operations Summary"
// section spec §4.6 requires alongside the diff: counts by op kind, and
// affected paths in lexicographic order.
func RenderOperationsSummary(ops []inventory.Operation) string {
	var b strings.Builder
	counts := map[inventory.OpKind]int{}
	var paths []string
	for _, op := range ops {
		counts[op.Kind()]++
		paths = append(paths, op.AffectedPaths()...)
	}

	b.WriteString(styleHeading.Render("Inventory Operations Summary") + "\n")
	for _, k := range []inventory.OpKind{
		inventory.OpNewDirectory, inventory.OpNewAsset, inventory.OpModifyAsset,
		inventory.OpRenameAsset, inventory.OpMoveAsset, inventory.OpMoveDirectory,
		inventory.OpRemoveAsset, inventory.OpRemoveDirectory,
		inventory.OpConvertToAssetDir, inventory.OpConvertFromAssetDir,
	} {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", k, n)
		}
	}
	for _, p := range uniqueSorted(paths) {
		fmt.Fprintf(&b, "  - %s\n", p)
	}
	return b.String()
}

func uniqueSorted(paths []string) []string {
	seen := map[string]bool{}
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
