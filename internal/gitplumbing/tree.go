package gitplumbing

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ListTracked lists all files tracked by git under subtree (relative to the
// repository root, "" or "." for the whole tree).
func (g *Git) ListTracked(ctx context.Context, subtree string) ([]string, error) {
	args := []string{"ls-files"}
	if subtree != "" && subtree != "." {
		args = append(args, "--", subtree)
	}
	lines, err := g.RunLines(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %w", err)
	}
	sort.Strings(lines)
	return lines, nil
}

// ListTree lists entries at ref under subdir. Directory entries are
// suffixed with "/". Empty ref means HEAD.
func (g *Git) ListTree(ctx context.Context, ref, subdir string) ([]string, error) {
	target := ref
	if target == "" {
		target = "HEAD"
	}
	args := []string{"ls-tree", target}
	if subdir != "" && subdir != "." {
		args = append(args, strings.TrimSuffix(subdir, "/")+"/")
	}
	out, err := g.Run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git ls-tree failed: %w", err)
	}
	return parseTreeOutput(out, subdir), nil
}

func parseTreeOutput(output, subdir string) []string {
	lines := strings.Split(output, "\n")
	var items []string
	for _, l := range lines {
		parts := strings.Fields(l)
		if len(parts) < 4 {
			continue
		}
		objType := parts[1]
		fullPath := strings.Join(parts[3:], " ")

		relName := fullPath
		if subdir != "" && subdir != "." {
			cleanSub := strings.TrimSuffix(subdir, "/") + "/"
			if !strings.HasPrefix(fullPath, cleanSub) {
				continue
			}
			relName = strings.TrimPrefix(fullPath, cleanSub)
		}
		if relName == "" {
			continue
		}
		if objType == "tree" {
			items = append(items, relName+"/")
		} else {
			items = append(items, relName)
		}
	}
	sort.Strings(items)
	return items
}

// ReadBlob returns the bytes of path as it exists at revision (a committish
// like "HEAD" or a SHA; "" means HEAD), with trailing whitespace trimmed.
func (g *Git) ReadBlob(ctx context.Context, path, revision string) ([]byte, error) {
	rev := revision
	if rev == "" {
		rev = "HEAD"
	}
	out, err := g.Run(ctx, "show", fmt.Sprintf("%s:%s", rev, path))
	if err != nil {
		return nil, fmt.Errorf("read blob %s@%s: %w", path, rev, err)
	}
	return []byte(out), nil
}
