package gitplumbing

import (
	"context"
	"errors"
	"strconv"
)

// HEAD returns the full SHA of the current HEAD commit.
func (g *Git) HEAD(ctx context.Context) (string, error) {
	return g.Run(ctx, "rev-parse", "HEAD")
}

// CurrentBranch returns the short name of the current branch.
// Returns ErrDetachedHead if HEAD is not on a branch.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.Run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", ErrDetachedHead
	}
	return out, nil
}

// IsDetached returns true if HEAD is in detached state.
func (g *Git) IsDetached(ctx context.Context) (bool, error) {
	_, err := g.CurrentBranch(ctx)
	if errors.Is(err, ErrDetachedHead) {
		return true, nil
	}
	return false, err
}

// ResolveRef resolves a ref name to its full SHA.
func (g *Git) ResolveRef(ctx context.Context, ref string) (string, error) {
	out, err := g.Run(ctx, "rev-parse", ref)
	if err != nil {
		return "", ErrRefNotFound
	}
	return out, nil
}

// Log returns one line per commit touching path, most recent first, each
// holding the hash, ISO date, author and subject separated by tabs.
func (g *Git) Log(ctx context.Context, path string, maxCount int) ([]string, error) {
	args := []string{"log", "--follow", "--pretty=format:%H\t%ad\t%an\t%s", "--date=iso-strict"}
	if maxCount > 0 {
		args = append(args, "-n", strconv.Itoa(maxCount))
	}
	if path != "" {
		args = append(args, "--", path)
	}
	return g.RunLines(ctx, args...)
}
