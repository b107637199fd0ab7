package gitplumbing

import (
	"context"
	"time"
)

// CommitOpts configures a commit operation.
type CommitOpts struct {
	Message    string
	AuthorName string
	AuthorMail string
	When       time.Time // zero value lets git use the current time
}

// Commit creates a new commit with the given options. Returns
// ErrNothingToCommit if the index has no staged changes.
func (g *Git) Commit(ctx context.Context, opts CommitOpts) (string, error) {
	args := []string{"commit", "-m", opts.Message}
	env := []string{}
	if opts.AuthorName != "" || opts.AuthorMail != "" {
		env = append(env,
			"GIT_AUTHOR_NAME="+opts.AuthorName, "GIT_AUTHOR_EMAIL="+opts.AuthorMail,
			"GIT_COMMITTER_NAME="+opts.AuthorName, "GIT_COMMITTER_EMAIL="+opts.AuthorMail,
		)
	}
	if !opts.When.IsZero() {
		ts := opts.When.Format(time.RFC3339)
		env = append(env, "GIT_AUTHOR_DATE="+ts, "GIT_COMMITTER_DATE="+ts)
	}
	if err := g.runSilentWithEnv(ctx, env, args...); err != nil {
		if gitErr, ok := err.(*GitError); ok && gitErr.IsNothingToCommit() {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	return g.HEAD(ctx)
}

// runSilentWithEnv is RunSilent with extra environment variables appended.
func (g *Git) runSilentWithEnv(ctx context.Context, extraEnv []string, args ...string) error {
	if len(extraEnv) == 0 {
		return g.RunSilent(ctx, args...)
	}
	cmd := commandWithEnv(ctx, g.Dir, extraEnv, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return &GitError{Args: args, Stderr: string(output), Err: err}
	}
	return nil
}

// Add stages files for the next commit.
func (g *Git) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	return g.RunSilent(ctx, args...)
}

// Move renames/moves a tracked path, preserving its history.
func (g *Git) Move(ctx context.Context, src, dst string) error {
	return g.RunSilent(ctx, "mv", src, dst)
}

// Remove deletes one or more tracked paths from the index and working tree.
func (g *Git) Remove(ctx context.Context, recursive bool, paths ...string) error {
	args := []string{"rm", "-q", "-f"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, "--")
	args = append(args, paths...)
	return g.RunSilent(ctx, args...)
}

// ResetWorktree discards all uncommitted changes, restoring the working
// tree and index to HEAD. Used only for best-effort rollback after a
// transaction fails partway through its commit sequence.
func (g *Git) ResetWorktree(ctx context.Context) error {
	if err := g.RunSilent(ctx, "reset", "--hard", "HEAD"); err != nil {
		return err
	}
	return g.RunSilent(ctx, "clean", "-fd")
}
