package gitplumbing

import "context"

// FileStatus represents a file's status in the working tree.
type FileStatus struct {
	Path    string
	Index   byte // status in index (staged): ' ', M, A, D, R, C, U, ?
	WorkDir byte // status in working directory: ' ', M, D, ?, !
}

// RepoStatus represents the full status of a git repository.
type RepoStatus struct {
	Clean     bool
	Staged    []FileStatus
	Unstaged  []FileStatus
	Untracked []string
}

// Status returns the full working tree status, excluding ignored files.
func (g *Git) Status(ctx context.Context) (*RepoStatus, error) {
	lines, err := g.RunLines(ctx, "status", "--porcelain=v1")
	if err != nil {
		return nil, err
	}
	status := &RepoStatus{Clean: len(lines) == 0}
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		fs := FileStatus{Index: line[0], WorkDir: line[1], Path: line[3:]}
		switch {
		case fs.Index == '?' && fs.WorkDir == '?':
			status.Untracked = append(status.Untracked, fs.Path)
		case fs.Index != ' ' && fs.Index != '?':
			status.Staged = append(status.Staged, fs)
		case fs.WorkDir != ' ' && fs.WorkDir != '?':
			status.Unstaged = append(status.Unstaged, fs)
		}
	}
	return status, nil
}

// IsClean returns true iff no staged, unstaged, or untracked files exist.
func (g *Git) IsClean(ctx context.Context) (bool, error) {
	s, err := g.Status(ctx)
	if err != nil {
		return false, err
	}
	return s.Clean, nil
}

// DirtyPaths returns the list of paths responsible for a dirty status, for
// error reporting. Returns nil if the tree is clean.
func (s *RepoStatus) DirtyPaths() []string {
	if s.Clean {
		return nil
	}
	var paths []string
	for _, f := range s.Staged {
		paths = append(paths, f.Path)
	}
	for _, f := range s.Unstaged {
		paths = append(paths, f.Path)
	}
	paths = append(paths, s.Untracked...)
	return paths
}
