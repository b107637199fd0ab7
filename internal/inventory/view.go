// Package inventory implements the Repository View, the closed Operation
// Set, and the Transaction Engine (spec §4.4-§4.6): the heart of onyo,
// grounded on the teacher's VendorRepository + commit_service wiring but
// generalized from a flat vendor list to a full filesystem-tree overlay.
package inventory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// GitAdapter is the narrow surface the View and Transaction use against the
// repository. Satisfied by *gitplumbing.Git; an interface here so tests can
// substitute fakes, per spec §9 ("editor invocation and git invocation are
// injectable so tests can substitute fakes").
type GitAdapter interface {
	Root() string
	ListTracked(ctx context.Context, subtree string) ([]string, error)
	ReadBlob(ctx context.Context, path, revision string) ([]byte, error)
	IsClean(ctx context.Context) (bool, error)
	Add(ctx context.Context, paths ...string) error
	Move(ctx context.Context, src, dst string) error
	Remove(ctx context.Context, recursive bool, paths ...string) error
	Commit(ctx context.Context, opts gitplumbing.CommitOpts) (string, error)
	ResetWorktree(ctx context.Context) error
}

var _ GitAdapter = (*gitplumbing.Git)(nil)

// View is a pure, cached snapshot of the inventory: tracked directories
// (including asset-directory variants), asset paths, and a name->path
// index. It is rebuilt lazily and invalidated by any successful commit.
type View struct {
	git      GitAdapter
	template *asset.Template

	loaded      bool
	directories map[string]bool   // tracked directory path -> true
	assets      map[string]bool   // asset path -> true
	assetDirs   map[string]bool   // asset path -> true, subset of assets that are directories
	nameIndex   map[string]string // basename -> full path, for uniqueness checks
}

// NewView creates a View over git using template to recognise asset paths.
func NewView(git GitAdapter, template *asset.Template) *View {
	return &View{git: git, template: template}
}

// Invalidate discards the cache; the next read rebuilds it.
func (v *View) Invalidate() { v.loaded = false }

// ensureLoaded rebuilds the cache from the tracked-file listing.
func (v *View) ensureLoaded(ctx context.Context) error {
	if v.loaded {
		return nil
	}
	tracked, err := v.git.ListTracked(ctx, "")
	if err != nil {
		return fmt.Errorf("list tracked files: %w", err)
	}

	v.directories = map[string]bool{}
	v.assets = map[string]bool{}
	v.assetDirs = map[string]bool{}
	v.nameIndex = map[string]string{}

	for _, p := range tracked {
		dir := path.Dir(p)
		base := path.Base(p)
		for d := dir; d != "." && d != "/"; d = path.Dir(d) {
			v.directories[d] = true
		}
		switch {
		case base == asset.AnchorFileName:
			v.directories[dir] = true
		case base == asset.BodyFileName:
			v.assets[dir] = true
			v.assetDirs[dir] = true
			v.nameIndex[path.Base(dir)] = dir
		default:
			if _, err := v.template.Parse(base); err == nil {
				v.assets[p] = true
				v.nameIndex[base] = p
			}
		}
	}
	v.loaded = true
	return nil
}

// IsTrackedDirectory reports whether p is a tracked directory.
func (v *View) IsTrackedDirectory(ctx context.Context, p string) (bool, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return false, err
	}
	p = path.Clean(p)
	if p == "." {
		return true, nil
	}
	return v.directories[p], nil
}

// IsAsset reports whether p is a tracked asset path.
func (v *View) IsAsset(ctx context.Context, p string) (bool, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return v.assets[path.Clean(p)], nil
}

// IsAssetDirectory reports whether p is an asset stored as a directory.
func (v *View) IsAssetDirectory(ctx context.Context, p string) (bool, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return v.assetDirs[path.Clean(p)], nil
}

// NameTaken reports whether basename name is already used by a tracked
// asset anywhere in the repository (spec invariant 3: names are globally
// unique).
func (v *View) NameTaken(ctx context.Context, name string) (bool, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return false, err
	}
	_, ok := v.nameIndex[name]
	return ok, nil
}

// Document loads and parses the asset document at p, at HEAD.
func (v *View) Document(ctx context.Context, p string) (*yamlstore.Document, error) {
	isDir, err := v.IsAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	readPath := p
	if isDir {
		readPath = path.Join(p, asset.BodyFileName)
	}
	data, err := v.git.ReadBlob(ctx, readPath, "HEAD")
	if err != nil {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}
	return yamlstore.Load(readPath, data)
}

// AssetPaths enumerates tracked asset paths under subtree, optionally bound
// by depth (1 = direct children of subtree). depth<=0 means unbounded.
func (v *View) AssetPaths(ctx context.Context, subtree string, depth int) ([]string, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	subtree = path.Clean(subtree)
	var out []string
	for p := range v.assets {
		if subtree != "." && !isUnder(subtree, p) {
			continue
		}
		if depth > 0 {
			rel := p
			if subtree != "." {
				rel = strings.TrimPrefix(p, subtree+"/")
			}
			if strings.Count(rel, "/")+1 > depth {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// isUnder reports whether p is subtree itself or nested under it.
func isUnder(subtree, p string) bool {
	if p == subtree {
		return true
	}
	return strings.HasPrefix(p, subtree+"/")
}

// Directories enumerates tracked directories under subtree.
func (v *View) Directories(ctx context.Context, subtree string) ([]string, error) {
	if err := v.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	subtree = path.Clean(subtree)
	var out []string
	for d := range v.directories {
		if subtree == "." || isUnder(subtree, d) {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}
