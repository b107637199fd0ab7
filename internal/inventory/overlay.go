package inventory

import (
	"context"
	"path"

	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// overlay is the in-memory delta a Transaction accumulates over a View
// (spec glossary: "Overlay"). Paths present in deleted win over both dirs/
// assets and the base View; paths present in dirs/assets/docs reflect
// staged creations, moves, and content edits.
type overlay struct {
	base *View

	dirs      map[string]bool
	assets    map[string]bool
	assetDirs map[string]bool
	docs      map[string]*yamlstore.Document
	deleted   map[string]bool
	names     map[string]string // basename -> path, staged additions only
}

func newOverlay(base *View) *overlay {
	return &overlay{
		base:      base,
		dirs:      map[string]bool{},
		assets:    map[string]bool{},
		assetDirs: map[string]bool{},
		docs:      map[string]*yamlstore.Document{},
		deleted:   map[string]bool{},
		names:     map[string]string{},
	}
}

// clone returns a deep-enough copy for the push-then-validate-then-commit
// pattern: map copies are shallow on *yamlstore.Document values, which are
// treated as immutable once staged (mutations always go through
// yamlstore.ApplyPatch, which itself clones).
func (o *overlay) clone() *overlay {
	cp := newOverlay(o.base)
	for k, v := range o.dirs {
		cp.dirs[k] = v
	}
	for k, v := range o.assets {
		cp.assets[k] = v
	}
	for k, v := range o.assetDirs {
		cp.assetDirs[k] = v
	}
	for k, v := range o.docs {
		cp.docs[k] = v
	}
	for k, v := range o.deleted {
		cp.deleted[k] = v
	}
	for k, v := range o.names {
		cp.names[k] = v
	}
	return cp
}

func (o *overlay) isTrackedDirectory(ctx context.Context, p string) (bool, error) {
	p = path.Clean(p)
	if p == "." {
		return true, nil
	}
	if o.deleted[p] {
		return false, nil
	}
	if o.dirs[p] || o.assetDirs[p] {
		return true, nil
	}
	return o.base.IsTrackedDirectory(ctx, p)
}

func (o *overlay) isAsset(ctx context.Context, p string) (bool, error) {
	p = path.Clean(p)
	if o.deleted[p] {
		return false, nil
	}
	if o.assets[p] {
		return true, nil
	}
	return o.base.IsAsset(ctx, p)
}

func (o *overlay) isAssetDirectory(ctx context.Context, p string) (bool, error) {
	p = path.Clean(p)
	if o.deleted[p] {
		return false, nil
	}
	if ok := o.assetDirs[p]; ok {
		return true, nil
	}
	if _, staged := o.assets[p]; staged {
		return false, nil // staged as a plain asset file
	}
	return o.base.IsAssetDirectory(ctx, p)
}

// nameTaken reports whether basename is already used by a tracked asset,
// consulting staged additions/removals first.
func (o *overlay) nameTaken(ctx context.Context, name string) (bool, error) {
	if p, ok := o.names[name]; ok {
		return !o.deleted[p], nil
	}
	taken, err := o.base.NameTaken(ctx, name)
	if err != nil || !taken {
		return taken, err
	}
	// The base View says it's taken; make sure the holder wasn't removed
	// or renamed away within this transaction.
	if holder, ok := o.base.nameIndex[name]; ok && o.deleted[holder] {
		return false, nil
	}
	return true, nil
}

func (o *overlay) document(ctx context.Context, p string) (*yamlstore.Document, error) {
	p = path.Clean(p)
	if doc, ok := o.docs[p]; ok {
		return doc, nil
	}
	if o.deleted[p] {
		return nil, nil
	}
	return o.base.Document(ctx, p)
}

// stageDirectory marks p as a tracked plain directory; its ancestors are
// not staged.
func (o *overlay) stageDirectory(p string) {
	p = path.Clean(p)
	delete(o.deleted, p)
	o.dirs[p] = true
}

// stageAsset records a new/updated asset document at p.
func (o *overlay) stageAsset(p string, doc *yamlstore.Document, isDir bool) {
	p = path.Clean(p)
	delete(o.deleted, p)
	o.assets[p] = true
	o.docs[p] = doc
	if isDir {
		o.assetDirs[p] = true
	} else {
		delete(o.assetDirs, p)
	}
	o.names[path.Base(p)] = p
}

// stageRemoval marks p and everything nested under it as gone.
func (o *overlay) stageRemoval(p string) {
	p = path.Clean(p)
	gone := []string{p}
	for _, m := range []map[string]bool{o.dirs, o.assets, o.base.directories, o.base.assets} {
		for q := range m {
			if q != p && isUnder(p, q) {
				gone = append(gone, q)
			}
		}
	}
	for _, q := range gone {
		o.deleted[q] = true
		delete(o.dirs, q)
		delete(o.assets, q)
		delete(o.assetDirs, q)
		delete(o.docs, q)
		for name, np := range o.names {
			if np == q {
				delete(o.names, name)
			}
		}
	}
}

// stageMove relocates a staged or base entry from src to dst, preserving
// its kind (directory/asset/asset-directory) and document if any.
func (o *overlay) stageMove(ctx context.Context, src, dst string) error {
	isDir, err := o.isAssetDirectory(ctx, src)
	if err != nil {
		return err
	}
	isAsset, err := o.isAsset(ctx, src)
	if err != nil {
		return err
	}
	if isAsset {
		doc, err := o.document(ctx, src)
		if err != nil {
			return err
		}
		o.stageRemoval(src)
		o.stageAsset(dst, doc, isDir)
		return nil
	}
	// Plain directory move: relocate it and everything nested beneath it.
	o.stageRemoval(src)
	o.stageDirectory(dst)
	assetPaths, err := o.base.AssetPaths(ctx, src, 0)
	if err != nil {
		return err
	}
	for _, ap := range assetPaths {
		rel := ap[len(src):]
		doc, err := o.base.Document(ctx, ap)
		if err != nil {
			return err
		}
		wasDir, _ := o.base.IsAssetDirectory(ctx, ap)
		o.stageAsset(dst+rel, doc, wasDir)
	}
	dirs, err := o.base.Directories(ctx, src)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if d == src {
			continue
		}
		o.stageDirectory(dst + d[len(src):])
	}
	return nil
}
