package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/inventory"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// cmdEdit implements "edit ASSET..." (spec §6: "0 on commit, 1 on user
// abort"). Each asset is opened in the configured editor; the resulting
// top-level key differences become a ModifyAsset patch.
func (a *app) cmdEdit(ctx context.Context, g globalFlags, args []string) error {
	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	for _, p := range args {
		before, err := a.view.Document(ctx, p)
		if err != nil {
			return err
		}
		after, err := a.editDocument(before.Clone(), p)
		if err != nil {
			return err
		}
		patch := diffTopLevel(before, after)
		if len(patch.Set) == 0 && len(patch.Unset) == 0 {
			continue
		}
		op := &inventory.ModifyAsset{Path: p, Template: a.template, Patch: patch}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}

// diffTopLevel compares before/after's top-level mapping keys and builds
// the Patch that takes before to after: changed or added keys are Set,
// removed keys are Unset. Scalars are compared by value; a key whose value
// is a mapping or sequence on either side always counts as changed and is
// Set whole, matching the shallow dotted-key model the query/patch layers
// already use.
func diffTopLevel(before, after *yamlstore.Document) yamlstore.Patch {
	var patch yamlstore.Patch
	patch.Set = map[string]*yaml.Node{}

	beforeKeys := topLevelKeys(before.Body())
	afterBody := after.Body()
	afterKeys := topLevelKeys(afterBody)

	for k := range beforeKeys {
		if _, ok := afterKeys[k]; !ok {
			patch.Unset = append(patch.Unset, k)
		}
	}
	for k, afterVal := range afterKeys {
		beforeVal, existed := beforeKeys[k]
		if !existed || !sameScalar(beforeVal, afterVal) {
			patch.Set[k] = afterVal
		}
	}
	return patch
}

func topLevelKeys(m *yaml.Node) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	for i := 0; i+1 < len(m.Content); i += 2 {
		out[m.Content[i].Value] = m.Content[i+1]
	}
	return out
}

func sameScalar(a, b *yaml.Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != yaml.ScalarNode {
		return false // treat any composite change as a change; cheap and safe
	}
	return a.Value == b.Value
}

// cmdMove implements "mv SRC... DST" (spec §6).
func (a *app) cmdMove(ctx context.Context, g globalFlags, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: onyo mv SRC... DST")
	}
	srcs, dst := args[:len(args)-1], args[len(args)-1]
	dst = path.Clean(dst)

	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}

	dstIsDir, err := a.view.IsTrackedDirectory(ctx, dst)
	if err != nil {
		return err
	}

	for _, src := range srcs {
		src = path.Clean(src)
		isAsset, err := a.view.IsAsset(ctx, src)
		if err != nil {
			return err
		}
		isDir, err := a.view.IsTrackedDirectory(ctx, src)
		if err != nil {
			return err
		}

		var op inventory.Operation
		switch {
		case isAsset && dstIsDir:
			op = &inventory.MoveAsset{Path: src, Destination: dst}
		case isAsset && !dstIsDir && len(srcs) == 1:
			op = &inventory.RenameAsset{Path: src, NewName: path.Base(dst), Template: a.template}
		case isDir && dstIsDir:
			op = &inventory.MoveDirectory{Source: src, Destination: dst}
		case !isAsset && !isDir:
			return &ierr.NoSuchAssetError{Path: src}
		default:
			return &ierr.NoSuchDirectoryError{Path: dst}
		}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}

// cmdMkdir implements "mkdir DIR..." (spec §6: "0 on commit; no-op if dir
// already tracked").
func (a *app) cmdMkdir(ctx context.Context, g globalFlags, args []string) error {
	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	pushed := 0
	for _, d := range args {
		d = path.Clean(d)
		tracked, err := a.view.IsTrackedDirectory(ctx, d)
		if err != nil {
			return err
		}
		if tracked {
			continue
		}
		if err := tx.Push(ctx, &inventory.NewDirectory{Path: d}); err != nil {
			return err
		}
		pushed++
	}
	if pushed == 0 {
		tx.Abandon()
		a.quiet(g, "nothing to do")
		return nil
	}
	return a.finishTransaction(ctx, g, tx)
}

// cmdRemove implements "rm PATH... [-r/--recursive]".
func (a *app) cmdRemove(ctx context.Context, g globalFlags, args []string) error {
	recursive := false
	var paths []string
	for _, arg := range args {
		if arg == "-r" || arg == "--recursive" {
			recursive = true
			continue
		}
		paths = append(paths, arg)
	}

	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		p = path.Clean(p)
		isAsset, err := a.view.IsAsset(ctx, p)
		if err != nil {
			return err
		}
		var op inventory.Operation
		if isAsset {
			op = &inventory.RemoveAsset{Path: p}
		} else {
			op = &inventory.RemoveDirectory{Path: p, Recursive: recursive}
		}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}

// cmdRmdir implements "rmdir DIR..." (spec §6: "0; converts empty asset-dir
// to file"). A plain empty tracked directory is removed outright; an
// (empty) asset directory is converted back to a flat asset file.
func (a *app) cmdRmdir(ctx context.Context, g globalFlags, args []string) error {
	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	for _, d := range args {
		d = path.Clean(d)
		isAssetDir, err := a.view.IsAssetDirectory(ctx, d)
		if err != nil {
			return err
		}
		var op inventory.Operation
		if isAssetDir {
			op = &inventory.ConvertFromAssetDir{Path: d}
		} else {
			op = &inventory.RemoveDirectory{Path: d, Recursive: false}
		}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}

type setFlags struct {
	keys   []string
	assets []string
	rename bool
}

func parseSetFlags(args []string) setFlags {
	var f setFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-k", "--keys":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.keys = append(f.keys, args[i+1])
				i++
			}
		case "-a", "--asset":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				f.assets = append(f.assets, args[i+1])
				i++
			}
		case "-r", "--rename":
			f.rename = true
		}
	}
	return f
}

// cmdSet implements "set -k K=V... -a ASSET...". When a bound (name)
// template field is set and -r/--rename was given, the mutation is routed
// through RenameAsset instead of ModifyAsset so the path and body stay in
// sync (spec §8 scenario 3); without -r/--rename, touching a bound field
// is a BoundKeyMutationError.
func (a *app) cmdSet(ctx context.Context, g globalFlags, args []string) error {
	f := parseSetFlags(args)
	values, err := keysToMap(f.keys)
	if err != nil {
		return err
	}

	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	for _, p := range f.assets {
		touchesBound := false
		for field := range values {
			for _, tf := range a.template.Fields() {
				if tf == field {
					touchesBound = true
				}
			}
		}
		if touchesBound && f.rename {
			doc, err := a.view.Document(ctx, p)
			if err != nil {
				return err
			}
			bound := asset.BoundValues(a.template, doc)
			for k, v := range values {
				bound[k] = v
			}
			newName, err := a.template.Render(bound)
			if err != nil {
				return err
			}
			if err := tx.Push(ctx, &inventory.RenameAsset{Path: p, NewName: newName, Template: a.template}); err != nil {
				return err
			}
			continue
		}
		set := map[string]*yaml.Node{}
		for k, v := range values {
			set[k] = yamlstore.NewScalarAuto(v)
		}
		op := &inventory.ModifyAsset{Path: p, Template: a.template, Patch: yamlstore.Patch{Set: set}}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}

// cmdUnset implements "unset -k K... -a ASSET...".
func (a *app) cmdUnset(ctx context.Context, g globalFlags, args []string) error {
	f := parseSetFlags(args)
	tx, err := a.beginTransaction(ctx)
	if err != nil {
		return err
	}
	for _, p := range f.assets {
		op := &inventory.ModifyAsset{Path: p, Template: a.template, Patch: yamlstore.Patch{Unset: f.keys}}
		if err := tx.Push(ctx, op); err != nil {
			return err
		}
	}
	return a.finishTransaction(ctx, g, tx)
}
