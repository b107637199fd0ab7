package inventory

import (
	"context"
	"path"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// OpKind tags the closed set of primitive inventory operations (spec §4.5).
// This is a tagged variant in the sense of spec §9 ("duck-typed Inventory
// Operations ... replace with a tagged variant"): each OpKind has exactly
// one corresponding Operation implementation below.
type OpKind int

const (
	OpNewDirectory OpKind = iota
	OpNewAsset
	OpModifyAsset
	OpRenameAsset
	OpMoveAsset
	OpMoveDirectory
	OpRemoveAsset
	OpRemoveDirectory
	OpConvertToAssetDir
	OpConvertFromAssetDir
)

func (k OpKind) String() string {
	switch k {
	case OpNewDirectory:
		return "new-directory"
	case OpNewAsset:
		return "new-asset"
	case OpModifyAsset:
		return "modify-asset"
	case OpRenameAsset:
		return "rename-asset"
	case OpMoveAsset:
		return "move-asset"
	case OpMoveDirectory:
		return "move-directory"
	case OpRemoveAsset:
		return "remove-asset"
	case OpRemoveDirectory:
		return "remove-directory"
	case OpConvertToAssetDir:
		return "convert-to-asset-dir"
	case OpConvertFromAssetDir:
		return "convert-from-asset-dir"
	default:
		return "unknown"
	}
}

// step is one filesystem-materialization instruction produced by an
// Operation's Apply. The Transaction Engine sequences steps across all
// pushed operations as: mkdir, then write, then move, then remove (spec
// §4.6 step 3d).
type step struct {
	kind      stepKind
	path      string // mkdir/write/remove target, or move source
	dst       string // move destination
	data      []byte // write content
	recursive bool   // remove recursive
}

type stepKind int

const (
	stepMkdir stepKind = iota
	stepWrite
	stepMove
	stepRemove
	// stepConvertToDir and stepConvertFromDir replace a path's content in
	// place (file<->directory). They carry out their own
	// remove-then-recreate sequence and are applied in their own phase so
	// the global mkdir/write/move/remove ordering never splits them across
	// a path collision with itself.
	stepConvertToDir
	stepConvertFromDir
)

// Operation is the interface every variant in §4.5's table satisfies.
type Operation interface {
	Kind() OpKind
	// Apply checks preconditions against ov and, on success, mutates ov
	// to its postcondition and returns the filesystem steps required to
	// materialize the change. On failure ov is left untouched by contract
	// of the caller (Transaction.Push clones before calling).
	Apply(ctx context.Context, ov *overlay) ([]step, error)
	// AffectedPaths names the paths this operation touches, for commit
	// message composition and diff summaries, in a stable order.
	AffectedPaths() []string
}

// --- NewDirectory ---

type NewDirectory struct {
	Path string
}

func (o *NewDirectory) Kind() OpKind          { return OpNewDirectory }
func (o *NewDirectory) AffectedPaths() []string { return []string{o.Path} }

func (o *NewDirectory) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isTrackedDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ierr.NameCollisionError{Path: p}
	}
	isAsset, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if isAsset {
		return nil, &ierr.NameCollisionError{Path: p}
	}
	ov.stageDirectory(p)
	return []step{
		{kind: stepMkdir, path: p},
		{kind: stepWrite, path: path.Join(p, asset.AnchorFileName), data: nil},
	}, nil
}

// --- NewAsset ---

type NewAsset struct {
	Path     string
	Template *asset.Template
	Body     *yamlstore.Document // caller-supplied body (template/clone base), may be nil
	IsDir    bool
}

func (o *NewAsset) Kind() OpKind            { return OpNewAsset }
func (o *NewAsset) AffectedPaths() []string { return []string{o.Path} }

func (o *NewAsset) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	dir := path.Dir(p)
	name := path.Base(p)

	dirOK, err := ov.isTrackedDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !dirOK {
		return nil, &ierr.NoSuchDirectoryError{Path: dir}
	}

	values, err := o.Template.Parse(name)
	if err != nil {
		return nil, err
	}

	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ierr.NameCollisionError{Path: p}
	}
	taken, err := ov.nameTaken(ctx, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ierr.NameCollisionError{Path: p}
	}

	base := o.Body
	if base == nil {
		base = yamlstore.Empty()
	}
	doc, err := asset.Bind(o.Template, base, values)
	if err != nil {
		return nil, err
	}

	ov.stageAsset(p, doc, o.IsDir)

	data, err := doc.Dump()
	if err != nil {
		return nil, err
	}
	if o.IsDir {
		return []step{
			{kind: stepMkdir, path: p},
			{kind: stepWrite, path: path.Join(p, asset.BodyFileName), data: data},
		}, nil
	}
	return []step{{kind: stepWrite, path: p, data: data}}, nil
}

// --- ModifyAsset ---

type ModifyAsset struct {
	Path     string
	Template *asset.Template
	Patch    yamlstore.Patch
}

func (o *ModifyAsset) Kind() OpKind            { return OpModifyAsset }
func (o *ModifyAsset) AffectedPaths() []string { return []string{o.Path} }

func (o *ModifyAsset) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}

	setKeys := make([]string, 0, len(o.Patch.Set))
	for k := range o.Patch.Set {
		setKeys = append(setKeys, k)
	}
	if err := asset.ValidateNoBoundKeyMutation(o.Template, p, setKeys, o.Patch.Unset); err != nil {
		return nil, err
	}

	doc, err := ov.document(ctx, p)
	if err != nil {
		return nil, err
	}
	patched, err := yamlstore.ApplyPatch(doc, o.Patch)
	if err != nil {
		return nil, err
	}

	isDir, err := ov.isAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	ov.stageAsset(p, patched, isDir)

	data, err := patched.Dump()
	if err != nil {
		return nil, err
	}
	writePath := p
	if isDir {
		writePath = path.Join(p, asset.BodyFileName)
	}
	return []step{{kind: stepWrite, path: writePath, data: data}}, nil
}

// --- RenameAsset ---

type RenameAsset struct {
	Path     string
	NewName  string
	Template *asset.Template
}

func (o *RenameAsset) Kind() OpKind            { return OpRenameAsset }
func (o *RenameAsset) AffectedPaths() []string { return []string{o.Path, path.Join(path.Dir(o.Path), o.NewName)} }

func (o *RenameAsset) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}

	values, err := o.Template.Parse(o.NewName)
	if err != nil {
		return nil, err
	}

	dst := path.Join(path.Dir(p), o.NewName)
	if dst != p {
		taken, err := ov.nameTaken(ctx, o.NewName)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, &ierr.NameCollisionError{Path: dst}
		}
	}

	doc, err := ov.document(ctx, p)
	if err != nil {
		return nil, err
	}
	bound, err := asset.Bind(o.Template, doc, values)
	if err != nil {
		return nil, err
	}

	isDir, err := ov.isAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}

	data, err := bound.Dump()
	if err != nil {
		return nil, err
	}

	writePath := p
	if isDir {
		writePath = path.Join(p, asset.BodyFileName)
	}
	steps := []step{{kind: stepWrite, path: writePath, data: data}}

	ov.stageRemoval(p)
	ov.stageAsset(dst, bound, isDir)

	if dst != p {
		steps = append(steps, step{kind: stepMove, path: p, dst: dst})
	}
	return steps, nil
}

// --- MoveAsset ---

type MoveAsset struct {
	Path        string // asset path
	Destination string // destination directory
}

func (o *MoveAsset) Kind() OpKind { return OpMoveAsset }
func (o *MoveAsset) AffectedPaths() []string {
	return []string{o.Path, path.Join(o.Destination, path.Base(o.Path))}
}

func (o *MoveAsset) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}

	d := path.Clean(o.Destination)
	dirOK, err := ov.isTrackedDirectory(ctx, d)
	if err != nil {
		return nil, err
	}
	if !dirOK {
		return nil, &ierr.NoSuchDirectoryError{Path: d}
	}

	dst := path.Join(d, path.Base(p))
	if dst == p {
		return nil, &ierr.NameCollisionError{Path: dst}
	}
	dstExists, err := ov.isAsset(ctx, dst)
	if err != nil {
		return nil, err
	}
	if dstExists {
		return nil, &ierr.NameCollisionError{Path: dst}
	}

	if err := ov.stageMove(ctx, p, dst); err != nil {
		return nil, err
	}
	return []step{{kind: stepMove, path: p, dst: dst}}, nil
}

// --- MoveDirectory ---

type MoveDirectory struct {
	Source      string
	Destination string
}

func (o *MoveDirectory) Kind() OpKind { return OpMoveDirectory }
func (o *MoveDirectory) AffectedPaths() []string {
	return []string{o.Source, path.Join(o.Destination, path.Base(o.Source))}
}

func (o *MoveDirectory) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	s := path.Clean(o.Source)
	exists, err := ov.isTrackedDirectory(ctx, s)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchDirectoryError{Path: s}
	}

	d := path.Clean(o.Destination)
	parentOK, err := ov.isTrackedDirectory(ctx, path.Dir(d))
	if err != nil {
		return nil, err
	}
	if !parentOK && path.Dir(d) != "." {
		return nil, &ierr.NoSuchDirectoryError{Path: path.Dir(d)}
	}

	dst := path.Join(d, path.Base(s))
	dstExists, err := ov.isTrackedDirectory(ctx, dst)
	if err != nil {
		return nil, err
	}
	if dstExists {
		return nil, &ierr.NameCollisionError{Path: dst}
	}

	if err := ov.stageMove(ctx, s, dst); err != nil {
		return nil, err
	}
	return []step{{kind: stepMove, path: s, dst: dst}}, nil
}

// --- RemoveAsset ---

type RemoveAsset struct {
	Path string
}

func (o *RemoveAsset) Kind() OpKind            { return OpRemoveAsset }
func (o *RemoveAsset) AffectedPaths() []string { return []string{o.Path} }

func (o *RemoveAsset) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}
	isDir, err := ov.isAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	ov.stageRemoval(p)
	return []step{{kind: stepRemove, path: p, recursive: isDir}}, nil
}

// --- RemoveDirectory ---

type RemoveDirectory struct {
	Path      string
	Recursive bool
}

func (o *RemoveDirectory) Kind() OpKind            { return OpRemoveDirectory }
func (o *RemoveDirectory) AffectedPaths() []string { return []string{o.Path} }

func (o *RemoveDirectory) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isTrackedDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchDirectoryError{Path: p}
	}
	if !o.Recursive {
		assets, err := ov.base.AssetPaths(ctx, p, 0)
		if err != nil {
			return nil, err
		}
		dirs, err := ov.base.Directories(ctx, p)
		if err != nil {
			return nil, err
		}
		empty := true
		for _, a := range assets {
			if !ov.deleted[a] {
				empty = false
			}
		}
		for _, d := range dirs {
			if d != p && !ov.deleted[d] {
				empty = false
			}
		}
		if !empty {
			return nil, &ierr.NotEmptyError{Path: p}
		}
	}
	ov.stageRemoval(p)
	return []step{{kind: stepRemove, path: p, recursive: true}}, nil
}

// --- ConvertToAssetDir ---

type ConvertToAssetDir struct {
	Path string
}

func (o *ConvertToAssetDir) Kind() OpKind            { return OpConvertToAssetDir }
func (o *ConvertToAssetDir) AffectedPaths() []string { return []string{o.Path} }

func (o *ConvertToAssetDir) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	exists, err := ov.isAsset(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}
	isDir, err := ov.isAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, &ierr.NameCollisionError{Path: p}
	}
	doc, err := ov.document(ctx, p)
	if err != nil {
		return nil, err
	}
	ov.stageAsset(p, doc, true)

	data, err := doc.Dump()
	if err != nil {
		return nil, err
	}
	return []step{{kind: stepConvertToDir, path: p, data: data}}, nil
}

// --- ConvertFromAssetDir ---

type ConvertFromAssetDir struct {
	Path string
}

func (o *ConvertFromAssetDir) Kind() OpKind            { return OpConvertFromAssetDir }
func (o *ConvertFromAssetDir) AffectedPaths() []string { return []string{o.Path} }

func (o *ConvertFromAssetDir) Apply(ctx context.Context, ov *overlay) ([]step, error) {
	p := path.Clean(o.Path)
	isDir, err := ov.isAssetDirectory(ctx, p)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, &ierr.NoSuchAssetError{Path: p}
	}

	assets, err := ov.base.AssetPaths(ctx, p, 0)
	if err != nil {
		return nil, err
	}
	dirs, err := ov.base.Directories(ctx, p)
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		if a != p && !ov.deleted[a] {
			return nil, &ierr.NotEmptyError{Path: p}
		}
	}
	for _, d := range dirs {
		if d != p && !ov.deleted[d] {
			return nil, &ierr.NotEmptyError{Path: p}
		}
	}

	doc, err := ov.document(ctx, p)
	if err != nil {
		return nil, err
	}
	ov.stageAsset(p, doc, false)

	data, err := doc.Dump()
	if err != nil {
		return nil, err
	}
	return []step{{kind: stepConvertFromDir, path: p, data: data}}, nil
}
