package inventory_test

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/inventory"
	"github.com/onyo-cli/onyo/internal/yamlstore"
)

// fakeGit is a hand-rolled GitAdapter fake (spec §9: "git invocation is
// injectable so tests can substitute fakes"). It tracks a flat path list and
// blob map the way a real index would, but never shells out to git; the
// Transaction Engine's own filesystem writes still land on a real temp
// directory via Root().
type fakeGit struct {
	root    string
	tracked []string
	blobs   map[string][]byte
	clean   bool

	added       []string
	moves       [][2]string
	removed     []string
	resetCalls  int
	commitErr   error
	commitHash  string
	lastCommit  gitplumbing.CommitOpts
}

func newFakeGit(root string) *fakeGit {
	return &fakeGit{
		root:       root,
		blobs:      map[string][]byte{},
		clean:      true,
		commitHash: "abc123def456abc123def456abc123def456abc",
	}
}

func (g *fakeGit) Root() string { return g.root }

func (g *fakeGit) ListTracked(ctx context.Context, subtree string) ([]string, error) {
	return append([]string(nil), g.tracked...), nil
}

func (g *fakeGit) ReadBlob(ctx context.Context, p, revision string) ([]byte, error) {
	data, ok := g.blobs[p]
	if !ok {
		return nil, fmt.Errorf("fakeGit: no blob at %q", p)
	}
	return data, nil
}

func (g *fakeGit) IsClean(ctx context.Context) (bool, error) { return g.clean, nil }

func (g *fakeGit) Add(ctx context.Context, paths ...string) error {
	g.added = append(g.added, paths...)
	return nil
}

// Move mirrors real `git mv`, which relocates the working-tree path too.
func (g *fakeGit) Move(ctx context.Context, src, dst string) error {
	g.moves = append(g.moves, [2]string{src, dst})
	var next []string
	for _, p := range g.tracked {
		if p == src {
			next = append(next, dst)
			continue
		}
		if strings.HasPrefix(p, src+"/") {
			next = append(next, dst+strings.TrimPrefix(p, src))
			continue
		}
		next = append(next, p)
	}
	g.tracked = next
	if data, ok := g.blobs[src]; ok {
		g.blobs[dst] = data
		delete(g.blobs, src)
	}
	srcFull := filepath.Join(g.root, src)
	if _, err := os.Stat(srcFull); err == nil {
		dstFull := filepath.Join(g.root, dst)
		if err := os.MkdirAll(filepath.Dir(dstFull), 0o755); err != nil {
			return err
		}
		if err := os.Rename(srcFull, dstFull); err != nil {
			return err
		}
	}
	return nil
}

// Remove mirrors real `git rm [-r]`, which deletes the matched paths from
// the working tree in addition to the index.
func (g *fakeGit) Remove(ctx context.Context, recursive bool, paths ...string) error {
	g.removed = append(g.removed, paths...)
	for _, rm := range paths {
		var next []string
		for _, p := range g.tracked {
			if p == rm {
				continue
			}
			if recursive && strings.HasPrefix(p, rm+"/") {
				continue
			}
			next = append(next, p)
		}
		g.tracked = next
		delete(g.blobs, rm)
		if err := os.RemoveAll(filepath.Join(g.root, rm)); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) Commit(ctx context.Context, opts gitplumbing.CommitOpts) (string, error) {
	if g.commitErr != nil {
		return "", g.commitErr
	}
	g.lastCommit = opts
	return g.commitHash, nil
}

func (g *fakeGit) ResetWorktree(ctx context.Context) error {
	g.resetCalls++
	return nil
}

func mustTemplate(t *testing.T) *asset.Template {
	t.Helper()
	tp, err := asset.Compile("{type}_{make}_{model}.{serial}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return tp
}

func newHarness(t *testing.T) (*fakeGit, *inventory.View, *asset.Template) {
	t.Helper()
	g := newFakeGit(t.TempDir())
	tp := mustTemplate(t)
	return g, inventory.NewView(g, tp), tp
}

func TestNewTransactionRequiresCleanTree(t *testing.T) {
	g, view, _ := newHarness(t)
	g.clean = false

	if _, err := inventory.NewTransaction(context.Background(), g, view); !ierr.IsDirtyWorkingTree(err) {
		t.Fatalf("expected DirtyWorkingTreeError, got %v", err)
	}
}

func TestPushRejectsMissingParentDirectory(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}

	op := &inventory.NewAsset{Path: "missing/laptop_apple_macbookpro.1", Template: tp}
	if err := tx.Push(ctx, op); !ierr.IsNoSuchDirectory(err) {
		t.Fatalf("expected NoSuchDirectoryError, got %v", err)
	}
	if tx.State() != inventory.TxRejected {
		t.Fatalf("expected transaction state rejected, got %s", tx.State())
	}
	if err := tx.Push(ctx, &inventory.NewDirectory{Path: "anything"}); err == nil {
		t.Fatal("expected Push on a rejected transaction to fail")
	}
}

func TestNewDirectoryThenNewAssetCommits(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewDirectory{Path: "laptops"}); err != nil {
		t.Fatalf("push NewDirectory: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewAsset{Path: "laptops/laptop_apple_macbookpro.1", Template: tp}); err != nil {
		t.Fatalf("push NewAsset: %v", err)
	}

	hash, err := tx.Commit(ctx, inventory.CommitOpts{AuthorName: "Jane Doe", AuthorMail: "jane@example.com"})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash != g.commitHash {
		t.Fatalf("expected commit hash %q, got %q", g.commitHash, hash)
	}

	anchor := filepath.Join(g.root, "laptops", asset.AnchorFileName)
	if _, err := os.Stat(anchor); err != nil {
		t.Fatalf("expected anchor file at %s: %v", anchor, err)
	}
	assetFile := filepath.Join(g.root, "laptops", "laptop_apple_macbookpro.1")
	if _, err := os.Stat(assetFile); err != nil {
		t.Fatalf("expected asset file at %s: %v", assetFile, err)
	}

	wantAdded := []string{"laptops/laptop_apple_macbookpro.1", path.Join("laptops", asset.AnchorFileName)}
	gotAdded := append([]string(nil), g.added...)
	sort.Strings(wantAdded)
	sort.Strings(gotAdded)
	if len(gotAdded) != len(wantAdded) {
		t.Fatalf("expected staged paths %v, got %v", wantAdded, gotAdded)
	}
	for i := range wantAdded {
		if gotAdded[i] != wantAdded[i] {
			t.Fatalf("expected staged paths %v, got %v", wantAdded, gotAdded)
		}
	}

	if g.lastCommit.AuthorName != "Jane Doe" || g.lastCommit.AuthorMail != "jane@example.com" {
		t.Fatalf("commit did not carry through author identity: %+v", g.lastCommit)
	}
}

func TestCommitWithNoOperationsIsNoOp(t *testing.T) {
	g, view, _ := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	hash, err := tx.Commit(ctx, inventory.CommitOpts{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected empty hash for a no-op commit, got %q", hash)
	}
	if len(g.added) != 0 {
		t.Fatalf("expected nothing staged, got %v", g.added)
	}
}

func TestCommitRollsBackOnGitFailure(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	g.commitErr = fmt.Errorf("simulated push rejection")

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewAsset{Path: "laptop_apple_macbookpro.1", Template: tp}); err != nil {
		t.Fatalf("push: %v", err)
	}

	if _, err := tx.Commit(ctx, inventory.CommitOpts{}); !ierr.IsPluginFailure(err) {
		t.Fatalf("expected PluginFailureError, got %v", err)
	}
	if g.resetCalls != 1 {
		t.Fatalf("expected ResetWorktree to be called once, got %d", g.resetCalls)
	}
	if tx.State() != inventory.TxRejected {
		t.Fatalf("expected transaction state rejected, got %s", tx.State())
	}
}

func TestRemoveDirectoryRequiresEmpty(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	g.tracked = []string{
		path.Join("laptops", asset.AnchorFileName),
		"laptops/laptop_apple_macbookpro.1",
	}

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	err = tx.Push(ctx, &inventory.RemoveDirectory{Path: "laptops", Recursive: false})
	if !ierr.IsNotEmpty(err) {
		t.Fatalf("expected NotEmptyError, got %v", err)
	}

	tx2, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx2.Push(ctx, &inventory.RemoveAsset{Path: "laptops/laptop_apple_macbookpro.1"}); err != nil {
		t.Fatalf("push RemoveAsset: %v", err)
	}
	if err := tx2.Push(ctx, &inventory.RemoveDirectory{Path: "laptops", Recursive: false}); err != nil {
		t.Fatalf("expected empty directory removal to succeed once the asset is gone: %v", err)
	}
	_ = tp
}

func TestMoveAssetCommitsGitMove(t *testing.T) {
	g, view, _ := newHarness(t)
	ctx := context.Background()

	doc := yamlstore.Empty()
	g.tracked = []string{
		path.Join("src", asset.AnchorFileName),
		path.Join("dst", asset.AnchorFileName),
		"src/laptop_apple_macbookpro.1",
	}
	g.blobs["src/laptop_apple_macbookpro.1"], _ = doc.Dump()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.MoveAsset{Path: "src/laptop_apple_macbookpro.1", Destination: "dst"}); err != nil {
		t.Fatalf("push MoveAsset: %v", err)
	}
	if _, err := tx.Commit(ctx, inventory.CommitOpts{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	found := false
	for _, mv := range g.moves {
		if mv[0] == "src/laptop_apple_macbookpro.1" && mv[1] == "dst/laptop_apple_macbookpro.1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a git mv from src to dst, got %v", g.moves)
	}
}

func TestMoveDirectoryRejectsNameCollision(t *testing.T) {
	g, view, _ := newHarness(t)
	ctx := context.Background()

	g.tracked = []string{
		path.Join("src", asset.AnchorFileName),
		path.Join("dst", asset.AnchorFileName),
		path.Join("dst", "src", asset.AnchorFileName),
	}

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	op := &inventory.MoveDirectory{Source: "src", Destination: "dst"}
	if err := tx.Push(ctx, op); !ierr.IsNameCollision(err) {
		t.Fatalf("expected NameCollisionError, since dst already has a subdirectory named src: %v", err)
	}
}

func TestRenameAssetRejectsNameCollision(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	doc1 := yamlstore.Empty()
	g.tracked = []string{
		"laptop_apple_macbookpro.1",
		"laptop_apple_macbookair.2",
	}
	g.blobs["laptop_apple_macbookpro.1"], _ = doc1.Dump()
	g.blobs["laptop_apple_macbookair.2"], _ = doc1.Dump()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	op := &inventory.RenameAsset{Path: "laptop_apple_macbookpro.1", NewName: "laptop_apple_macbookair.2", Template: tp}
	if err := tx.Push(ctx, op); !ierr.IsNameCollision(err) {
		t.Fatalf("expected NameCollisionError, got %v", err)
	}
}

func TestModifyAssetRejectsBoundKeyMutation(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	doc := yamlstore.Empty()
	g.tracked = []string{"laptop_apple_macbookpro.1"}
	g.blobs["laptop_apple_macbookpro.1"], _ = doc.Dump()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	patch := yamlstore.Patch{Set: map[string]*yaml.Node{"make": yamlstore.NewScalar("dell")}}
	op := &inventory.ModifyAsset{Path: "laptop_apple_macbookpro.1", Template: tp, Patch: patch}
	if err := tx.Push(ctx, op); !ierr.IsBoundKeyMutation(err) {
		t.Fatalf("expected BoundKeyMutationError, got %v", err)
	}
}

func TestConvertToThenFromAssetDirRoundTrips(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	doc := yamlstore.Empty()
	g.tracked = []string{"laptop_apple_macbookpro.1"}
	g.blobs["laptop_apple_macbookpro.1"], _ = doc.Dump()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.ConvertToAssetDir{Path: "laptop_apple_macbookpro.1"}); err != nil {
		t.Fatalf("push ConvertToAssetDir: %v", err)
	}
	if _, err := tx.Commit(ctx, inventory.CommitOpts{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	bodyFile := filepath.Join(g.root, "laptop_apple_macbookpro.1", asset.BodyFileName)
	if _, err := os.Stat(bodyFile); err != nil {
		t.Fatalf("expected body file at %s: %v", bodyFile, err)
	}

	// Simulate the post-commit tracked state (a real repository would reflect
	// this after the commit above) and convert back.
	g.tracked = []string{path.Join("laptop_apple_macbookpro.1", asset.BodyFileName)}
	g.blobs[path.Join("laptop_apple_macbookpro.1", asset.BodyFileName)], _ = doc.Dump()
	g.clean = true

	tx2, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx2.Push(ctx, &inventory.ConvertFromAssetDir{Path: "laptop_apple_macbookpro.1"}); err != nil {
		t.Fatalf("push ConvertFromAssetDir: %v", err)
	}
	if _, err := tx2.Commit(ctx, inventory.CommitOpts{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	flatFile := filepath.Join(g.root, "laptop_apple_macbookpro.1")
	if info, err := os.Stat(flatFile); err != nil || info.IsDir() {
		t.Fatalf("expected laptop_apple_macbookpro.1 to be a flat file again: %v", err)
	}
}

func TestConvertFromAssetDirRejectsNestedContent(t *testing.T) {
	g, view, _ := newHarness(t)
	ctx := context.Background()

	doc := yamlstore.Empty()
	bodyPath := path.Join("laptop_apple_macbookpro.1", asset.BodyFileName)
	nestedPath := "laptop_apple_macbookpro.1/nested_apple_thing.1"
	g.tracked = []string{bodyPath, nestedPath}
	g.blobs[bodyPath], _ = doc.Dump()
	g.blobs[nestedPath], _ = doc.Dump()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	err = tx.Push(ctx, &inventory.ConvertFromAssetDir{Path: "laptop_apple_macbookpro.1"})
	if !ierr.IsNotEmpty(err) {
		t.Fatalf("expected NotEmptyError for an asset directory with nested content, got %v", err)
	}
}

func TestCommitWithNoAutoMessageOmitsAutogenSubject(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewAsset{Path: "laptop_apple_macbookpro.1", Template: tp}); err != nil {
		t.Fatalf("push: %v", err)
	}

	opts := inventory.CommitOpts{ExtraParagraphs: []string{"received from vendor"}, NoAutoMessage: true}
	if _, err := tx.Commit(ctx, opts); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if g.lastCommit.Message != "received from vendor" {
		t.Fatalf("expected message to be exactly the user paragraph, got %q", g.lastCommit.Message)
	}
}

func TestBodyDiffsPreviewsNewAssetAgainstEmptyBefore(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewAsset{Path: "laptop_apple_macbookpro.1", Template: tp}); err != nil {
		t.Fatalf("push: %v", err)
	}

	diffs, err := tx.BodyDiffs(ctx)
	if err != nil {
		t.Fatalf("BodyDiffs: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("expected one body diff, got %d", len(diffs))
	}
	if diffs[0].Path != "laptop_apple_macbookpro.1" || diffs[0].Before != "" || diffs[0].After == "" {
		t.Fatalf("unexpected diff: %+v", diffs[0])
	}
	if tx.State() != inventory.TxOpen {
		t.Fatalf("expected BodyDiffs to leave the transaction open, got %s", tx.State())
	}
}

func TestAbandonDiscardsOverlay(t *testing.T) {
	g, view, tp := newHarness(t)
	ctx := context.Background()

	tx, err := inventory.NewTransaction(ctx, g, view)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if err := tx.Push(ctx, &inventory.NewAsset{Path: "laptop_apple_macbookpro.1", Template: tp}); err != nil {
		t.Fatalf("push: %v", err)
	}
	tx.Abandon()
	if tx.State() != inventory.TxAbandoned {
		t.Fatalf("expected abandoned state, got %s", tx.State())
	}
	if len(tx.Operations()) != 0 {
		t.Fatalf("expected operations cleared on abandon, got %v", tx.Operations())
	}
}
