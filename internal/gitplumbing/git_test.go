package gitplumbing_test

import (
	"context"
	"testing"

	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/gitplumbing/gptest"
)

func TestOpen_NotARepository(t *testing.T) {
	dir := t.TempDir()
	if _, err := gitplumbing.Open(context.Background(), dir); err == nil {
		t.Fatal("expected Open to fail for a non-repository directory")
	}
}

func TestIsClean(t *testing.T) {
	repo := gptest.New(t)
	repo.Commit("initial", map[string]string{"a.txt": "hello\n"})

	g, err := gitplumbing.Open(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	clean, err := g.IsClean(context.Background())
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if !clean {
		t.Fatal("expected clean working tree")
	}

	repo.WriteFile("b.txt", "untracked\n")

	clean, err = g.IsClean(context.Background())
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if clean {
		t.Fatal("expected dirty working tree after adding untracked file")
	}
}

func TestAddCommitReadBlob(t *testing.T) {
	repo := gptest.New(t)
	repo.Commit("initial", map[string]string{"README.md": "hi\n"})

	g, err := gitplumbing.Open(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	repo.WriteFile("a.yaml", "key: value\n")
	if err := g.Add(ctx, "a.yaml"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sha, err := g.Commit(ctx, gitplumbing.CommitOpts{Message: "add a.yaml"})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if sha == "" {
		t.Fatal("expected non-empty commit sha")
	}

	blob, err := g.ReadBlob(ctx, "a.yaml", "HEAD")
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob) != "key: value" {
		t.Fatalf("unexpected blob content: %q", blob)
	}
}

func TestCommitNothingStagedReturnsErrNothingToCommit(t *testing.T) {
	repo := gptest.New(t)
	repo.Commit("initial", map[string]string{"a.txt": "hello\n"})

	g, err := gitplumbing.Open(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = g.Commit(context.Background(), gitplumbing.CommitOpts{Message: "empty"})
	if err != gitplumbing.ErrNothingToCommit {
		t.Fatalf("expected ErrNothingToCommit, got %v", err)
	}
}

func TestMoveAndRemove(t *testing.T) {
	repo := gptest.New(t)
	repo.Commit("initial", map[string]string{"shelf/item.yaml": "type: x\n"})

	g, err := gitplumbing.Open(context.Background(), repo.Dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	if err := g.Move(ctx, "shelf/item.yaml", "shelf/renamed.yaml"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	tracked, err := g.ListTracked(ctx, "")
	if err != nil {
		t.Fatalf("ListTracked: %v", err)
	}
	found := false
	for _, p := range tracked {
		if p == "shelf/renamed.yaml" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected renamed file to be tracked, got %v", tracked)
	}

	if err := g.Remove(ctx, false, "shelf/renamed.yaml"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	tracked, err = g.ListTracked(ctx, "")
	if err != nil {
		t.Fatalf("ListTracked: %v", err)
	}
	for _, p := range tracked {
		if p == "shelf/renamed.yaml" {
			t.Fatalf("expected shelf/renamed.yaml to be removed, found in %v", tracked)
		}
	}
}
