package config_test

import (
	"context"
	"testing"

	"github.com/onyo-cli/onyo/internal/config"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
)

type fakeGit struct {
	gitValues  map[string]string
	fileValues map[string]string
}

func newFakeGit() *fakeGit {
	return &fakeGit{gitValues: map[string]string{}, fileValues: map[string]string{}}
}

func (f *fakeGit) ConfigGet(ctx context.Context, key string, scope gitplumbing.ConfigScope) (string, error) {
	return f.gitValues[key], nil
}

func (f *fakeGit) ConfigGetFile(ctx context.Context, file, key string) (string, error) {
	return f.fileValues[key], nil
}

func (f *fakeGit) ConfigSetFile(ctx context.Context, file, key, value string) error {
	f.fileValues[key] = value
	return nil
}

func (f *fakeGit) ConfigUnsetFile(ctx context.Context, file, key string) error {
	delete(f.fileValues, key)
	return nil
}

func TestGetFallsBackToDefault(t *testing.T) {
	git := newFakeGit()
	r := config.New(git, "/repo")
	val, err := r.Get(context.Background(), config.KeyNewTemplate, config.DefaultNewTemplate)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != config.DefaultNewTemplate {
		t.Fatalf("want default %q, got %q", config.DefaultNewTemplate, val)
	}
}

func TestOnyoConfigOverridesGitConfig(t *testing.T) {
	git := newFakeGit()
	git.gitValues[config.KeyAssetsNameFormat] = "{type}.{serial}"
	git.fileValues[config.KeyAssetsNameFormat] = "{type}_{make}.{serial}"

	r := config.New(git, "/repo")
	val, err := r.Get(context.Background(), config.KeyAssetsNameFormat, config.DefaultAssetsNameFormat)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "{type}_{make}.{serial}" {
		t.Fatalf("expected tracked config to win, got %q", val)
	}
}

func TestSetRejectsUnrecognisedKey(t *testing.T) {
	r := config.New(newFakeGit(), "/repo")
	err := r.Set(context.Background(), "onyo.bogus.key", "x")
	if err == nil {
		t.Fatal("expected UnrecognisedKeyError")
	}
}

func TestEditorFallsBackThroughChain(t *testing.T) {
	git := newFakeGit()
	r := config.New(git, "/repo")
	val, err := r.Editor(context.Background(), "")
	if err != nil {
		t.Fatalf("Editor: %v", err)
	}
	if val != config.DefaultFallbackEditor {
		t.Fatalf("want %q, got %q", config.DefaultFallbackEditor, val)
	}

	val, err = r.Editor(context.Background(), "vim")
	if err != nil {
		t.Fatalf("Editor: %v", err)
	}
	if val != "vim" {
		t.Fatalf("want $EDITOR fallback 'vim', got %q", val)
	}

	git.gitValues["core.editor"] = "emacs"
	val, _ = r.Editor(context.Background(), "vim")
	if val != "emacs" {
		t.Fatalf("want core.editor 'emacs', got %q", val)
	}

	git.fileValues[config.KeyCoreEditor] = "code --wait"
	val, _ = r.Editor(context.Background(), "vim")
	if val != "code --wait" {
		t.Fatalf("want onyo.core.editor override, got %q", val)
	}
}
