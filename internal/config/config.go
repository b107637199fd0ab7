// Package config implements onyo's layered configuration resolution: the
// git config chain (system, global, local) establishes defaults, and the
// repository's tracked .onyo/config overrides them on read (spec §4.8).
package config

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/onyo-cli/onyo/internal/gitplumbing"
)

// GitConfig is the narrow surface this package needs from gitplumbing.Git.
type GitConfig interface {
	ConfigGet(ctx context.Context, key string, scope gitplumbing.ConfigScope) (string, error)
	ConfigGetFile(ctx context.Context, file, key string) (string, error)
	ConfigSetFile(ctx context.Context, file, key, value string) error
	ConfigUnsetFile(ctx context.Context, file, key string) error
}

// UnrecognisedKeyError indicates a config key outside onyo's known set.
type UnrecognisedKeyError struct {
	Key string
}

func (e *UnrecognisedKeyError) Error() string {
	return "Error: unrecognised config key '" + e.Key + "'\n  Context: onyo only manages its own onyo.* keys through this command\n  Fix: use 'git config' directly for unrelated keys, or check spelling"
}

var _ GitConfig = (*gitplumbing.Git)(nil)

// Resolver resolves onyo.* configuration keys against a repository.
type Resolver struct {
	git      GitConfig
	repoRoot string
}

// New returns a Resolver rooted at repoRoot, whose .onyo/config file is the
// tracked override layer.
func New(git GitConfig, repoRoot string) *Resolver {
	return &Resolver{git: git, repoRoot: repoRoot}
}

func (r *Resolver) onyoConfigPath() string {
	return filepath.Join(r.repoRoot, ".onyo", "config")
}

// Get resolves key, applying git's config chain first and then letting the
// tracked .onyo/config override it, falling back to defaultVal if neither
// source has a value.
func (r *Resolver) Get(ctx context.Context, key, defaultVal string) (string, error) {
	val, _ := r.git.ConfigGet(ctx, key, gitplumbing.ConfigScope(""))
	if onyoVal, err := r.git.ConfigGetFile(ctx, r.onyoConfigPath(), key); err == nil && onyoVal != "" {
		val = onyoVal
	}
	if val == "" {
		return defaultVal, nil
	}
	return val, nil
}

// Editor resolves onyo.core.editor, falling back through core.editor,
// $EDITOR, and finally "nano" (spec §4.8).
func (r *Resolver) Editor(ctx context.Context, envEditor string) (string, error) {
	if v, err := r.git.ConfigGetFile(ctx, r.onyoConfigPath(), KeyCoreEditor); err == nil && v != "" {
		return v, nil
	}
	if v, err := r.git.ConfigGet(ctx, "core.editor", gitplumbing.ConfigScope("")); err == nil && v != "" {
		return v, nil
	}
	if envEditor != "" {
		return envEditor, nil
	}
	return DefaultFallbackEditor, nil
}

// Set writes key into .onyo/config, rejecting keys outside onyo's
// recognised set (spec §4.8 "Recognised keys").
func (r *Resolver) Set(ctx context.Context, key, value string) error {
	if !IsRecognisedKey(key) {
		return &UnrecognisedKeyError{Key: key}
	}
	return r.git.ConfigSetFile(ctx, r.onyoConfigPath(), key, value)
}

// Unset removes key from .onyo/config.
func (r *Resolver) Unset(ctx context.Context, key string) error {
	if !IsRecognisedKey(key) {
		return &UnrecognisedKeyError{Key: key}
	}
	return r.git.ConfigUnsetFile(ctx, r.onyoConfigPath(), key)
}

// ErrUnsupportedScope names a git-config scope this resolver does not model
// directly (kept for parity with gitplumbing's ConfigScope). No code in this
// module returns or checks it.
var ErrUnsupportedScope = errors.New("unsupported config scope")
