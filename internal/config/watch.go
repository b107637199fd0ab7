package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher advisory-watches a repository's configuration sources
// (.onyo/config and the local git config file) so long-running consumers
// (the interactive TUI) can react to out-of-band edits.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// WatchRepo starts watching repoRoot's configuration files. The caller
// drains Events()/Errors() and calls Close when done.
func WatchRepo(repoRoot string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, rel := range []string{
		filepath.Join(repoRoot, ".onyo", "config"),
		filepath.Join(repoRoot, ".git", "config"),
	} {
		// Watching a file that doesn't exist yet is fine; fsnotify simply
		// never fires for it. Errors here are non-fatal (advisory only).
		_ = fsw.Add(rel)
	}
	return &Watcher{fsw: fsw}, nil
}

// Events exposes the underlying fsnotify event channel.
func (w *Watcher) Events() <-chan fsnotify.Event { return w.fsw.Events }

// Errors exposes the underlying fsnotify error channel.
func (w *Watcher) Errors() <-chan error { return w.fsw.Errors }

// Close stops watching.
func (w *Watcher) Close() error { return w.fsw.Close() }
