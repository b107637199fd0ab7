package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/ierr"
	"github.com/onyo-cli/onyo/internal/inventory"
	"github.com/onyo-cli/onyo/internal/onyotui"
)

// cmdInit implements "init [DIR]" (spec §6: "0 on init or no-op-on-existing;
// non-zero if DIR is inside an existing repo in conflict").
func cmdInit(ctx context.Context, root string, args []string) error {
	dir := root
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
	}

	if existing, err := gitplumbing.Open(ctx, dir); err == nil {
		if existing.Root() != dir {
			return &ierr.AlreadyARepositoryError{Path: dir}
		}
		onyotui.PrintDim("repository already initialized at " + dir)
		return ensureOnyoLayout(ctx, existing)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	g := gitplumbing.New(dir)
	if err := g.Init(ctx); err != nil {
		return err
	}
	if err := ensureOnyoLayout(ctx, g); err != nil {
		return err
	}
	onyotui.PrintSuccess("initialized onyo repository at " + dir)
	return nil
}

// ensureOnyoLayout creates the reserved .onyo/ tree (spec §6 repository
// layout: config, templates/, validation/) and commits it if the working
// tree has anything new to record.
func ensureOnyoLayout(ctx context.Context, g *gitplumbing.Git) error {
	root := g.Root()
	dirs := []string{
		filepath.Join(root, ".onyo"),
		filepath.Join(root, ".onyo", "templates"),
		filepath.Join(root, ".onyo", "validation"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	emptyTemplate := filepath.Join(root, ".onyo", "templates", "empty")
	if _, err := os.Stat(emptyTemplate); os.IsNotExist(err) {
		if err := os.WriteFile(emptyTemplate, []byte("---\n"), 0o644); err != nil {
			return err
		}
	}
	anchor := filepath.Join(root, ".onyo", "validation", asset.AnchorFileName)
	if _, err := os.Stat(anchor); os.IsNotExist(err) {
		if err := os.WriteFile(anchor, nil, 0o644); err != nil {
			return err
		}
	}
	configFile := filepath.Join(root, ".onyo", "config")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, nil, 0o644); err != nil {
			return err
		}
	}

	clean, err := g.IsClean(ctx)
	if err != nil {
		return err
	}
	if clean {
		return nil
	}
	if err := g.Add(ctx, ".onyo"); err != nil {
		return err
	}
	_, err = g.Commit(ctx, gitplumbing.CommitOpts{Message: "initialize onyo repository layout"})
	if err == gitplumbing.ErrNothingToCommit {
		return nil
	}
	return err
}

// runShellCompletion implements "shell-completion [-s SHELL]".
func runShellCompletion(args []string) error {
	shell := "bash"
	for i := 0; i < len(args); i++ {
		if args[i] == "-s" && i+1 < len(args) {
			shell = args[i+1]
			i++
		}
	}
	switch shell {
	case "zsh":
		fmt.Println(`#compdef onyo
_onyo() { _arguments '*:command:(init new edit mv mkdir rm rmdir set unset get tree show tsv-to-yaml cat config fsck history shell-completion)' }
compdef _onyo onyo`)
	default:
		fmt.Println(`_onyo_completions() { COMPREPLY=($(compgen -W "init new edit mv mkdir rm rmdir set unset get tree show tsv-to-yaml cat config fsck history shell-completion" -- "${COMP_WORDS[COMP_CWORD]}")) }
complete -F _onyo_completions onyo`)
	}
	return nil
}

// --- shared helpers ---

func (a *app) quiet(g globalFlags, msg string) {
	if !g.quiet {
		onyotui.PrintSuccess(msg)
	}
}

func (a *app) finishTransaction(ctx context.Context, g globalFlags, tx *inventory.Transaction) error {
	opts, err := a.commitOpts(ctx, g)
	if err != nil {
		return err
	}

	if len(tx.Operations()) > 0 {
		diffs, err := tx.BodyDiffs(ctx)
		if err != nil {
			return err
		}
		if !g.quiet {
			for _, d := range diffs {
				if rendered := onyotui.RenderBodyDiff(d.Path, d.Before, d.After); rendered != "" {
					fmt.Print(rendered)
				}
			}
			fmt.Print(onyotui.RenderOperationsSummary(tx.Operations()))
		}
		ok, err := onyotui.Confirm("commit these changes?", g.assumeYes)
		if err != nil {
			return err
		}
		if !ok {
			tx.Abandon()
			return ierr.ErrUserAbort
		}
	}

	hash, err := tx.Commit(ctx, opts)
	if err != nil {
		return err
	}
	if hash == "" {
		a.quiet(g, "nothing to do")
		return nil
	}
	if !g.quiet {
		onyotui.PrintSuccess("committed " + hash[:min(12, len(hash))])
	}
	return nil
}
