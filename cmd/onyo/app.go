package main

import (
	"context"
	"fmt"
	"os"

	"github.com/onyo-cli/onyo/internal/asset"
	"github.com/onyo-cli/onyo/internal/config"
	"github.com/onyo-cli/onyo/internal/gitplumbing"
	"github.com/onyo-cli/onyo/internal/inventory"
)

// globalFlags holds the flags every onyo subcommand accepts (spec §6:
// "Each takes an optional -C PATH ... -q/--quiet, -y/--yes, -m/--message
// (repeatable), --no-auto-message").
type globalFlags struct {
	changeDir      string
	quiet          bool
	assumeYes      bool
	messages       []string
	noAutoMessage  bool
	json           bool
}

// parseGlobalFlags extracts the global flags wherever they appear in args
// and returns them plus the remaining positional tokens (command + its
// own args), mirroring the teacher's parseCommonFlags.
func parseGlobalFlags(args []string) (globalFlags, []string) {
	var g globalFlags
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-C":
			if i+1 < len(args) {
				g.changeDir = args[i+1]
				i++
			}
		case "-q", "--quiet":
			g.quiet = true
		case "-y", "--yes":
			g.assumeYes = true
		case "-m", "--message":
			if i+1 < len(args) {
				g.messages = append(g.messages, args[i+1])
				i++
			}
		case "--no-auto-message":
			g.noAutoMessage = true
		case "--json":
			g.json = true
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		rest = []string{""}
	}
	return g, rest
}

func resolveRoot(changeDir string) (string, error) {
	if changeDir != "" {
		return changeDir, nil
	}
	return os.Getwd()
}

// app bundles the wiring every command (other than init and
// shell-completion) needs: the git adapter, the cached Repository View,
// the compiled name template, and the config resolver.
type app struct {
	git      *gitplumbing.Git
	view     *inventory.View
	template *asset.Template
	cfg      *config.Resolver
}

func newApp(ctx context.Context, root string, skipOpenCheck bool) (*app, error) {
	if skipOpenCheck {
		return &app{git: gitplumbing.New(root)}, nil
	}
	g, err := gitplumbing.Open(ctx, root)
	if err != nil {
		return nil, err
	}
	cfg := config.New(g, root)
	formatStr, err := cfg.Get(ctx, config.KeyAssetsNameFormat, config.DefaultAssetsNameFormat)
	if err != nil {
		return nil, err
	}
	tmpl, err := asset.Compile(formatStr)
	if err != nil {
		return nil, fmt.Errorf("compile %s=%q: %w", config.KeyAssetsNameFormat, formatStr, err)
	}
	view := inventory.NewView(g, tmpl)
	return &app{git: g, view: view, template: tmpl, cfg: cfg}, nil
}

// beginTransaction opens a Transaction against the app's view, per spec
// §4.6 precondition (working tree must be clean before any push).
func (a *app) beginTransaction(ctx context.Context) (*inventory.Transaction, error) {
	return inventory.NewTransaction(ctx, a.git, a.view)
}

// commitOpts builds the CommitOpts for a transaction commit, honoring
// --no-auto-message (user paragraphs only, error if none given — spec
// §4.6 commit-message composition).
func (a *app) commitOpts(ctx context.Context, g globalFlags) (inventory.CommitOpts, error) {
	if g.noAutoMessage && len(g.messages) == 0 {
		return inventory.CommitOpts{}, fmt.Errorf("--no-auto-message requires at least one -m/--message")
	}
	identity := a.git.UserIdentity(ctx)
	name, mail := splitIdentity(identity)
	return inventory.CommitOpts{
		AuthorName:      name,
		AuthorMail:      mail,
		ExtraParagraphs: g.messages,
		NoAutoMessage:   g.noAutoMessage,
	}, nil
}

func splitIdentity(identity string) (name, mail string) {
	for i := 0; i < len(identity); i++ {
		if identity[i] == '<' {
			name = identity[:i]
			mail = identity[i+1:]
			if len(mail) > 0 && mail[len(mail)-1] == '>' {
				mail = mail[:len(mail)-1]
			}
			return trimSpace(name), mail
		}
	}
	return identity, ""
}

func trimSpace(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}
